package state

import (
	"slices"
	"sync"

	"github.com/dmitrijs2005/gophcontacts/internal/models"
)

// Ticket orders write attempts by the time they were issued.
type Ticket uint64

// ContactList is the displayed, sorted contact list. Writers take a ticket
// with Begin before querying and Apply the result; only results newer than the
// last applied one replace the list.
type ContactList struct {
	mu       sync.Mutex
	items    []models.Contact
	issued   Ticket
	applied  Ticket
	watchers map[int]func([]models.Contact)
	nextID   int
}

// NewContactList returns an empty list with no watchers.
func NewContactList() *ContactList {
	return &ContactList{watchers: make(map[int]func([]models.Contact))}
}

// Snapshot returns a copy of the current list.
func (l *ContactList) Snapshot() []models.Contact {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Begin issues the next ticket.
func (l *ContactList) Begin() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issued++
	return l.issued
}

// Apply replaces the list if t is newer than the last applied ticket and
// reports whether it did. Watchers are called with the sorted list after the
// lock is released.
func (l *ContactList) Apply(t Ticket, list []models.Contact) bool {
	l.mu.Lock()
	if t <= l.applied {
		l.mu.Unlock()
		return false
	}
	items := slices.Clone(list)
	models.SortContacts(items)
	l.items = items
	l.applied = t

	fns := make([]func([]models.Contact), 0, len(l.watchers))
	for _, fn := range l.watchers {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(items))
	}
	return true
}

// Watch registers fn for every applied list.
func (l *ContactList) Watch(fn func([]models.Contact)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.watchers[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.watchers, id)
	}
}
