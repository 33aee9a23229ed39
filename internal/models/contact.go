// Package models defines the domain values shared by the client and the
// document store: contacts, users and auth sessions.
package models

import (
	"strings"
	"time"
)

// Contact is a single entry of the contacts collection.
//
// A Contact is a value. Edits produce a new value via WithNames that keeps the
// store-assigned identity. Search keys are derived on demand and never stored
// on the struct, so they always match Name and Surname.
type Contact struct {
	// ID is assigned by the store on create; empty for a pending create.
	ID string

	// CreatedAt is assigned by the store on create.
	CreatedAt time.Time

	Name    string
	Surname string
}

// NewContact builds a pending-create contact.
func NewContact(name, surname string) Contact {
	return Contact{Name: name, Surname: surname}
}

// WithNames returns a copy carrying the same identity with new display names.
func (c Contact) WithNames(name, surname string) Contact {
	c.Name = name
	c.Surname = surname
	return c
}

// SearchForward is the lowercase "name surname" prefix-search key.
func (c Contact) SearchForward() string {
	return strings.ToLower(c.Name) + " " + strings.ToLower(c.Surname)
}

// SearchReverse is the lowercase "surname name" prefix-search key.
func (c Contact) SearchReverse() string {
	return strings.ToLower(c.Surname) + " " + strings.ToLower(c.Name)
}

// FullName is used in notifications.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.Surname)
}

// IsPending reports whether the store has not assigned an identity yet.
func (c Contact) IsPending() bool {
	return c.ID == ""
}
