package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophcontacts/internal/client/state"
	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/store"
)

const minNameLength = 2

// validationError is input rejected before any backend call.
type validationError string

func (e validationError) Error() string { return string(e) }
func (e validationError) Unwrap() error { return common.ErrValidation }

var ErrNameTooShort error = validationError("name must be at least 2 characters")

// ContactService mutates contacts through a store.Gateway and keeps the
// displayed list in sync. Each method returns a notification message on
// success.
type ContactService interface {
	Add(ctx context.Context, name, surname string) (string, error)
	Update(ctx context.Context, original models.Contact, name, surname string) (string, error)
	Delete(ctx context.Context, target models.Contact) (string, error)
	Reload(ctx context.Context) error
	SetFilter(ctx context.Context, filter string) error
	Filter() string
	Start(ctx context.Context) error
	Close()
	Contacts() *state.ContactList
	Dialogs() *state.Dialogs
}

type contactService struct {
	gateway  store.Gateway
	logger   logging.Logger
	contacts *state.ContactList
	dialogs  *state.Dialogs

	mu     sync.Mutex
	filter string
	sub    store.Subscription
}

func NewContactService(gateway store.Gateway, logger logging.Logger) ContactService {
	return &contactService{
		gateway:  gateway,
		logger:   logger.With("module", "contacts"),
		contacts: state.NewContactList(),
		dialogs:  &state.Dialogs{},
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || utf8.RuneCountInString(name) < minNameLength {
		return ErrNameTooShort
	}
	return nil
}

func (s *contactService) Add(ctx context.Context, name, surname string) (string, error) {
	if err := validateName(name); err != nil {
		s.logger.Warn(ctx, "contact rejected", "error", err)
		return "", err
	}

	created, err := s.gateway.Create(ctx, models.NewContact(name, surname))
	if err != nil {
		s.logger.Warn(ctx, "error adding contact", "error", err)
		return "", fmt.Errorf("error adding contact: %w", err)
	}

	msg := "contact added: " + created.FullName()
	s.logger.Info(ctx, msg, "id", created.ID)
	s.reloadAfterWrite(ctx)
	return msg, nil
}

func (s *contactService) Update(ctx context.Context, original models.Contact, name, surname string) (string, error) {
	if err := validateName(name); err != nil {
		s.logger.Warn(ctx, "contact rejected", "error", err)
		return "", err
	}

	replacement := original.WithNames(name, surname)
	if err := s.gateway.UpdateByIdentity(ctx, original, replacement); err != nil {
		s.logger.Warn(ctx, "error updating contact", "contact", original.FullName(), "error", err)
		return "", s.writeError("error updating contact", err)
	}

	msg := "contact updated: " + replacement.FullName()
	s.logger.Info(ctx, msg, "id", original.ID)
	s.reloadAfterWrite(ctx)
	return msg, nil
}

func (s *contactService) Delete(ctx context.Context, target models.Contact) (string, error) {
	if err := s.gateway.RemoveByIdentity(ctx, target); err != nil {
		s.logger.Warn(ctx, "error removing contact", "contact", target.FullName(), "error", err)
		return "", s.writeError("error removing contact", err)
	}

	msg := "contact removed: " + target.FullName()
	s.logger.Info(ctx, msg, "id", target.ID)
	s.reloadAfterWrite(ctx)
	return msg, nil
}

// writeError keeps the store's "contact not found: ..." message as is.
func (s *contactService) writeError(prefix string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", prefix, err)
}

// reloadAfterWrite refreshes the list; a failed refresh does not fail the
// write that preceded it.
func (s *contactService) reloadAfterWrite(ctx context.Context) {
	if err := s.Reload(ctx); err != nil {
		s.logger.Warn(ctx, "reload after write failed", "error", err)
	}
}

// beginLoad reads the filter and issues a ticket in one step, so a query for
// a replaced filter always holds an older ticket than the one replacing it.
func (s *contactService) beginLoad() (string, state.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter, s.contacts.Begin()
}

func (s *contactService) Reload(ctx context.Context) error {
	filter, ticket := s.beginLoad()
	return s.load(ctx, filter, ticket)
}

func (s *contactService) load(ctx context.Context, filter string, ticket state.Ticket) error {
	var (
		list []models.Contact
		err  error
	)
	if filter == "" {
		list, err = s.gateway.QueryAll(ctx)
	} else {
		list, err = s.gateway.QueryByPrefix(ctx, filter)
	}
	if err != nil {
		return fmt.Errorf("error loading contacts: %w", err)
	}

	if !s.contacts.Apply(ticket, list) {
		s.logger.Debug(ctx, "stale contact list dropped", "ticket", ticket)
	}
	return nil
}

func (s *contactService) SetFilter(ctx context.Context, filter string) error {
	s.mu.Lock()
	s.filter = filter
	ticket := s.contacts.Begin()
	s.mu.Unlock()
	return s.load(ctx, filter, ticket)
}

func (s *contactService) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Start loads the list and subscribes to store changes. Calling Start again
// replaces the previous subscription.
func (s *contactService) Start(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}

	sub, err := s.gateway.Subscribe(ctx, func(list []models.Contact) { s.onPush(ctx, list) })
	if err != nil {
		return fmt.Errorf("error subscribing to contacts: %w", err)
	}

	s.mu.Lock()
	prev := s.sub
	s.sub = sub
	s.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	return nil
}

// onPush applies a full-collection push directly only while no filter is
// set; a filtered view is re-queried instead.
func (s *contactService) onPush(ctx context.Context, list []models.Contact) {
	filter, ticket := s.beginLoad()
	if filter != "" {
		if err := s.load(ctx, filter, ticket); err != nil {
			s.logger.Warn(ctx, "filtered reload failed", "error", err)
		}
		return
	}
	if !s.contacts.Apply(ticket, list) {
		s.logger.Debug(ctx, "stale contact push dropped", "ticket", ticket)
	}
}

func (s *contactService) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

func (s *contactService) Contacts() *state.ContactList {
	return s.contacts
}

func (s *contactService) Dialogs() *state.Dialogs {
	return s.dialogs
}
