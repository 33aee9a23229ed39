package contacts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophcontacts/internal/models"
)

// SearchKey names one of the two derived prefix-search columns.
type SearchKey string

const (
	SearchForward SearchKey = "search_forward"
	SearchReverse SearchKey = "search_reverse"
)

func (k SearchKey) column() (string, error) {
	switch k {
	case SearchForward, SearchReverse:
		return string(k), nil
	default:
		return "", fmt.Errorf("unknown search key %q", string(k))
	}
}

// Repository describes storage operations on contact documents.
type Repository interface {
	// Insert stores c and fills in its ID and CreatedAt.
	Insert(ctx context.Context, c *models.Contact) error

	// GetByID returns common.ErrorNotFound when no document has the id.
	GetByID(ctx context.Context, id string) (*models.Contact, error)

	// FindByNames returns up to limit documents whose name and surname are
	// exactly equal to the arguments, oldest first.
	FindByNames(ctx context.Context, name, surname string, limit int) ([]models.Contact, error)

	// Replace overwrites the names (and derived keys) of document id.
	Replace(ctx context.Context, id string, c models.Contact) error

	// Delete removes document id.
	Delete(ctx context.Context, id string) error

	// GetAll returns every document in storage order.
	GetAll(ctx context.Context) ([]models.Contact, error)

	// SearchPrefix returns up to limit documents whose key starts with term.
	SearchPrefix(ctx context.Context, key SearchKey, term string, limit int) ([]models.Contact, error)
}

const selectColumns = `id, name, surname, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (models.Contact, error) {
	var c models.Contact
	err := s.Scan(&c.ID, &c.Name, &c.Surname, &c.CreatedAt)
	return c, err
}
