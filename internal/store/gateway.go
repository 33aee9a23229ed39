// Package store is the boundary between the contact list client and the
// document store holding the contacts collection.
//
// Gateway is the contract. DocumentStore implements it over a SQL repository
// and a change feed; the gRPC client implements it against a remote server.
package store

import (
	"context"

	"github.com/dmitrijs2005/gophcontacts/internal/models"
)

// Gateway exposes the contacts collection. Every call returns exactly one
// result or one error; nothing panics across it.
type Gateway interface {
	// Create stores candidate and returns it with ID and CreatedAt set. On
	// failure the candidate is returned unchanged alongside the error.
	Create(ctx context.Context, candidate models.Contact) (models.Contact, error)

	// UpdateByIdentity overwrites the document identified by original with
	// the names of replacement.
	UpdateByIdentity(ctx context.Context, original, replacement models.Contact) error

	// RemoveByIdentity deletes the document identified by target.
	RemoveByIdentity(ctx context.Context, target models.Contact) error

	// QueryAll returns every document, unordered.
	QueryAll(ctx context.Context) ([]models.Contact, error)

	// QueryByPrefix returns documents whose forward or reverse search key
	// starts with the lowercased term, unordered and without duplicates.
	QueryByPrefix(ctx context.Context, term string) ([]models.Contact, error)

	// Subscribe calls onChange with the full collection now and after every
	// change. Calls are serialized.
	Subscribe(ctx context.Context, onChange func([]models.Contact)) (Subscription, error)
}

// Subscription is a live Subscribe registration.
type Subscription interface {
	// Cancel stops delivery. Once it returns onChange is not called again.
	// It must not be called from inside onChange.
	Cancel()
}
