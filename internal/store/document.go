package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/changefeed"
	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/dbx"
	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/contacts"
	"golang.org/x/sync/errgroup"
)

const publishTimeout = 5 * time.Second

// RepositoryFactory binds a contacts repository to a DB handle or transaction.
type RepositoryFactory func(db dbx.DBTX) contacts.Repository

// DocumentStore implements Gateway on top of a SQL database and a change feed.
type DocumentStore struct {
	db          *sql.DB
	repos       RepositoryFactory
	feed        changefeed.Feed
	logger      logging.Logger
	collection  string
	prefixLimit int
}

// NewDocumentStore builds a store. A prefixLimit <= 0 selects the default.
func NewDocumentStore(db *sql.DB, repos RepositoryFactory, feed changefeed.Feed, logger logging.Logger, prefixLimit int) *DocumentStore {
	if prefixLimit <= 0 {
		prefixLimit = common.DefaultPrefixLimit
	}
	return &DocumentStore{
		db:          db,
		repos:       repos,
		feed:        feed,
		logger:      logger.With("module", "store"),
		collection:  common.ContactsCollection,
		prefixLimit: prefixLimit,
	}
}

func (s *DocumentStore) Create(ctx context.Context, candidate models.Contact) (models.Contact, error) {
	created := candidate
	if err := s.repos(s.db).Insert(ctx, &created); err != nil {
		return candidate, err
	}
	s.notify(ctx)
	return created, nil
}

func (s *DocumentStore) UpdateByIdentity(ctx context.Context, original, replacement models.Contact) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos(tx)
		id, err := resolve(ctx, repo, original)
		if err != nil {
			return err
		}
		return repo.Replace(ctx, id, replacement)
	})
	if err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

func (s *DocumentStore) RemoveByIdentity(ctx context.Context, target models.Contact) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos(tx)
		id, err := resolve(ctx, repo, target)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

// resolve finds the document a contact value refers to: by ID when it has one,
// otherwise the oldest document with exactly the same names.
func resolve(ctx context.Context, repo contacts.Repository, c models.Contact) (string, error) {
	if c.ID != "" {
		found, err := repo.GetByID(ctx, c.ID)
		if err != nil {
			return "", notFound(c, err)
		}
		return found.ID, nil
	}

	matches, err := repo.FindByNames(ctx, c.Name, c.Surname, 1)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", notFound(c, common.ErrorNotFound)
	}
	return matches[0].ID, nil
}

func notFound(c models.Contact, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("contact %w: %s", common.ErrorNotFound, c.FullName())
	}
	return err
}

func (s *DocumentStore) QueryAll(ctx context.Context) ([]models.Contact, error) {
	return s.repos(s.db).GetAll(ctx)
}

// QueryByPrefix runs the forward and reverse key searches concurrently and
// merges them by ID.
func (s *DocumentStore) QueryByPrefix(ctx context.Context, term string) ([]models.Contact, error) {
	term = strings.ToLower(term)
	if term == "" {
		return s.QueryAll(ctx)
	}

	var forward, reverse []models.Contact
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		forward, err = s.repos(s.db).SearchPrefix(gctx, contacts.SearchForward, term, s.prefixLimit)
		return err
	})
	g.Go(func() error {
		var err error
		reverse, err = s.repos(s.db).SearchPrefix(gctx, contacts.SearchReverse, term, s.prefixLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("prefix query %q: %w", term, err)
	}

	return mergeByID(forward, reverse), nil
}

func mergeByID(lists ...[]models.Contact) []models.Contact {
	seen := make(map[string]struct{})
	out := make([]models.Contact, 0)
	for _, list := range lists {
		for _, c := range list {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// notify publishes a change event. The write has already committed, so a
// publish failure is logged and not returned.
func (s *DocumentStore) notify(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.feed.Publish(ctx, s.collection); err != nil {
		s.logger.Warn(ctx, "change event not published", "collection", s.collection, "error", err)
	}
}
