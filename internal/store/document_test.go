package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/changefeed"
	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/dbx"
	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/migrations"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/contacts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db, migrations.DialectSQLite))
	return db
}

func sqliteRepos(db dbx.DBTX) contacts.Repository {
	return contacts.NewSQLiteRepository(db)
}

func newStore(t *testing.T) (*DocumentStore, *changefeed.Local) {
	t.Helper()
	feed := changefeed.NewLocal()
	return NewDocumentStore(setupDB(t), sqliteRepos, feed, logging.Nop{}, 0), feed
}

func mustCreate(t *testing.T, s *DocumentStore, name, surname string) models.Contact {
	t.Helper()
	c, err := s.Create(context.Background(), models.NewContact(name, surname))
	require.NoError(t, err)
	return c
}

func fullNames(cs []models.Contact) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.FullName())
	}
	return out
}

func TestCreate_AssignsIdentityAndPublishes(t *testing.T) {
	s, feed := newStore(t)

	var events atomic.Int32
	stop, err := feed.Listen(context.Background(), common.ContactsCollection, func(changefeed.Event) { events.Add(1) })
	require.NoError(t, err)
	defer stop()

	c := mustCreate(t, s, "Ann", "Lee")
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, "Ann", c.Name)
	assert.Equal(t, int32(1), events.Load())
}

func TestCreate_FailureReturnsCandidate(t *testing.T) {
	db := setupDB(t)
	s := NewDocumentStore(db, sqliteRepos, changefeed.NewLocal(), logging.Nop{}, 0)
	require.NoError(t, db.Close())

	candidate := models.NewContact("Ann", "Lee")
	got, err := s.Create(context.Background(), candidate)
	require.Error(t, err)
	assert.Equal(t, candidate, got)
}

func TestUpdateByIdentity_ByID(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	c := mustCreate(t, s, "Ann", "Lee")
	mustCreate(t, s, "Ann", "Lee")

	require.NoError(t, s.UpdateByIdentity(ctx, c, c.WithNames("Anna", "Li")))

	all, err := s.QueryAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Anna Li", "Ann Lee"}, fullNames(all))
}

func TestUpdateByIdentity_ByNamesPicksOldest(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	first := mustCreate(t, s, "Bob", "Stone")
	time.Sleep(5 * time.Millisecond)
	second := mustCreate(t, s, "Bob", "Stone")

	original := models.NewContact("Bob", "Stone")
	require.NoError(t, s.UpdateByIdentity(ctx, original, original.WithNames("Robert", "Stone")))

	all, err := s.QueryAll(ctx)
	require.NoError(t, err)
	byID := map[string]string{}
	for _, c := range all {
		byID[c.ID] = c.FullName()
	}
	assert.Equal(t, "Robert Stone", byID[first.ID])
	assert.Equal(t, "Bob Stone", byID[second.ID])
}

func TestUpdateByIdentity_NotFound(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	ghost := models.NewContact("No", "Body")
	err := s.UpdateByIdentity(ctx, ghost, ghost.WithNames("Some", "Body"))
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.EqualError(t, err, "contact not found: No Body")

	stale := models.Contact{ID: "gone", Name: "Old", Surname: "Id"}
	err = s.UpdateByIdentity(ctx, stale, stale.WithNames("New", "Id"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRemoveByIdentity(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "Ann", "Lee")
	mustCreate(t, s, "Bob", "Stone")

	require.NoError(t, s.RemoveByIdentity(ctx, a))
	require.NoError(t, s.RemoveByIdentity(ctx, models.NewContact("Bob", "Stone")))

	all, err := s.QueryAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, s.RemoveByIdentity(ctx, a), common.ErrorNotFound)
}

func TestQueryByPrefix(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	mustCreate(t, s, "Ann", "Annis")
	mustCreate(t, s, "Annabel", "Smith")
	mustCreate(t, s, "Bob", "Annan")
	mustCreate(t, s, "Carl", "Jung")

	got, err := s.QueryByPrefix(ctx, "ANN")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Ann Annis", "Annabel Smith", "Bob Annan"}, fullNames(got))

	got, err = s.QueryByPrefix(ctx, "jung c")
	require.NoError(t, err)
	assert.Equal(t, []string{"Carl Jung"}, fullNames(got))

	got, err = s.QueryByPrefix(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 4)

	got, err = s.QueryByPrefix(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryByPrefix_LimitPerKey(t *testing.T) {
	feed := changefeed.NewLocal()
	s := NewDocumentStore(setupDB(t), sqliteRepos, feed, logging.Nop{}, 2)

	for i := 0; i < 3; i++ {
		mustCreate(t, s, "Max", "Payne")
	}
	for i := 0; i < 3; i++ {
		mustCreate(t, s, "Tom", "Max")
	}

	got, err := s.QueryByPrefix(context.Background(), "max")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestMergeByID(t *testing.T) {
	a := models.Contact{ID: "1", Name: "A"}
	b := models.Contact{ID: "2", Name: "B"}
	c := models.Contact{ID: "3", Name: "C"}

	got := mergeByID([]models.Contact{a, b}, []models.Contact{b, c})
	assert.Equal(t, []models.Contact{a, b, c}, got)
	assert.NotNil(t, mergeByID())
}

type failingFeed struct {
	changefeed.Feed
}

func (failingFeed) Publish(context.Context, string) error { return errors.New("feed down") }

func TestWriteSucceedsWhenPublishFails(t *testing.T) {
	s := NewDocumentStore(setupDB(t), sqliteRepos, failingFeed{}, logging.Nop{}, 0)

	_, err := s.Create(context.Background(), models.NewContact("Ann", "Lee"))
	assert.NoError(t, err)
}

type recordingLogger struct {
	logging.Nop
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Error(_ context.Context, msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) With(...any) logging.Logger { return l }

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}
