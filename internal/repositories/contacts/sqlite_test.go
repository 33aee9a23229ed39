package contacts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/migrations"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
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

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	r := NewSQLiteRepository(setupDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	r.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return r
}

func insert(t *testing.T, r *SQLiteRepository, name, surname string) models.Contact {
	t.Helper()
	c := models.NewContact(name, surname)
	require.NoError(t, r.Insert(context.Background(), &c))
	return c
}

func names(cs []models.Contact) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.FullName())
	}
	return out
}

func TestInsert_AssignsIdentity(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	c := insert(t, r, "Ann", "Lee")
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := r.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, "Lee", got.Surname)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
}

func TestInsert_StoresSearchKeys(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	c := models.NewContact("Ann", "LEE")
	require.NoError(t, r.Insert(ctx, &c))

	var fwd, rev string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT search_forward, search_reverse FROM contacts WHERE id = ?`, c.ID).Scan(&fwd, &rev))
	assert.Equal(t, "ann lee", fwd)
	assert.Equal(t, "lee ann", rev)
}

func TestGetByID_NotFound(t *testing.T) {
	r := newRepo(t)
	_, err := r.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByNames_OldestFirstWithLimit(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	first := insert(t, r, "Bob", "Stone")
	second := insert(t, r, "Bob", "Stone")
	insert(t, r, "Bob", "Rock")

	got, err := r.FindByNames(ctx, "Bob", "Stone", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)

	got, err = r.FindByNames(ctx, "Bob", "Stone", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)

	got, err = r.FindByNames(ctx, "bob", "stone", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplace_UpdatesNamesAndKeys(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	c := insert(t, r, "Ann", "Lee")
	require.NoError(t, r.Replace(ctx, c.ID, c.WithNames("Anna", "Li")))

	got, err := r.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)
	assert.Equal(t, "Li", got.Surname)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	found, err := r.SearchPrefix(ctx, SearchForward, "anna", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestReplace_Missing(t *testing.T) {
	r := newRepo(t)
	err := r.Replace(context.Background(), "missing", models.NewContact("A", "B"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	c := insert(t, r, "Ann", "Lee")
	require.NoError(t, r.Delete(ctx, c.ID))

	_, err := r.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, r.Delete(ctx, c.ID), common.ErrorNotFound)
}

func TestGetAll(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	insert(t, r, "Ann", "Lee")
	insert(t, r, "Bob", "Stone")

	all, err = r.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Ann Lee", "Bob Stone"}, names(all))
}

func TestSearchPrefix(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	insert(t, r, "Ann", "Lee")
	insert(t, r, "Annabel", "Smith")
	insert(t, r, "Bob", "Annis")
	insert(t, r, "Zoë", "Ångström")

	tests := []struct {
		name string
		key  SearchKey
		term string
		want []string
	}{
		{"forward by first name", SearchForward, "ann", []string{"Ann Lee", "Annabel Smith"}},
		{"forward full key", SearchForward, "ann lee", []string{"Ann Lee"}},
		{"reverse by surname", SearchReverse, "ann", []string{"Bob Annis"}},
		{"reverse full key", SearchReverse, "smith annabel", []string{"Annabel Smith"}},
		{"non ascii", SearchReverse, "ångström", []string{"Zoë Ångström"}},
		{"no match", SearchForward, "xyz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.SearchPrefix(ctx, tt.key, tt.term, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSearchPrefix_Limit(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		insert(t, r, "Max", "Payne")
	}

	got, err := r.SearchPrefix(ctx, SearchForward, "max", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSearchPrefix_UnknownKey(t *testing.T) {
	r := newRepo(t)
	_, err := r.SearchPrefix(context.Background(), SearchKey("name; DROP TABLE contacts"), "a", 10)
	assert.Error(t, err)
}
