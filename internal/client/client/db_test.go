package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDatabase(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "contacts.db")

	db, m, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)

	c := models.NewContact("Ann", "Lee")
	require.NoError(t, m.Contacts(db).Insert(ctx, &c))
	require.NoError(t, db.Close())

	db, m, err = InitDatabase(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	all, err := m.Contacts(db).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ann Lee", all[0].FullName())
}

func TestInitDatabase_CreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "dir", "x.db")
	db, _, err := InitDatabase(context.Background(), dsn)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = os.Stat(dsn)
	assert.NoError(t, err)
}

func TestInitDatabase_BadPath(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, _, err := InitDatabase(context.Background(), filepath.Join(blocker, "x.db"))
	assert.Error(t, err)
}
