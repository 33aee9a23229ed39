package client

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/gophcontacts/internal/filex"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/repomanager"

	_ "modernc.org/sqlite"
)

// InitDatabase opens the local SQLite document store and applies migrations.
// A plain file path gets its directory created first.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, nil, err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(1)

	m := &repomanager.SQLiteRepositoryManager{}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, m, nil
}
