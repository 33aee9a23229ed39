// Package repomanager vends repository implementations for one SQL dialect
// and runs that dialect's schema migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophcontacts/internal/dbx"
	"github.com/dmitrijs2005/gophcontacts/internal/migrations"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/contacts"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Contacts(db dbx.DBTX) contacts.Repository
	Users(db dbx.DBTX) users.Repository
}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// New returns the manager for a database/sql driver name ("sqlite" or "pgx").
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case "sqlite":
		return &SQLiteRepositoryManager{}, nil
	case "pgx", "postgres":
		return &PostgresRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// SQLiteRepositoryManager backs the local document store.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Contacts(db dbx.DBTX) contacts.Repository {
	return contacts.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, migrations.DialectSQLite)
}

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Contacts(db dbx.DBTX) contacts.Repository {
	return contacts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// RunMigrations applies the embedded postgres migrations via goose.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, migrations.DialectPostgres)
}
