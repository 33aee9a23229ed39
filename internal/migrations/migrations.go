// Package migrations embeds the goose SQL migrations for each supported
// database dialect and applies them.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Dialect names a supported database flavour.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) gooseDialect() goose.Dialect {
	if d == DialectPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// Up applies every pending migration for the dialect.
func Up(ctx context.Context, db *sql.DB, d Dialect) error {
	sub, err := fs.Sub(files, string(d))
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", d, err)
	}

	provider, err := goose.NewProvider(d.gooseDialect(), db, sub)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
