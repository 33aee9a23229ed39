package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/dbx"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
)

// PostgresRepository implements Repository on PostgreSQL. IDs and creation
// timestamps come from column defaults.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, c *models.Contact) error {
	query :=
		`INSERT INTO contacts (name, surname, search_forward, search_reverse)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `
	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Surname, c.SearchForward(), c.SearchReverse()).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	query :=
		`SELECT id, name, surname, created_at FROM contacts
		 WHERE id = $1
		 `
	c, err := scanContact(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) FindByNames(ctx context.Context, name, surname string, limit int) ([]models.Contact, error) {
	query :=
		`SELECT id, name, surname, created_at FROM contacts
		 WHERE name = $1 AND surname = $2
		 ORDER BY created_at, id
		 LIMIT $3
		 `
	return r.list(ctx, query, name, surname, limit)
}

func (r *PostgresRepository) Replace(ctx context.Context, id string, c models.Contact) error {
	query :=
		`UPDATE contacts SET name = $1, surname = $2, search_forward = $3, search_reverse = $4
		 WHERE id = $5
		 `
	res, err := r.db.ExecContext(ctx, query,
		c.Name, c.Surname, c.SearchForward(), c.SearchReverse(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]models.Contact, error) {
	return r.list(ctx, `SELECT id, name, surname, created_at FROM contacts`)
}

func (r *PostgresRepository) SearchPrefix(ctx context.Context, key SearchKey, term string, limit int) ([]models.Contact, error) {
	col, err := key.column()
	if err != nil {
		return nil, err
	}

	query :=
		`SELECT id, name, surname, created_at FROM contacts
		 WHERE starts_with(` + col + `, $1)
		 ORDER BY ` + col + `
		 LIMIT $2
		 `
	return r.list(ctx, query, term, limit)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
