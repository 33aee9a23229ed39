package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/dbx"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Insert assigns a random UUID and the current UTC time, then stores c.
func (r *SQLiteRepository) Insert(ctx context.Context, c *models.Contact) error {
	id := uuid.NewString()
	createdAt := r.now().UTC()

	query := `INSERT INTO contacts (id, name, surname, search_forward, search_reverse, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		id, c.Name, c.Surname, c.SearchForward(), c.SearchReverse(), createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}

	c.ID = id
	c.CreatedAt = createdAt
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	query := `SELECT ` + selectColumns + ` FROM contacts WHERE id = ?`

	c, err := scanContact(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) FindByNames(ctx context.Context, name, surname string, limit int) ([]models.Contact, error) {
	query := `SELECT ` + selectColumns + ` FROM contacts
			WHERE name = ? AND surname = ?
			ORDER BY created_at, id
			LIMIT ?`
	return r.list(ctx, query, name, surname, limit)
}

// Replace overwrites names and search keys. It expects exactly one row to be affected.
func (r *SQLiteRepository) Replace(ctx context.Context, id string, c models.Contact) error {
	query := `UPDATE contacts SET name = ?, surname = ?, search_forward = ?, search_reverse = ?
			WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.Name, c.Surname, c.SearchForward(), c.SearchReverse(), id)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Contact, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM contacts`)
}

// SearchPrefix seeks the key index from term and keeps rows whose leading
// characters equal term.
func (r *SQLiteRepository) SearchPrefix(ctx context.Context, key SearchKey, term string, limit int) ([]models.Contact, error) {
	col, err := key.column()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + selectColumns + ` FROM contacts
			WHERE ` + col + ` >= ? AND substr(` + col + `, 1, ?) = ?
			ORDER BY ` + col + `
			LIMIT ?`
	return r.list(ctx, query, term, utf8.RuneCountInString(term), term, limit)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts: %w", err)
	}
	defer rows.Close()

	result := make([]models.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func expectOneRow(res sql.Result) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}
