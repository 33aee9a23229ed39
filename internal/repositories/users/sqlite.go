package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/dbx"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	query := `INSERT INTO users (id, email, password_hash, salt, anonymous, federated, email_verified, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, id, nullEmail(user.Email), user.PasswordHash, user.Salt,
		user.Anonymous, user.Federated, user.EmailVerified, createdAt)
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = createdAt
	return user, nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, `WHERE email = ?`, email)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

func (r *SQLiteRepository) get(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT id, email, password_hash, salt, anonymous, federated, email_verified, created_at
			FROM users ` + where

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return u, nil
}
