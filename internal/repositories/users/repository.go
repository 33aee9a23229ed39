// Package users persists identity provider accounts.
package users

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophcontacts/internal/models"
)

type Repository interface {
	// Create stores user and fills in ID and CreatedAt. A duplicate email
	// yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

func nullEmail(email string) sql.NullString {
	return sql.NullString{String: email, Valid: email != ""}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	var email sql.NullString
	if err := s.Scan(&u.ID, &email, &u.PasswordHash, &u.Salt,
		&u.Anonymous, &u.Federated, &u.EmailVerified, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Email = email.String
	return u, nil
}
