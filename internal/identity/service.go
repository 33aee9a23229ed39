// Package identity is the local auth provider: email/password accounts,
// federated sign-in with partner ID tokens, and anonymous accounts. Every
// successful sign-in yields a models.Session holding an access token.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/cryptox"
	"github.com/dmitrijs2005/gophcontacts/internal/dbx"
	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/users"
)

// UsersFactory binds a users repository to a DB handle or transaction.
type UsersFactory func(db dbx.DBTX) users.Repository

type Config struct {
	SecretKey                   []byte
	FederationSecret            []byte
	AccessTokenValidityDuration time.Duration
}

type Service struct {
	db     *sql.DB
	users  UsersFactory
	cfg    Config
	logger logging.Logger
}

func NewService(db *sql.DB, users UsersFactory, cfg Config, logger logging.Logger) *Service {
	return &Service{db: db, users: users, cfg: cfg, logger: logger.With("module", "identity")}
}

// SignUpWithPassword creates an unverified email account and signs it in.
func (s *Service) SignUpWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	salt := cryptox.NewSalt()
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	u, err := s.users(s.db).Create(ctx, &models.User{
		Email:        email,
		PasswordHash: cryptox.HashPassword(pw, salt),
		Salt:         salt,
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, fmt.Errorf("account %w: %s", common.ErrAlreadyExists, email)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "account created", "user_id", u.ID)
	return s.session(u)
}

func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	u, err := s.users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if len(u.PasswordHash) == 0 {
		return nil, common.ErrorUnauthorized
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)
	if !cryptox.VerifyPassword(pw, u.Salt, u.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	return s.session(u)
}

// SignInWithFederatedToken verifies a partner ID token and provisions the
// account on first use.
func (s *Service) SignInWithFederatedToken(ctx context.Context, idToken string) (*models.Session, error) {
	claims, err := parseFederatedToken(idToken, s.cfg.FederationSecret)
	if err != nil {
		return nil, err
	}

	u, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.users(tx)
		u, err := repo.GetByEmail(ctx, claims.Email)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return repo.Create(ctx, &models.User{
			Email:         claims.Email,
			Federated:     true,
			EmailVerified: claims.EmailVerified,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("federated sign-in: %w", err)
	}
	return s.session(u)
}

func (s *Service) SignInAnonymously(ctx context.Context) (*models.Session, error) {
	u, err := s.users(s.db).Create(ctx, &models.User{Anonymous: true})
	if err != nil {
		return nil, fmt.Errorf("error creating anonymous user: %w", err)
	}
	return s.session(u)
}

// SignOut is a no-op: access tokens are stateless and simply expire.
func (s *Service) SignOut(context.Context) error {
	return nil
}

// Authenticate returns the user ID an access token was issued to.
func (s *Service) Authenticate(_ context.Context, accessToken string) (string, error) {
	return GetUserIDFromToken(accessToken, s.cfg.SecretKey)
}

func (s *Service) session(u *models.User) (*models.Session, error) {
	token, err := GenerateToken(u.ID, u.Anonymous, s.cfg.SecretKey, s.cfg.AccessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &models.Session{
		UserID:        u.ID,
		Email:         u.Email,
		Anonymous:     u.Anonymous,
		EmailVerified: u.EmailVerified,
		AccessToken:   token,
	}, nil
}
