package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sync"

	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
)

const minPasswordLength = 6

var (
	ErrInvalidEmail     error = validationError("invalid email address")
	ErrPasswordTooShort error = validationError("password must be at least 6 characters")
	ErrEmptyIDToken     error = validationError("identity token is required")
)

// AuthProvider is the backend that issues sessions: identity.Service in
// local mode, client.GRPCClient in remote mode.
type AuthProvider interface {
	SignUpWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignInWithFederatedToken(ctx context.Context, idToken string) (*models.Session, error)
	SignInAnonymously(ctx context.Context) (*models.Session, error)
	SignOut(ctx context.Context) error
}

type AuthState int

const (
	AuthIdle AuthState = iota
	AuthLoading
	AuthSignedIn
	AuthAnonymous
	AuthVerificationPending
	AuthError
)

func (s AuthState) String() string {
	switch s {
	case AuthLoading:
		return "loading"
	case AuthSignedIn:
		return "signed in"
	case AuthAnonymous:
		return "anonymous"
	case AuthVerificationPending:
		return "verification pending"
	case AuthError:
		return "error"
	default:
		return "idle"
	}
}

// AuthService validates credentials before delegating to the provider and
// tracks the resulting state.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	SignInFederated(ctx context.Context, idToken string) (string, error)
	SignInAnonymously(ctx context.Context) (string, error)
	SignOut(ctx context.Context) (string, error)
	State() AuthState
	Session() *models.Session
	// Notice returns the last transient message and clears it.
	Notice() string
}

type authService struct {
	provider AuthProvider
	logger   logging.Logger

	mu      sync.Mutex
	state   AuthState
	session *models.Session
	notice  string
}

func NewAuthService(provider AuthProvider, logger logging.Logger) AuthService {
	return &authService{provider: provider, logger: logger.With("module", "auth")}
}

func validateCredentials(email, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	if len([]rune(password)) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (a *authService) SignUp(ctx context.Context, email, password string) (string, error) {
	if err := validateCredentials(email, password); err != nil {
		return a.fail(err)
	}
	return a.run(ctx, "sign up", func() (*models.Session, error) {
		return a.provider.SignUpWithPassword(ctx, email, password)
	})
}

func (a *authService) SignIn(ctx context.Context, email, password string) (string, error) {
	if err := validateCredentials(email, password); err != nil {
		return a.fail(err)
	}
	return a.run(ctx, "sign in", func() (*models.Session, error) {
		return a.provider.SignInWithPassword(ctx, email, password)
	})
}

func (a *authService) SignInFederated(ctx context.Context, idToken string) (string, error) {
	if idToken == "" {
		return a.fail(ErrEmptyIDToken)
	}
	return a.run(ctx, "federated sign in", func() (*models.Session, error) {
		return a.provider.SignInWithFederatedToken(ctx, idToken)
	})
}

func (a *authService) SignInAnonymously(ctx context.Context) (string, error) {
	return a.run(ctx, "anonymous sign in", func() (*models.Session, error) {
		return a.provider.SignInAnonymously(ctx)
	})
}

func (a *authService) SignOut(ctx context.Context) (string, error) {
	if err := a.provider.SignOut(ctx); err != nil {
		a.logger.Warn(ctx, "sign out failed", "error", err)
	}

	a.mu.Lock()
	a.state = AuthIdle
	a.session = nil
	a.notice = "signed out"
	a.mu.Unlock()

	a.logger.Info(ctx, "signed out")
	return "signed out", nil
}

func (a *authService) run(ctx context.Context, op string, call func() (*models.Session, error)) (string, error) {
	a.mu.Lock()
	a.state = AuthLoading
	a.mu.Unlock()

	sess, err := call()
	if err != nil {
		a.logger.Warn(ctx, op+" failed", "error", err)
		return a.fail(describeAuthError(op, err))
	}

	next := stateOf(sess)
	var msg string
	switch next {
	case AuthAnonymous:
		msg = "signed in anonymously"
	case AuthVerificationPending:
		msg = "signed in as " + sess.Email + "; email verification pending"
	default:
		msg = "signed in as " + sess.Email
	}

	a.mu.Lock()
	a.state = next
	a.session = sess
	a.notice = msg
	a.mu.Unlock()

	a.logger.Info(ctx, op+" succeeded", "user_id", sess.UserID, "state", next.String())
	return msg, nil
}

func describeAuthError(op string, err error) error {
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		return fmt.Errorf("%s failed: account already exists: %w", op, err)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return fmt.Errorf("%s failed: invalid credentials: %w", op, err)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}

// fail keeps any existing session; a rejected attempt does not sign out.
func (a *authService) fail(err error) (string, error) {
	a.mu.Lock()
	if a.session == nil {
		a.state = AuthError
	} else if a.state == AuthLoading {
		a.state = stateOf(a.session)
	}
	a.notice = err.Error()
	a.mu.Unlock()
	return "", err
}

func stateOf(s *models.Session) AuthState {
	switch {
	case s.Anonymous:
		return AuthAnonymous
	case !s.EmailVerified:
		return AuthVerificationPending
	default:
		return AuthSignedIn
	}
}

func (a *authService) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *authService) Session() *models.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *authService) Notice() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := a.notice
	a.notice = ""
	return n
}
