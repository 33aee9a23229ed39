package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/gophcontacts/internal/changefeed"
	"github.com/dmitrijs2005/gophcontacts/internal/client/client"
	"github.com/dmitrijs2005/gophcontacts/internal/client/config"
	"github.com/dmitrijs2005/gophcontacts/internal/client/services"
	"github.com/dmitrijs2005/gophcontacts/internal/identity"
	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/store"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	auth     services.AuthService
	contacts services.ContactService
	pinger   interface{ Ping(context.Context) error }
	closer   func() error
	reader   *bufio.Reader

	outMu   sync.Mutex
	out     io.Writer
	idle    atomic.Bool
	unwatch func()
}

// backend is what a store mode provides to the App.
type backend struct {
	gateway  store.Gateway
	provider services.AuthProvider
	pinger   interface{ Ping(context.Context) error }
	closer   func() error
}

func newBackend(ctx context.Context, c *config.Config, logger logging.Logger) (*backend, error) {
	switch c.Mode {
	case config.ModeLocal:
		db, m, err := client.InitDatabase(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error initializing database: %w", err)
		}
		st := store.NewDocumentStore(db, m.Contacts, changefeed.NewLocal(), logger, c.PrefixLimit)
		ids := identity.NewService(db, m.Users, identity.Config{
			SecretKey:                   []byte(c.TokenSecret),
			FederationSecret:            []byte(c.FederationSecret),
			AccessTokenValidityDuration: c.AccessTokenValidityDuration,
		}, logger)
		return &backend{gateway: st, provider: ids, closer: db.Close}, nil

	case config.ModeRemote:
		gc, err := client.NewGRPCClient(c.ServerEndpointAddr, logger, c.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("error creating grpc client: %w", err)
		}
		return &backend{gateway: gc, provider: gc, pinger: gc, closer: gc.Close}, nil

	default:
		return nil, fmt.Errorf("unknown mode %q", c.Mode)
	}
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, "text", c.LogLevel)
	return newApp(context.Background(), c, logger, os.Stdin, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	b, err := newBackend(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		config:   c,
		logger:   logger,
		auth:     services.NewAuthService(b.provider, logger),
		contacts: services.NewContactService(b.gateway, logger),
		pinger:   b.pinger,
		closer:   b.closer,
		reader:   bufio.NewReader(in),
		out:      out,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.println("Welcome to the contacts CLI (type 'help' for commands)")
	if a.pinger != nil {
		if err := a.pinger.Ping(ctx); err != nil {
			a.println("Server is not reachable:", err)
		}
	}

	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) Close() error {
	a.stopContacts()
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

func (a *App) status() string {
	mode := a.config.Mode
	sess := a.auth.Session()
	who := "signed out"
	switch {
	case sess == nil:
	case sess.Anonymous:
		who = "anonymous"
	default:
		who = sess.Email
	}
	if f := a.contacts.Filter(); f != "" {
		return fmt.Sprintf("(%s %s filter=%q)", who, mode, f)
	}
	return fmt.Sprintf("(%s %s)", who, mode)
}

func (a *App) isSignedIn() bool {
	return a.auth.Session() != nil
}

func (a *App) setIdle(idle bool) {
	a.idle.Store(idle)
}

// Write serializes output from commands and subscription pushes.
func (a *App) Write(p []byte) (int, error) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.out.Write(p)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a, args...)
}

// onListChange re-renders pushes that arrive while the prompt waits for input.
func (a *App) onListChange(list []models.Contact) {
	if !a.idle.Load() {
		return
	}
	a.println()
	a.println("Contacts changed:")
	a.render(list)
}

func (a *App) startContacts(ctx context.Context) error {
	a.stopContacts()
	if err := a.contacts.Start(ctx); err != nil {
		return err
	}
	a.unwatch = a.contacts.Contacts().Watch(a.onListChange)
	return nil
}

func (a *App) stopContacts() {
	if a.unwatch != nil {
		a.unwatch()
		a.unwatch = nil
	}
	a.contacts.Close()
}
