// Package server wires and runs the contacts server: the document store over
// Postgres or SQLite, the change feed over Redis or in-process, the identity
// provider, the gRPC endpoint and the Prometheus metrics endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/changefeed"
	"github.com/dmitrijs2005/gophcontacts/internal/identity"
	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophcontacts/internal/server/config"
	"github.com/dmitrijs2005/gophcontacts/internal/store"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophcontacts/internal/server/grpc"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type App struct {
	config *config.Config
	logger logging.Logger
}

func NewApp(c *config.Config) (*App, error) {
	if c == nil {
		return nil, errors.New("nil config")
	}
	logger := logging.New(os.Stdout, "json", c.LogLevel)
	return &App{config: c, logger: logger}, nil
}

// driverName maps the configured database kind onto a database/sql driver.
func driverName(kind string) (string, error) {
	switch kind {
	case "postgres", "pgx":
		return "pgx", nil
	case "sqlite":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", kind)
	}
}

func (app *App) openDatabase(ctx context.Context) (*sql.DB, repomanager.RepositoryManager, error) {
	driver, err := driverName(app.config.DatabaseDriver)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(driver, app.config.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	m, err := repomanager.New(driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}
	return db, m, nil
}

func (app *App) newFeed(ctx context.Context) (changefeed.Feed, func(), error) {
	if app.config.RedisAddr == "" {
		app.logger.Info(ctx, "change feed is in-process")
		return changefeed.NewLocal(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping error: %w", err)
	}

	app.logger.Info(ctx, "change feed is redis", "addr", app.config.RedisAddr)
	return changefeed.NewRedis(client, app.logger), func() { _ = client.Close() }, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startMetricsServer(ctx context.Context, m *gs.Metrics) {
	if app.config.MetricsAddr == "" {
		return
	}

	srv := m.NewMetricsServer(app.config.MetricsAddr)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server failed", "error", err)
	}
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	db, m, err := app.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	feed, closeFeed, err := app.newFeed(ctx)
	if err != nil {
		return err
	}
	defer closeFeed()

	st := store.NewDocumentStore(db, m.Contacts, feed, app.logger, app.config.PrefixLimit)
	ids := identity.NewService(db, m.Users, identity.Config{
		SecretKey:                   []byte(app.config.SecretKey),
		FederationSecret:            []byte(app.config.FederationSecret),
		AccessTokenValidityDuration: app.config.AccessTokenValidityDuration,
	}, app.logger)
	metrics := gs.DefaultMetrics()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, metrics)
	}()

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, st, ids, metrics)
	if err = s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}
	cancelFunc()

	wg.Wait()
	return err
}
