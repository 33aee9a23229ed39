package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/changefeed"
	"github.com/dmitrijs2005/gophcontacts/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseDSN = filepath.Join(t.TempDir(), "contacts.db")
	cfg.EndpointAddrGRPC = "127.0.0.1:0"
	cfg.MetricsAddr = ""
	cfg.LogLevel = "error"
	if mutate != nil {
		mutate(cfg)
	}
	app, err := NewApp(cfg)
	require.NoError(t, err)
	return app
}

func TestNewApp_NilConfig(t *testing.T) {
	_, err := NewApp(nil)
	assert.Error(t, err)
}

func TestDriverName(t *testing.T) {
	d, err := driverName("postgres")
	require.NoError(t, err)
	assert.Equal(t, "pgx", d)

	d, err = driverName("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d)

	_, err = driverName("oracle")
	assert.Error(t, err)
}

func TestOpenDatabase_SQLiteRunsMigrations(t *testing.T) {
	app := newTestApp(t, nil)
	ctx := context.Background()

	db, m, err := app.openDatabase(ctx)
	require.NoError(t, err)
	defer db.Close()

	all, err := m.Contacts(db).GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenDatabase_UnknownDriver(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.DatabaseDriver = "oracle" })

	_, _, err := app.openDatabase(context.Background())
	assert.Error(t, err)
}

func TestNewFeed(t *testing.T) {
	app := newTestApp(t, nil)

	feed, closeFeed, err := app.newFeed(context.Background())
	require.NoError(t, err)
	defer closeFeed()
	assert.IsType(t, &changefeed.Local{}, feed)

	app = newTestApp(t, func(c *config.Config) { c.RedisAddr = "127.0.0.1:1" })
	_, _, err = app.newFeed(context.Background())
	assert.Error(t, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app := newTestApp(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
