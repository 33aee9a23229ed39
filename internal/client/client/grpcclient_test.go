package client

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/changefeed"
	"github.com/dmitrijs2005/gophcontacts/internal/common"
	"github.com/dmitrijs2005/gophcontacts/internal/dbx"
	"github.com/dmitrijs2005/gophcontacts/internal/identity"
	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/dmitrijs2005/gophcontacts/internal/migrations"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/contacts"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/users"
	gs "github.com/dmitrijs2005/gophcontacts/internal/server/grpc"
	"github.com/dmitrijs2005/gophcontacts/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	_ "modernc.org/sqlite"
)

func newTestClient(t *testing.T) *GRPCClient {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db, migrations.DialectSQLite))

	st := store.NewDocumentStore(db,
		func(db dbx.DBTX) contacts.Repository { return contacts.NewSQLiteRepository(db) },
		changefeed.NewLocal(), logging.Nop{}, 0)
	ids := identity.NewService(db,
		func(db dbx.DBTX) users.Repository { return users.NewSQLiteRepository(db) },
		identity.Config{SecretKey: []byte("secret"), FederationSecret: []byte("fed"), AccessTokenValidityDuration: time.Hour},
		logging.Nop{})
	reg := prometheus.NewRegistry()

	lis := bufconn.Listen(1 << 20)
	srv := gs.NewGRPCServer("bufnet", logging.Nop{}, st, ids, gs.NewMetrics(reg, reg)).NewServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", logging.Nop{}, time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"not found", status.Error(codes.NotFound, "contact not found: Ann Lee"), common.ErrorNotFound},
		{"exists", status.Error(codes.AlreadyExists, "x"), common.ErrAlreadyExists},
		{"invalid", status.Error(codes.InvalidArgument, "x"), common.ErrValidation},
		{"unauth", status.Error(codes.Unauthenticated, "x"), common.ErrorUnauthorized},
		{"unavailable", status.Error(codes.Unavailable, "x"), ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "x"), ErrUnavailable},
		{"other", status.Error(codes.Internal, "x"), common.ErrorInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.in), tt.want)
		})
	}

	assert.NoError(t, mapError(nil))
	plain := errors.New("plain")
	assert.Equal(t, plain, mapError(plain))
	assert.EqualError(t, mapError(status.Error(codes.NotFound, "contact not found: Ann Lee")), "contact not found: Ann Lee")
}

func TestPing(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.Ping(context.Background()))
}

func TestContactsRequireSession(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.QueryAll(ctx)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = c.Subscribe(ctx, func([]models.Contact) {})
	assert.ErrorIs(t, err, ErrNotSignedIn)

	assert.ErrorIs(t, c.SignOut(ctx), ErrNotSignedIn)
}

func TestGatewayRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	sess, err := c.SignInAnonymously(ctx)
	require.NoError(t, err)
	assert.True(t, sess.Anonymous)
	assert.Equal(t, sess, c.Session())

	ann, err := c.Create(ctx, models.NewContact("Ann", "Lee"))
	require.NoError(t, err)
	assert.NotEmpty(t, ann.ID)

	_, err = c.Create(ctx, models.NewContact("Bob", "Annis"))
	require.NoError(t, err)

	list, err := c.QueryByPrefix(ctx, "Ann")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, c.UpdateByIdentity(ctx, ann, ann.WithNames("Anna", "Li")))
	require.NoError(t, c.RemoveByIdentity(ctx, models.NewContact("Bob", "Annis")))

	err = c.RemoveByIdentity(ctx, models.NewContact("Bob", "Annis"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.EqualError(t, err, "contact not found: Bob Annis")

	list, err = c.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Anna Li", list[0].FullName())

	require.NoError(t, c.SignOut(ctx))
	assert.Nil(t, c.Session())
}

func TestPasswordAccounts(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.SignUpWithPassword(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	_, err = c.SignUpWithPassword(ctx, "ann@example.com", "secret1")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = c.SignInWithPassword(ctx, "ann@example.com", "wrong!")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	sess, err := c.SignInWithPassword(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", sess.Email)
}

func TestFederatedSignIn(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	tok, err := identity.SignFederatedToken("google-1", "ann@example.com", true, []byte("fed"), time.Minute)
	require.NoError(t, err)

	sess, err := c.SignInWithFederatedToken(ctx, tok)
	require.NoError(t, err)
	assert.True(t, sess.EmailVerified)

	_, err = c.SignInWithFederatedToken(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestSubscribe_DeliversSnapshots(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.SignInAnonymously(ctx)
	require.NoError(t, err)

	got := make(chan []models.Contact, 8)
	sub, err := c.Subscribe(ctx, func(list []models.Contact) { got <- list })
	require.NoError(t, err)
	defer sub.Cancel()

	next := func() []models.Contact {
		select {
		case l := <-got:
			return l
		case <-time.After(3 * time.Second):
			t.Fatal("no snapshot delivered")
			return nil
		}
	}

	assert.Empty(t, next())

	_, err = c.Create(ctx, models.NewContact("Ann", "Lee"))
	require.NoError(t, err)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case l := <-got:
			if len(l) == 1 {
				assert.Equal(t, "Ann Lee", l[0].FullName())
				sub.Cancel()
				return
			}
		case <-deadline:
			t.Fatal("change was not delivered")
		}
	}
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.SignInAnonymously(ctx)
	require.NoError(t, err)

	got := make(chan []models.Contact, 8)
	sub, err := c.Subscribe(ctx, func(list []models.Contact) { got <- list })
	require.NoError(t, err)

	select {
	case <-got:
	case <-time.After(3 * time.Second):
		t.Fatal("no initial snapshot")
	}
	sub.Cancel()

	_, err = c.Create(ctx, models.NewContact("Ann", "Lee"))
	require.NoError(t, err)

	select {
	case l := <-got:
		t.Fatalf("callback after cancel: %v", l)
	case <-time.After(200 * time.Millisecond):
	}
}
