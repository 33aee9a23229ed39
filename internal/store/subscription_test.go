package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/changefeed"
	"github.com/dmitrijs2005/gophcontacts/internal/dbx"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
	"github.com/dmitrijs2005/gophcontacts/internal/repositories/contacts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []models.Contact) []models.Contact {
	t.Helper()
	select {
	case list := <-ch:
		return list
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery")
		return nil
	}
}

func TestSubscribe_FiresImmediatelyAndOnChange(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	mustCreate(t, s, "Ann", "Lee")

	ch := make(chan []models.Contact, 16)
	sub, err := s.Subscribe(ctx, func(list []models.Contact) { ch <- list })
	require.NoError(t, err)
	defer sub.Cancel()

	assert.Equal(t, []string{"Ann Lee"}, fullNames(receive(t, ch)))

	mustCreate(t, s, "Bob", "Stone")
	list := receive(t, ch)
	for len(list) != 2 {
		list = receive(t, ch)
	}
	assert.ElementsMatch(t, []string{"Ann Lee", "Bob Stone"}, fullNames(list))
}

func TestSubscribe_NoCallbacksAfterCancel(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	var calls atomic.Int32
	sub, err := s.Subscribe(ctx, func([]models.Contact) { calls.Add(1) })
	require.NoError(t, err)

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, time.Millisecond)

	sub.Cancel()
	sub.Cancel()
	after := calls.Load()

	mustCreate(t, s, "Ann", "Lee")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestSubscribe_ContextEndStops(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	_, err := s.Subscribe(ctx, func([]models.Contact) { calls.Add(1) })
	require.NoError(t, err)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	mustCreate(t, s, "Ann", "Lee")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

type flakyRepo struct {
	contacts.Repository
	fail *atomic.Bool
}

func (r flakyRepo) GetAll(ctx context.Context) ([]models.Contact, error) {
	if r.fail.Load() {
		return nil, errors.New("query failed")
	}
	return r.Repository.GetAll(ctx)
}

func TestSubscribe_QueryErrorIsLoggedAndSubscriptionSurvives(t *testing.T) {
	fail := &atomic.Bool{}
	repos := func(db dbx.DBTX) contacts.Repository {
		return flakyRepo{Repository: contacts.NewSQLiteRepository(db), fail: fail}
	}
	logger := &recordingLogger{}
	feed := changefeed.NewLocal()
	s := NewDocumentStore(setupDB(t), repos, feed, logger, 0)
	ctx := context.Background()

	ch := make(chan []models.Contact, 16)
	sub, err := s.Subscribe(ctx, func(list []models.Contact) { ch <- list })
	require.NoError(t, err)
	defer sub.Cancel()
	receive(t, ch)

	fail.Store(true)
	mustCreate(t, s, "Ann", "Lee")
	require.Eventually(t, func() bool { return logger.count() >= 1 }, 2*time.Second, time.Millisecond)

	fail.Store(false)
	require.NoError(t, feed.Publish(ctx, "contacts"))
	assert.Equal(t, []string{"Ann Lee"}, fullNames(receive(t, ch)))
}

type brokenListenFeed struct {
	changefeed.Feed
}

func (brokenListenFeed) Listen(context.Context, string, changefeed.Handler) (func(), error) {
	return nil, errors.New("listen failed")
}

func TestSubscribe_ListenError(t *testing.T) {
	s := NewDocumentStore(setupDB(t), sqliteRepos, brokenListenFeed{}, &recordingLogger{}, 0)

	sub, err := s.Subscribe(context.Background(), func([]models.Contact) {})
	assert.Error(t, err)
	assert.Nil(t, sub)
}

func TestDelivery_CancelWaitsForInFlightCall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var stopped atomic.Bool

	d := NewDelivery(func([]models.Contact) {
		close(started)
		<-release
	}, func() { stopped.Store(true) })

	go d.Deliver(nil)
	<-started

	canceled := make(chan struct{})
	go func() {
		d.Cancel()
		close(canceled)
	}()

	select {
	case <-canceled:
		t.Fatal("Cancel returned while onChange was running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	<-canceled
	assert.True(t, stopped.Load())

	called := false
	d.onChange = func([]models.Contact) { called = true }
	d.Deliver(nil)
	assert.False(t, called)
}
