package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophcontacts/internal/changefeed"
	"github.com/dmitrijs2005/gophcontacts/internal/models"
)

// Delivery is a Subscription that serializes onChange calls and guarantees
// none happens once Cancel has returned.
type Delivery struct {
	onChange func([]models.Contact)

	// mu is held while onChange runs, so Cancel waits for an in-flight call.
	mu       sync.Mutex
	canceled bool

	once sync.Once
	stop func()
}

// NewDelivery wraps onChange. stop runs once on Cancel, before the
// subscription is marked canceled.
func NewDelivery(onChange func([]models.Contact), stop func()) *Delivery {
	return &Delivery{onChange: onChange, stop: stop}
}

func (d *Delivery) Cancel() {
	d.once.Do(func() {
		d.stop()
		d.mu.Lock()
		d.canceled = true
		d.mu.Unlock()
	})
}

// Deliver calls onChange unless the subscription was canceled.
func (d *Delivery) Deliver(list []models.Contact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.canceled {
		return
	}
	d.onChange(list)
}

// Subscribe listens on the change feed and re-queries the whole collection for
// every burst of events. A failed re-query is logged and the subscription
// keeps running. It ends on Cancel or when ctx is done.
func (s *DocumentStore) Subscribe(ctx context.Context, onChange func([]models.Contact)) (Subscription, error) {
	ctx, stop := context.WithCancel(ctx)

	// Buffered so bursts of events coalesce into one pending re-query.
	kick := make(chan struct{}, 1)
	kick <- struct{}{}

	stopFeed, err := s.feed.Listen(ctx, s.collection, func(changefeed.Event) {
		select {
		case kick <- struct{}{}:
		default:
		}
	})
	if err != nil {
		stop()
		return nil, err
	}

	d := NewDelivery(onChange, func() {
		stopFeed()
		stop()
	})
	go s.watch(ctx, d, kick)
	return d, nil
}

func (s *DocumentStore) watch(ctx context.Context, d *Delivery, kick <-chan struct{}) {
	defer d.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-kick:
		}

		list, err := s.QueryAll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error(ctx, "subscription error", "collection", s.collection, "error", err)
			continue
		}
		d.Deliver(list)
	}
}
