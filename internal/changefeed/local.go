package changefeed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Local is an in-process Feed.
type Local struct {
	origin string

	mu        sync.RWMutex
	nextID    int
	listeners map[string]map[int]Handler
}

func NewLocal() *Local {
	return &Local{
		origin:    uuid.NewString(),
		listeners: make(map[string]map[int]Handler),
	}
}

// Publish calls every listener of collection synchronously.
func (l *Local) Publish(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ev := Event{Collection: collection, Origin: l.origin, At: time.Now().UTC().UnixNano()}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, fn := range l.listeners[collection] {
		fn(ev)
	}
	return nil
}

func (l *Local) Listen(ctx context.Context, collection string, fn Handler) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	if l.listeners[collection] == nil {
		l.listeners[collection] = make(map[int]Handler)
	}
	l.listeners[collection][id] = fn
	l.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			l.mu.Lock()
			delete(l.listeners[collection], id)
			if len(l.listeners[collection]) == 0 {
				delete(l.listeners, collection)
			}
			l.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return cancel, nil
}
