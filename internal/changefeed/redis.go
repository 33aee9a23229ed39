package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTopicPrefix = "contacts:"
	initialBackoff     = time.Second
	maxBackoffDelay    = 30 * time.Second
)

// Redis is a Feed over Redis Pub/Sub. Every write by any instance sharing the
// server reaches every listener.
type Redis struct {
	client      *redis.Client
	logger      logging.Logger
	origin      string
	topicPrefix string
}

func NewRedis(client *redis.Client, logger logging.Logger) *Redis {
	return &Redis{
		client:      client,
		logger:      logger.With("module", "changefeed"),
		origin:      uuid.NewString(),
		topicPrefix: defaultTopicPrefix,
	}
}

func (r *Redis) topic(collection string) string {
	return r.topicPrefix + collection
}

// Publish sends a change event, retrying with exponential backoff until it
// succeeds or ctx ends.
func (r *Redis) Publish(ctx context.Context, collection string) error {
	if r == nil || r.client == nil {
		return errors.New("nil feed")
	}

	encoded, err := json.Marshal(Event{Collection: collection, Origin: r.origin, At: time.Now().UTC().UnixNano()})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	topic := r.topic(collection)
	backoff := initialBackoff
	for {
		err := r.client.Publish(ctx, topic, encoded).Err()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		r.logger.Warn(ctx, "redis publish failed; retrying", "topic", topic, "backoff", backoff, "error", err)
		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxBackoffDelay)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Listen subscribes to the collection topic. The first subscription must be
// confirmed by the server; later interruptions are retried in the background.
func (r *Redis) Listen(ctx context.Context, collection string, fn Handler) (func(), error) {
	topic := r.topic(collection)

	pubsub := r.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.run(ctx, topic, pubsub, fn)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}, nil
}

func (r *Redis) run(ctx context.Context, topic string, pubsub *redis.PubSub, fn Handler) {
	backoff := initialBackoff
	for {
		err := r.consume(ctx, pubsub, fn)
		if ctx.Err() != nil {
			return
		}
		r.logger.Warn(ctx, "redis subscription interrupted; retrying", "topic", topic, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff = min(backoff*2, maxBackoffDelay)
		}
		pubsub = r.client.Subscribe(ctx, topic)
	}
}

func (r *Redis) consume(ctx context.Context, pubsub *redis.PubSub, fn Handler) error {
	defer pubsub.Close()

	ch := pubsub.Channel(redis.WithChannelSize(64))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				r.logger.Warn(ctx, "failed to process change event", "topic", msg.Channel, "error", err)
				continue
			}
			fn(ev)
		}
	}
}

func decodeEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode payload: %w", err)
	}
	if ev.Collection == "" {
		return Event{}, errors.New("incomplete payload")
	}
	return ev, nil
}
