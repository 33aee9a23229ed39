// Package changefeed tells document store instances that a collection changed.
//
// Events carry no payload beyond the collection name: listeners re-query the
// store. Local fans out inside one process; Redis spans processes.
package changefeed

import (
	"context"
)

// Event is delivered to listeners after a committed write.
type Event struct {
	Collection string `json:"collection"`
	// Origin identifies the publishing feed instance.
	Origin string `json:"origin,omitempty"`
	// At is the publish time in Unix nanoseconds.
	At int64 `json:"at"`
}

// Handler receives events. It runs on the feed's delivery goroutine and must
// not block.
type Handler func(Event)

type Feed interface {
	Publish(ctx context.Context, collection string) error
	// Listen registers fn for events on collection until cancel is called or
	// ctx is done. After cancel returns fn is not invoked again.
	Listen(ctx context.Context, collection string, fn Handler) (cancel func(), err error)
}
