// Package feed is the realtime change-feed: an append-only stream of
// row-insert events published by the store after every committed write and
// consumed by subscription managers, the gateway fanout, and the membership
// watcher.
package feed

import (
	"context"
	"encoding/json"
)

// Tables that emit change events.
const (
	TableMessages = "chat_messages"
	TableProfiles = "profiles"
)

// Event is the wire envelope for one committed row insert.
type Event struct {
	Table  string          `json:"table"`
	NewRow json.RawMessage `json:"new_row"`
}

func NewEvent(table string, row any) (Event, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return Event{}, err
	}
	return Event{Table: table, NewRow: raw}, nil
}

// Publisher is the producing side of the feed. Implementations must only be
// called after the row is committed to storage.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Feed is the consuming side: a durable stream of events for one table.
type Feed interface {
	Subscribe(ctx context.Context, table string) (Subscription, error)
}

// Subscription is one open stream. Events is closed when the stream ends,
// whether by Close or by transport failure.
type Subscription interface {
	Events() <-chan Event
	Close() error
}
