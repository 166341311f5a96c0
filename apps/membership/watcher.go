package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/store"
)

// Watcher reacts to membership-lifecycle events: every new profile row gets
// announced with a system message in the group channel. Consumer-group
// semantics guarantee the announcement is produced once cluster-wide even
// with multiple watcher instances.
type Watcher struct {
	feed  feed.Feed
	store store.Store
}

func NewWatcher(f feed.Feed, st store.Store) *Watcher {
	return &Watcher{feed: f, store: st}
}

func (w *Watcher) Run(ctx context.Context) error {
	sub, err := w.feed.Subscribe(ctx, feed.TableProfiles)
	if err != nil {
		return err
	}
	defer sub.Close()

	for ev := range sub.Events() {
		var p model.Profile
		if err := json.Unmarshal(ev.NewRow, &p); err != nil {
			log.Printf("Failed to unmarshal profile event: %v", err)
			continue
		}
		if p.Username == "" {
			continue
		}

		msg, err := w.store.InsertSystemMessage(ctx, p.Username+" joined the chat")
		if err != nil {
			log.Printf("Failed to insert join message for %s: %v", p.Username, err)
			continue
		}
		log.Printf("Join announced: %s (message %s)", p.Username, msg.ID)
	}
	return ctx.Err()
}
