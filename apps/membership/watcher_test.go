package main

import (
	"context"
	"testing"
	"time"

	"github.com/anvit/clubhub/pkg/channel"
	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/policy"
	"github.com/anvit/clubhub/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherAnnouncesJoin(t *testing.T) {
	bus := feed.NewBus()
	mem := store.NewMemory(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWatcher(bus, mem)
	go w.Run(ctx)

	// Give the subscription a moment to attach before publishing.
	time.Sleep(20 * time.Millisecond)

	ev, err := feed.NewEvent(feed.TableProfiles, model.Profile{ID: "u-dana", Username: "dana"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ev))

	reader := policy.Actor{ID: "someone", Role: policy.RoleMember}
	require.Eventually(t, func() bool {
		msgs, err := mem.MessagesForChannel(ctx, reader, channel.Group())
		require.NoError(t, err)
		return len(msgs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	msgs, err := mem.MessagesForChannel(ctx, reader, channel.Group())
	require.NoError(t, err)
	assert.Equal(t, "dana joined the chat", msgs[0].Content)
	assert.Equal(t, model.TypeSystem, msgs[0].Type)
}

func TestWatcherSkipsMalformedEvents(t *testing.T) {
	bus := feed.NewBus()
	mem := store.NewMemory(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWatcher(bus, mem)
	go w.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, bus.Publish(ctx, feed.Event{Table: feed.TableProfiles, NewRow: []byte(`{"id":"x"}`)}))

	time.Sleep(50 * time.Millisecond)
	msgs, err := mem.MessagesForChannel(ctx, policy.Actor{ID: "r", Role: policy.RoleMember}, channel.Group())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
