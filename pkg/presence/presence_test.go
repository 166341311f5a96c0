package presence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *Tracker {
	s := miniredis.RunT(t)
	tr := NewTracker(s.Addr())
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestJoinLeaveMembers(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Join(ctx, "group", "alice"))
	require.NoError(t, tr.Join(ctx, "group", "bob"))
	require.NoError(t, tr.Join(ctx, "group", "alice")) // sets dedupe

	members, err := tr.Members(ctx, "group")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, members)

	require.NoError(t, tr.Leave(ctx, "group", "alice"))
	members, err = tr.Members(ctx, "group")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, members)
}

func TestChannelsIsolated(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Join(ctx, "group", "alice"))
	require.NoError(t, tr.Join(ctx, "dm:alice:bob", "bob"))

	members, err := tr.Members(ctx, "group")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, members)
}
