package channel

import (
	"testing"

	"github.com/anvit/clubhub/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestTargetID(t *testing.T) {
	assert.Equal(t, "group", Group().ID("alice"))
	assert.Equal(t, "dm:alice:bob", Direct("bob").ID("alice"))
	// Same channel key regardless of which side resolves it.
	assert.Equal(t, Direct("bob").ID("alice"), Direct("alice").ID("bob"))
}

func TestGroupMatches(t *testing.T) {
	g := Group()
	assert.True(t, g.Matches("alice", model.Message{IsGroupMessage: true, SenderID: "bob"}))
	assert.False(t, g.Matches("alice", model.Message{SenderID: "bob", ReceiverID: "alice"}))
}

func TestDirectMatches(t *testing.T) {
	d := Direct("bob")
	assert.True(t, d.Matches("alice", model.Message{SenderID: "alice", ReceiverID: "bob"}))
	assert.True(t, d.Matches("alice", model.Message{SenderID: "bob", ReceiverID: "alice"}))
	// Other conversations never leak into this channel.
	assert.False(t, d.Matches("alice", model.Message{SenderID: "bob", ReceiverID: "carol"}))
	assert.False(t, d.Matches("alice", model.Message{SenderID: "carol", ReceiverID: "alice"}))
	assert.False(t, d.Matches("alice", model.Message{IsGroupMessage: true, SenderID: "bob"}))
}

func TestStamp(t *testing.T) {
	g := Group().Stamp("alice", "hello")
	assert.True(t, g.IsGroupMessage)
	assert.Empty(t, g.ReceiverID)
	assert.Equal(t, "alice", g.SenderID)
	assert.Equal(t, model.TypeUser, g.Type)
	assert.NoError(t, g.Validate())

	d := Direct("bob").Stamp("alice", "hey")
	assert.False(t, d.IsGroupMessage)
	assert.Equal(t, "bob", d.ReceiverID)
	assert.NoError(t, d.Validate())
}
