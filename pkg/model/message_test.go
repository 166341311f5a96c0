package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageValidate(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		ok   bool
	}{
		{name: "group", msg: Message{Content: "hi", SenderID: "a", IsGroupMessage: true}, ok: true},
		{name: "direct", msg: Message{Content: "hi", SenderID: "a", ReceiverID: "b"}, ok: true},
		{name: "both routes set", msg: Message{Content: "hi", SenderID: "a", ReceiverID: "b", IsGroupMessage: true}, ok: false},
		{name: "no route", msg: Message{Content: "hi", SenderID: "a"}, ok: false},
		{name: "empty content", msg: Message{Content: "   ", SenderID: "a", IsGroupMessage: true}, ok: false},
		{name: "no sender", msg: Message{Content: "hi", IsGroupMessage: true}, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestChannelID(t *testing.T) {
	g := Message{Content: "x", SenderID: "a", IsGroupMessage: true}
	assert.Equal(t, GroupChannelID, g.ChannelID())

	// Both directions of a DM land in the same channel.
	m1 := Message{Content: "x", SenderID: "zoe", ReceiverID: "amy"}
	m2 := Message{Content: "x", SenderID: "amy", ReceiverID: "zoe"}
	assert.Equal(t, "dm:amy:zoe", m1.ChannelID())
	assert.Equal(t, m1.ChannelID(), m2.ChannelID())
}

func TestCommentValidate(t *testing.T) {
	base := Comment{ID: "c1", UserID: "u1", Content: "nice"}

	both := base
	both.ScheduleID = "s1"
	both.PollID = "p1"
	assert.ErrorIs(t, both.Validate(), ErrBadParent)

	neither := base
	assert.ErrorIs(t, neither.Validate(), ErrBadParent)

	schedule := base
	schedule.ScheduleID = "s1"
	assert.NoError(t, schedule.Validate())

	poll := base
	poll.PollID = "p1"
	assert.NoError(t, poll.Validate())
}

func TestProvisionalIDs(t *testing.T) {
	id := ProvisionalID("42")
	assert.True(t, IsProvisional(id))
	assert.False(t, IsProvisional("183749274615234"))
}
