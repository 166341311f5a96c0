package notify

import (
	"testing"

	"github.com/anvit/clubhub/pkg/model"
	"github.com/stretchr/testify/assert"
)

type captured struct {
	title, body string
}

func capture(into *[]captured) Sink {
	return SinkFunc(func(title, body string) {
		*into = append(*into, captured{title, body})
	})
}

func inbound(content string) model.Message {
	return model.Message{Content: content, SenderID: "bob", IsGroupMessage: true, Type: model.TypeUser}
}

func TestNoNotificationBeforeGrant(t *testing.T) {
	var got []captured
	d := NewDispatcher()
	d.Init(capture(&got))

	d.HandleMessage(inbound("hi"), "alice", "bob")
	assert.Empty(t, got)

	d.Request(false)
	d.HandleMessage(inbound("hi"), "alice", "bob")
	assert.Empty(t, got)
}

func TestGrantedUserMessageFormat(t *testing.T) {
	var got []captured
	d := NewDispatcher()
	d.Init(capture(&got))
	d.Request(true)

	d.HandleMessage(inbound("hello there"), "alice", "bob")
	assert.Equal(t, []captured{{"clubhub", "bob: hello there"}}, got)
}

func TestSystemMessageBodyIsPlainContent(t *testing.T) {
	var got []captured
	d := NewDispatcher()
	d.Init(capture(&got))
	d.Request(true)

	m := model.Message{
		Content:        "carol joined the chat",
		SenderID:       "system",
		IsGroupMessage: true,
		Type:           model.TypeSystem,
	}
	d.HandleMessage(m, "alice", "")
	assert.Equal(t, []captured{{"clubhub", "carol joined the chat"}}, got)
}

func TestOwnMessagesNeverNotify(t *testing.T) {
	var got []captured
	d := NewDispatcher()
	d.Init(capture(&got))
	d.Request(true)

	m := inbound("mine")
	m.SenderID = "alice"
	d.HandleMessage(m, "alice", "alice")
	assert.Empty(t, got)
}

func TestInvisibleMessagesNeverNotify(t *testing.T) {
	var got []captured
	d := NewDispatcher()
	d.Init(capture(&got))
	d.Request(true)

	m := model.Message{Content: "x", SenderID: "bob", ReceiverID: "carol", Type: model.TypeUser}
	d.HandleMessage(m, "alice", "bob")
	assert.Empty(t, got)
}

func TestPermissionAnswerIsSticky(t *testing.T) {
	d := NewDispatcher()
	d.Init(capture(&[]captured{}))

	d.Request(false)
	d.Request(true) // too late, the session already answered
	assert.Equal(t, PermissionDenied, d.Permission())
}

func TestTeardownResets(t *testing.T) {
	var got []captured
	d := NewDispatcher()
	d.Init(capture(&got))
	d.Request(true)
	d.Teardown()

	d.HandleMessage(inbound("hi"), "alice", "bob")
	assert.Empty(t, got)
	assert.Equal(t, PermissionDefault, d.Permission())
}

func TestOneNotificationPerMessage(t *testing.T) {
	var got []captured
	d := NewDispatcher()
	d.Init(capture(&got))
	d.Request(true)

	for i := 0; i < 3; i++ {
		d.HandleMessage(inbound("burst"), "alice", "bob")
	}
	assert.Len(t, got, 3)
}
