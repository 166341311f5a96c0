package model

import (
	"errors"
	"strings"
	"time"
)

type MessageType string

const (
	TypeUser   MessageType = "user"
	TypeSystem MessageType = "system"
)

// GroupChannelID is the channel key of the single shared channel.
const GroupChannelID = "group"

// localIDPrefix marks client-synthesized provisional ids. Server ids are
// decimal snowflake strings, so the two namespaces can never collide.
const localIDPrefix = "local-"

type Message struct {
	ID             string      `json:"id"`
	Content        string      `json:"content"`
	SenderID       string      `json:"sender_id"`
	ReceiverID     string      `json:"receiver_id,omitempty"`
	IsGroupMessage bool        `json:"is_group_message"`
	Type           MessageType `json:"type"`
	CreatedAt      time.Time   `json:"created_at"`
}

var ErrBadRouting = errors.New("message must be either a group message or carry a receiver, not both or neither")

// Validate checks the routing rule: exactly one of IsGroupMessage and
// ReceiverID holds.
func (m Message) Validate() error {
	if m.IsGroupMessage == (m.ReceiverID != "") {
		return ErrBadRouting
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("message content is empty")
	}
	if m.SenderID == "" {
		return errors.New("message has no sender")
	}
	return nil
}

// ChannelID computes the channel key a message belongs to: "group" for the
// shared channel, or "dm:<lo>:<hi>" with the participant pair sorted so both
// sides derive the same key.
func (m Message) ChannelID() string {
	if m.IsGroupMessage {
		return GroupChannelID
	}
	return DMChannelID(m.SenderID, m.ReceiverID)
}

func DMChannelID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "dm:" + a + ":" + b
}

// VisibleTo reports whether user u may see this message: group messages are
// visible to everyone, direct messages only to the two participants.
func (m Message) VisibleTo(u string) bool {
	return m.IsGroupMessage || m.SenderID == u || m.ReceiverID == u
}

// IsProvisional reports whether the id was synthesized locally by the
// optimistic send path and not yet confirmed by the server.
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

func ProvisionalID(suffix string) string {
	return localIDPrefix + suffix
}
