// Package channel maps a logical chat target (the shared group channel or a
// direct peer) to a store filter and to the shape of outgoing messages.
package channel

import (
	"github.com/anvit/clubhub/pkg/model"
)

// Target identifies a logical channel from the point of view of one user.
// The zero value is the group channel.
type Target struct {
	peer string
}

func Group() Target { return Target{} }

func Direct(peer string) Target { return Target{peer: peer} }

func (t Target) IsGroup() bool { return t.peer == "" }

func (t Target) Peer() string { return t.peer }

// ID returns the channel key used as the store partition and the fanout
// routing key: "group", or "dm:<lo>:<hi>" for the pair {self, peer}.
func (t Target) ID(self string) string {
	if t.IsGroup() {
		return model.GroupChannelID
	}
	return model.DMChannelID(self, t.peer)
}

// Matches is the filter predicate over messages: group target matches group
// messages, a peer target matches messages exchanged between self and peer
// in either direction. Re-evaluated per change-feed event to decide
// relevance to the active view.
func (t Target) Matches(self string, m model.Message) bool {
	if t.IsGroup() {
		return m.IsGroupMessage
	}
	if m.IsGroupMessage {
		return false
	}
	return (m.SenderID == self && m.ReceiverID == t.peer) ||
		(m.SenderID == t.peer && m.ReceiverID == self)
}

// Stamp fills the routing fields of an outgoing message for this target.
func (t Target) Stamp(self, content string) model.Message {
	return model.Message{
		Content:        content,
		SenderID:       self,
		ReceiverID:     t.peer,
		IsGroupMessage: t.IsGroup(),
		Type:           model.TypeUser,
	}
}
