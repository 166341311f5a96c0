package policy

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/anvit/clubhub/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestAllowTable(t *testing.T) {
	admin := Actor{ID: "adm", Role: RoleAdmin}
	member := Actor{ID: "mem", Role: RoleMember}

	group := MessageRow{Row: model.Message{Content: "x", SenderID: "other", IsGroupMessage: true}}
	dmToMem := MessageRow{Row: model.Message{Content: "x", SenderID: "other", ReceiverID: "mem"}}
	dmElsewhere := MessageRow{Row: model.Message{Content: "x", SenderID: "a", ReceiverID: "b"}}

	cases := []struct {
		name  string
		actor Actor
		res   Resource
		op    Operation
		allow bool
	}{
		{"group message readable by anyone", member, group, OpRead, true},
		{"dm readable by receiver", member, dmToMem, OpRead, true},
		{"dm hidden from third party", member, dmElsewhere, OpRead, false},
		{"dm hidden even from admin", admin, dmElsewhere, OpRead, false},
		{"insert own message", member, MessageRow{Row: model.Message{SenderID: "mem", IsGroupMessage: true}}, OpInsert, true},
		{"insert spoofed sender", member, MessageRow{Row: model.Message{SenderID: "other", IsGroupMessage: true}}, OpInsert, false},
		{"messages are append-only", member, dmToMem, OpUpdate, false},
		{"messages cannot be deleted", admin, group, OpDelete, false},

		{"schedule read open", member, ScheduleRow{}, OpRead, true},
		{"schedule write admin only", member, ScheduleRow{}, OpInsert, false},
		{"schedule write by admin", admin, ScheduleRow{}, OpInsert, true},
		{"schedule delete by admin", admin, ScheduleRow{}, OpDelete, true},
		{"poll write admin only", member, PollRow{}, OpUpdate, false},
		{"poll write by admin", admin, PollRow{}, OpUpdate, true},

		{"comment insert as self", member, CommentRow{Row: model.Comment{UserID: "mem"}}, OpInsert, true},
		{"comment insert as other", member, CommentRow{Row: model.Comment{UserID: "other"}}, OpInsert, false},
		{"comment delete by author", member, CommentRow{Row: model.Comment{UserID: "mem"}}, OpDelete, true},
		{"comment delete by non-author admin", admin, CommentRow{Row: model.Comment{UserID: "mem"}}, OpDelete, false},

		{"vote insert as self", member, VoteRow{Row: model.Vote{UserID: "mem"}}, OpInsert, true},
		{"vote insert as other", member, VoteRow{Row: model.Vote{UserID: "other"}}, OpInsert, false},
		{"vote update own row", member, VoteRow{Row: model.Vote{UserID: "mem"}}, OpUpdate, true},
		{"vote update foreign row", member, VoteRow{Row: model.Vote{UserID: "other"}}, OpUpdate, false},

		{"role read open", member, RoleRow{UserID: "mem"}, OpRead, true},
		{"role write member denied", member, RoleRow{UserID: "mem"}, OpInsert, false},
		{"role write admin allowed", admin, RoleRow{UserID: "mem"}, OpInsert, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allow, Allow(tc.actor, tc.res, tc.op))
		})
	}
}

func TestAllowRejectsAnonymous(t *testing.T) {
	anon := Actor{Role: RoleAdmin} // role without identity is meaningless
	assert.False(t, Allow(anon, ScheduleRow{}, OpRead))
	assert.False(t, Allow(anon, MessageRow{Row: model.Message{IsGroupMessage: true}}, OpRead))
}

// Read visibility must match the visibility predicate exactly:
// visible(M, U) = isGroup(M) or sender(M)=U or receiver(M)=U.
func TestMessageVisibilityProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	users := []string{"u0", "u1", "u2", "u3", "u4"}

	for i := 0; i < 2000; i++ {
		sender := users[rng.Intn(len(users))]
		m := model.Message{Content: "x", SenderID: sender, Type: model.TypeUser}
		if rng.Intn(2) == 0 {
			m.IsGroupMessage = true
		} else {
			m.ReceiverID = users[rng.Intn(len(users))]
		}

		u := users[rng.Intn(len(users))]
		want := m.IsGroupMessage || m.SenderID == u || m.ReceiverID == u
		got := Allow(Actor{ID: u, Role: RoleMember}, MessageRow{Row: m}, OpRead)
		if got != want {
			t.Fatalf("case %d: visibility mismatch for %s: got %v want %v (msg %+v)",
				i, u, got, want, m)
		}
	}
}

func TestNormalize(t *testing.T) {
	for in, want := range map[string]Role{
		"admin":  RoleAdmin,
		"member": RoleMember,
		"":       RoleMember,
		"root":   RoleMember,
	} {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			assert.Equal(t, want, Normalize(in))
		})
	}
}
