package store

import (
	"context"
	"testing"
	"time"

	"github.com/anvit/clubhub/pkg/channel"
	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = policy.Actor{ID: "alice", Role: policy.RoleMember}
	bob   = policy.Actor{ID: "bob", Role: policy.RoleMember}
	carol = policy.Actor{ID: "carol", Role: policy.RoleMember}
	admin = policy.Actor{ID: "root", Role: policy.RoleAdmin}
)

func TestInsertMessageAssignsServerFields(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	m, err := s.InsertMessage(ctx, alice, channel.Group().Stamp("alice", "hello"))
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.False(t, model.IsProvisional(m.ID))
	assert.False(t, m.CreatedAt.IsZero())
}

func TestInsertMessageRejectsSpoofedSender(t *testing.T) {
	s := NewMemory(nil)
	m := channel.Group().Stamp("alice", "hi")
	_, err := s.InsertMessage(context.Background(), bob, m)
	assert.ErrorIs(t, err, ErrPolicy)
}

func TestInsertMessageValidation(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	_, err := s.InsertMessage(ctx, alice, channel.Group().Stamp("alice", "   "))
	assert.ErrorIs(t, err, ErrValidation)

	both := channel.Direct("bob").Stamp("alice", "hi")
	both.IsGroupMessage = true
	_, err = s.InsertMessage(ctx, alice, both)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClientsCannotInsertSystemMessages(t *testing.T) {
	s := NewMemory(nil)
	m := channel.Group().Stamp("alice", "fake join")
	m.Type = model.TypeSystem
	_, err := s.InsertMessage(context.Background(), alice, m)
	assert.ErrorIs(t, err, ErrPolicy)
}

func TestDirectMessagesHiddenFromThirdParties(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	_, err := s.InsertMessage(ctx, alice, channel.Direct("bob").Stamp("alice", "secret"))
	require.NoError(t, err)

	// Both participants see the conversation.
	for _, actor := range []policy.Actor{alice, bob} {
		peer := "bob"
		if actor.ID == "bob" {
			peer = "alice"
		}
		msgs, err := s.MessagesForChannel(ctx, actor, channel.Direct(peer))
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "secret", msgs[0].Content)
	}

	// A third party querying the same pair gets nothing.
	msgs, err := s.MessagesForChannel(ctx, carol, channel.Direct("bob"))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMessagesOrderedByCreatedAt(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base.Add(2 * time.Second), base, base.Add(time.Second)}
	i := 0
	s.now = func() time.Time { t := times[i%len(times)]; i++; return t }

	for _, content := range []string{"third", "first", "second"} {
		_, err := s.InsertMessage(ctx, alice, channel.Group().Stamp("alice", content))
		require.NoError(t, err)
	}

	msgs, err := s.MessagesForChannel(ctx, alice, channel.Group())
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
}

func TestCreateProfileEmitsJoinMessage(t *testing.T) {
	bus := feed.NewBus()
	sub, err := bus.Subscribe(context.Background(), feed.TableMessages)
	require.NoError(t, err)
	defer sub.Close()

	s := NewMemory(bus)
	ctx := context.Background()

	_, err = s.CreateProfile(ctx, model.Profile{ID: "u-alice", Username: "alice"})
	require.NoError(t, err)

	msgs, err := s.MessagesForChannel(ctx, bob, channel.Group())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice joined the chat", msgs[0].Content)
	assert.Equal(t, model.TypeSystem, msgs[0].Type)
	assert.True(t, msgs[0].IsGroupMessage)

	// Exactly one feed event for the system message.
	select {
	case ev := <-sub.Events():
		assert.Equal(t, feed.TableMessages, ev.Table)
	case <-time.After(time.Second):
		t.Fatal("no message event published")
	}
	select {
	case <-sub.Events():
		t.Fatal("unexpected second message event")
	default:
	}
}

func TestCreateProfileDuplicate(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()
	_, err := s.CreateProfile(ctx, model.Profile{ID: "u1", Username: "alice"})
	require.NoError(t, err)
	_, err = s.CreateProfile(ctx, model.Profile{ID: "u1", Username: "alice"})
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestVoteExclusivity(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	p, err := s.CreatePoll(ctx, admin, model.Poll{Question: "kickoff time?"})
	require.NoError(t, err)

	v := model.Vote{PollID: p.ID, UserID: "alice", Choice: "18:00"}
	require.NoError(t, s.CastVote(ctx, alice, v))

	// Second insert for the same (poll, voter) pair fails outright.
	v.Choice = "20:00"
	assert.ErrorIs(t, s.CastVote(ctx, alice, v), ErrConstraint)

	// Changing the vote updates in place without a second row.
	require.NoError(t, s.ChangeVote(ctx, alice, v))
	votes, err := s.VotesFor(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "20:00", votes[0].Choice)
}

func TestVoteOwnership(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	p, err := s.CreatePoll(ctx, admin, model.Poll{Question: "venue?"})
	require.NoError(t, err)

	v := model.Vote{PollID: p.ID, UserID: "alice", Choice: "home"}
	assert.ErrorIs(t, s.CastVote(ctx, bob, v), ErrPolicy)

	require.NoError(t, s.CastVote(ctx, alice, v))
	assert.ErrorIs(t, s.ChangeVote(ctx, bob, v), ErrPolicy)
}

func TestChangeVoteWithoutExisting(t *testing.T) {
	s := NewMemory(nil)
	v := model.Vote{PollID: "p1", UserID: "alice", Choice: "x"}
	assert.ErrorIs(t, s.ChangeVote(context.Background(), alice, v), ErrNotFound)
}

func TestScheduleAndPollWritesAdminOnly(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	_, err := s.CreateSchedule(ctx, alice, model.Schedule{Title: "derby"})
	assert.ErrorIs(t, err, ErrPolicy)
	_, err = s.CreateSchedule(ctx, admin, model.Schedule{Title: "derby"})
	assert.NoError(t, err)

	_, err = s.CreatePoll(ctx, alice, model.Poll{Question: "mvp?"})
	assert.ErrorIs(t, err, ErrPolicy)
	_, err = s.CreatePoll(ctx, admin, model.Poll{Question: "mvp?"})
	assert.NoError(t, err)
}

func TestCommentParentExclusivityAtBoundary(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	both := model.Comment{UserID: "alice", Content: "x", ScheduleID: "s1", PollID: "p1"}
	_, err := s.InsertComment(ctx, alice, both)
	assert.ErrorIs(t, err, ErrValidation)

	neither := model.Comment{UserID: "alice", Content: "x"}
	_, err = s.InsertComment(ctx, alice, neither)
	assert.ErrorIs(t, err, ErrValidation)

	ok := model.Comment{UserID: "alice", Content: "x", ScheduleID: "s1"}
	_, err = s.InsertComment(ctx, alice, ok)
	assert.NoError(t, err)
}

func TestCommentDeleteByAuthorOnly(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	c, err := s.InsertComment(ctx, alice, model.Comment{UserID: "alice", Content: "x", PollID: "p1"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteComment(ctx, bob, c.ID), ErrPolicy)
	assert.NoError(t, s.DeleteComment(ctx, alice, c.ID))
	assert.ErrorIs(t, s.DeleteComment(ctx, alice, c.ID), ErrNotFound)
}

func TestSetRoleAdminOnly(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	assert.ErrorIs(t, s.SetRole(ctx, alice, "bob", policy.RoleAdmin), ErrPolicy)

	require.NoError(t, s.SetRole(ctx, admin, "bob", policy.RoleAdmin))
	r, err := s.RoleOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, policy.RoleAdmin, r)
}

func TestEnsureAdminIdempotent(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	created, err := s.EnsureAdmin(ctx, "root", "root")
	require.NoError(t, err)
	assert.True(t, created)

	// Second invocation is a no-op, even with a different candidate.
	created, err = s.EnsureAdmin(ctx, "other", "other")
	require.NoError(t, err)
	assert.False(t, created)

	r, err := s.RoleOf(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, policy.RoleMember, r)

	admins := 0
	profiles, err := s.Profiles(ctx)
	require.NoError(t, err)
	for _, p := range profiles {
		role, err := s.RoleOf(ctx, p.ID)
		require.NoError(t, err)
		if role == policy.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}
