package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/anvit/clubhub/pkg/channel"
	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/policy"
	"github.com/anvit/clubhub/pkg/snowflake"
)

// Memory is the in-process Store. It backs the single-node deployment and
// the test suite, and enforces exactly the same policy and constraint rules
// as the Scylla implementation.
type Memory struct {
	ids *snowflake.Generator
	pub feed.Publisher
	now func() time.Time

	mu        sync.Mutex
	messages  []model.Message
	profiles  map[string]model.Profile
	roles     map[string]policy.Role
	schedules map[string]model.Schedule
	polls     map[string]model.Poll
	comments  map[string]model.Comment
	votes     map[string]model.Vote // key pollID + "/" + userID
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty store. pub may be nil when no change-feed is
// attached.
func NewMemory(pub feed.Publisher) *Memory {
	ids, err := snowflake.NewGenerator(1)
	if err != nil {
		panic(err) // node 1 is always in range
	}
	return &Memory{
		ids:       ids,
		pub:       pub,
		now:       time.Now,
		profiles:  make(map[string]model.Profile),
		roles:     make(map[string]policy.Role),
		schedules: make(map[string]model.Schedule),
		polls:     make(map[string]model.Poll),
		comments:  make(map[string]model.Comment),
		votes:     make(map[string]model.Vote),
	}
}

func (s *Memory) publish(ctx context.Context, table string, row any) {
	if s.pub == nil {
		return
	}
	ev, err := feed.NewEvent(table, row)
	if err != nil {
		log.Printf("store: encode feed event: %v", err)
		return
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		log.Printf("store: publish feed event: %v", err)
	}
}

func (s *Memory) InsertMessage(ctx context.Context, actor policy.Actor, m model.Message) (model.Message, error) {
	if err := m.Validate(); err != nil {
		return model.Message{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if m.Type != model.TypeUser {
		// System messages are server-generated only.
		return model.Message{}, fmt.Errorf("%w: clients send user messages only", ErrPolicy)
	}
	if !policy.Allow(actor, policy.MessageRow{Row: m}, policy.OpInsert) {
		return model.Message{}, ErrPolicy
	}

	m.ID = s.ids.NextID()
	m.CreatedAt = s.now()

	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()

	s.publish(ctx, feed.TableMessages, m)
	return m, nil
}

func (s *Memory) InsertSystemMessage(ctx context.Context, content string) (model.Message, error) {
	m := model.Message{
		ID:             s.ids.NextID(),
		Content:        content,
		SenderID:       SystemSenderID,
		IsGroupMessage: true,
		Type:           model.TypeSystem,
		CreatedAt:      s.now(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()

	s.publish(ctx, feed.TableMessages, m)
	return m, nil
}

func (s *Memory) MessagesForChannel(ctx context.Context, actor policy.Actor, target channel.Target) ([]model.Message, error) {
	s.mu.Lock()
	var out []model.Message
	for _, m := range s.messages {
		if !target.Matches(actor.ID, m) {
			continue
		}
		if !policy.Allow(actor, policy.MessageRow{Row: m}, policy.OpRead) {
			continue
		}
		out = append(out, m)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Memory) CreateProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	if p.ID == "" || p.Username == "" {
		return model.Profile{}, fmt.Errorf("%w: profile needs id and username", ErrValidation)
	}

	s.mu.Lock()
	if _, exists := s.profiles[p.ID]; exists {
		s.mu.Unlock()
		return model.Profile{}, fmt.Errorf("%w: profile %s exists", ErrConstraint, p.ID)
	}
	s.profiles[p.ID] = p
	if _, ok := s.roles[p.ID]; !ok {
		s.roles[p.ID] = policy.RoleMember
	}
	s.mu.Unlock()

	s.publish(ctx, feed.TableProfiles, p)

	// Membership lifecycle: announce the join in the group channel.
	if _, err := s.InsertSystemMessage(ctx, p.Username+" joined the chat"); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func (s *Memory) Profiles(ctx context.Context) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Memory) RoleOf(ctx context.Context, userID string) (policy.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.roles[userID]; ok {
		return r, nil
	}
	return policy.RoleMember, nil
}

func (s *Memory) SetRole(ctx context.Context, actor policy.Actor, userID string, role policy.Role) error {
	if !policy.Allow(actor, policy.RoleRow{UserID: userID}, policy.OpUpdate) {
		return ErrPolicy
	}
	s.mu.Lock()
	s.roles[userID] = policy.Normalize(string(role))
	s.mu.Unlock()
	return nil
}

func (s *Memory) CreateSchedule(ctx context.Context, actor policy.Actor, sc model.Schedule) (model.Schedule, error) {
	if sc.Title == "" {
		return model.Schedule{}, fmt.Errorf("%w: schedule needs a title", ErrValidation)
	}
	if !policy.Allow(actor, policy.ScheduleRow{Row: sc}, policy.OpInsert) {
		return model.Schedule{}, ErrPolicy
	}
	sc.ID = s.ids.NextID()
	sc.CreatedBy = actor.ID
	sc.CreatedAt = s.now()

	s.mu.Lock()
	s.schedules[sc.ID] = sc
	s.mu.Unlock()
	return sc, nil
}

func (s *Memory) Schedules(ctx context.Context) ([]model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Schedule, 0, len(s.schedules))
	for _, sc := range s.schedules {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) CreatePoll(ctx context.Context, actor policy.Actor, p model.Poll) (model.Poll, error) {
	if p.Question == "" {
		return model.Poll{}, fmt.Errorf("%w: poll needs a question", ErrValidation)
	}
	if !policy.Allow(actor, policy.PollRow{Row: p}, policy.OpInsert) {
		return model.Poll{}, ErrPolicy
	}
	p.ID = s.ids.NextID()
	p.CreatedBy = actor.ID
	p.CreatedAt = s.now()

	s.mu.Lock()
	s.polls[p.ID] = p
	s.mu.Unlock()
	return p, nil
}

func (s *Memory) Polls(ctx context.Context) ([]model.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Poll, 0, len(s.polls))
	for _, p := range s.polls {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) InsertComment(ctx context.Context, actor policy.Actor, c model.Comment) (model.Comment, error) {
	if err := c.Validate(); err != nil {
		return model.Comment{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !policy.Allow(actor, policy.CommentRow{Row: c}, policy.OpInsert) {
		return model.Comment{}, ErrPolicy
	}
	c.ID = s.ids.NextID()
	c.CreatedAt = s.now()

	s.mu.Lock()
	s.comments[c.ID] = c
	s.mu.Unlock()
	return c, nil
}

func (s *Memory) DeleteComment(ctx context.Context, actor policy.Actor, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return ErrNotFound
	}
	if !policy.Allow(actor, policy.CommentRow{Row: c}, policy.OpDelete) {
		return ErrPolicy
	}
	delete(s.comments, id)
	return nil
}

func voteKey(pollID, userID string) string { return pollID + "/" + userID }

func (s *Memory) CastVote(ctx context.Context, actor policy.Actor, v model.Vote) error {
	if v.PollID == "" || v.Choice == "" {
		return fmt.Errorf("%w: vote needs poll and choice", ErrValidation)
	}
	if !policy.Allow(actor, policy.VoteRow{Row: v}, policy.OpInsert) {
		return ErrPolicy
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(v.PollID, v.UserID)
	if _, exists := s.votes[key]; exists {
		return fmt.Errorf("%w: vote exists for (%s, %s)", ErrConstraint, v.PollID, v.UserID)
	}
	v.CreatedAt = s.now()
	s.votes[key] = v
	return nil
}

func (s *Memory) ChangeVote(ctx context.Context, actor policy.Actor, v model.Vote) error {
	if v.PollID == "" || v.Choice == "" {
		return fmt.Errorf("%w: vote needs poll and choice", ErrValidation)
	}
	if !policy.Allow(actor, policy.VoteRow{Row: v}, policy.OpUpdate) {
		return ErrPolicy
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(v.PollID, v.UserID)
	old, exists := s.votes[key]
	if !exists {
		return ErrNotFound
	}
	old.Choice = v.Choice
	s.votes[key] = old
	return nil
}

func (s *Memory) VotesFor(ctx context.Context, pollID string) ([]model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Vote
	for _, v := range s.votes {
		if v.PollID == pollID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Memory) EnsureAdmin(ctx context.Context, userID, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r == policy.RoleAdmin {
			return false, nil
		}
	}
	if _, ok := s.profiles[userID]; !ok {
		s.profiles[userID] = model.Profile{ID: userID, Username: username}
	}
	s.roles[userID] = policy.RoleAdmin
	return true, nil
}
