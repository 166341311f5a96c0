package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/anvit/clubhub/pkg/channel"
	"github.com/anvit/clubhub/pkg/db"
	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/policy"
	"github.com/anvit/clubhub/pkg/snowflake"
)

// Scylla is the production Store over a ScyllaDB keyspace. Messages are
// partitioned by channel key and clustered by creation time, so a channel
// read is a single-partition scan already in order.
type Scylla struct {
	session *db.Session
	ids     *snowflake.Generator
	pub     feed.Publisher
}

var _ Store = (*Scylla)(nil)

func NewScylla(session *db.Session, node int64, pub feed.Publisher) (*Scylla, error) {
	ids, err := snowflake.NewGenerator(node)
	if err != nil {
		return nil, err
	}
	return &Scylla{session: session, ids: ids, pub: pub}, nil
}

// CreateTables provisions the keyspace schema. Idempotent.
func (s *Scylla) CreateTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_messages (
			channel_id text,
			id text,
			content text,
			sender_id text,
			receiver_id text,
			is_group boolean,
			msg_type text,
			created_at timestamp,
			PRIMARY KEY (channel_id, created_at, id)
		) WITH CLUSTERING ORDER BY (created_at ASC, id ASC)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id text PRIMARY KEY,
			username text
		)`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id text PRIMARY KEY,
			role text
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id text PRIMARY KEY,
			title text,
			match_date timestamp,
			created_by text,
			created_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS polls (
			id text PRIMARY KEY,
			question text,
			created_by text,
			created_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id text PRIMARY KEY,
			user_id text,
			schedule_id text,
			poll_id text,
			content text,
			created_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS poll_votes (
			poll_id text,
			user_id text,
			choice text,
			created_at timestamp,
			PRIMARY KEY (poll_id, user_id)
		)`,
	}
	for _, stmt := range stmts {
		if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (s *Scylla) publish(ctx context.Context, table string, row any) error {
	if s.pub == nil {
		return nil
	}
	ev, err := feed.NewEvent(table, row)
	if err != nil {
		return err
	}
	return s.pub.Publish(ctx, ev)
}

func (s *Scylla) insertMessageRow(ctx context.Context, m model.Message) error {
	return s.session.Query(
		`INSERT INTO chat_messages (channel_id, id, content, sender_id, receiver_id, is_group, msg_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ChannelID(), m.ID, m.Content, m.SenderID, m.ReceiverID, m.IsGroupMessage, string(m.Type), m.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *Scylla) InsertMessage(ctx context.Context, actor policy.Actor, m model.Message) (model.Message, error) {
	if err := m.Validate(); err != nil {
		return model.Message{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if m.Type != model.TypeUser {
		return model.Message{}, fmt.Errorf("%w: clients send user messages only", ErrPolicy)
	}
	if !policy.Allow(actor, policy.MessageRow{Row: m}, policy.OpInsert) {
		return model.Message{}, ErrPolicy
	}

	m.ID = s.ids.NextID()
	m.CreatedAt = time.Now().UTC()

	if err := s.insertMessageRow(ctx, m); err != nil {
		return model.Message{}, fmt.Errorf("insert message: %w", err)
	}
	if err := s.publish(ctx, feed.TableMessages, m); err != nil {
		return model.Message{}, fmt.Errorf("publish message event: %w", err)
	}
	return m, nil
}

func (s *Scylla) InsertSystemMessage(ctx context.Context, content string) (model.Message, error) {
	m := model.Message{
		ID:             s.ids.NextID(),
		Content:        content,
		SenderID:       SystemSenderID,
		IsGroupMessage: true,
		Type:           model.TypeSystem,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.insertMessageRow(ctx, m); err != nil {
		return model.Message{}, fmt.Errorf("insert system message: %w", err)
	}
	if err := s.publish(ctx, feed.TableMessages, m); err != nil {
		return model.Message{}, fmt.Errorf("publish message event: %w", err)
	}
	return m, nil
}

func (s *Scylla) MessagesForChannel(ctx context.Context, actor policy.Actor, target channel.Target) ([]model.Message, error) {
	// The DM channel key embeds the acting user, so the partition itself is
	// scoped to conversations the actor participates in. The per-row policy
	// check below stays as the authoritative filter.
	iter := s.session.Query(
		`SELECT id, content, sender_id, receiver_id, is_group, msg_type, created_at
		 FROM chat_messages WHERE channel_id = ?`,
		target.ID(actor.ID),
	).WithContext(ctx).Iter()

	var out []model.Message
	var m model.Message
	var msgType string
	for iter.Scan(&m.ID, &m.Content, &m.SenderID, &m.ReceiverID, &m.IsGroupMessage, &msgType, &m.CreatedAt) {
		m.Type = model.MessageType(msgType)
		if !target.Matches(actor.ID, m) {
			continue
		}
		if !policy.Allow(actor, policy.MessageRow{Row: m}, policy.OpRead) {
			continue
		}
		out = append(out, m)
		m = model.Message{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("query channel: %w", err)
	}
	return out, nil
}

func (s *Scylla) CreateProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	if p.ID == "" || p.Username == "" {
		return model.Profile{}, fmt.Errorf("%w: profile needs id and username", ErrValidation)
	}

	applied, err := s.session.Query(
		`INSERT INTO profiles (id, username) VALUES (?, ?) IF NOT EXISTS`,
		p.ID, p.Username,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return model.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	if !applied {
		return model.Profile{}, fmt.Errorf("%w: profile %s exists", ErrConstraint, p.ID)
	}

	if err := s.session.Query(
		`INSERT INTO user_roles (user_id, role) VALUES (?, ?) IF NOT EXISTS`,
		p.ID, string(policy.RoleMember),
	).WithContext(ctx).Exec(); err != nil {
		return model.Profile{}, fmt.Errorf("insert role: %w", err)
	}

	if err := s.publish(ctx, feed.TableProfiles, p); err != nil {
		return model.Profile{}, fmt.Errorf("publish profile event: %w", err)
	}
	// The join announcement is produced by the membership watcher reacting
	// to the profile event, so it is emitted exactly once cluster-wide.
	return p, nil
}

func (s *Scylla) Profiles(ctx context.Context) ([]model.Profile, error) {
	iter := s.session.Query(`SELECT id, username FROM profiles`).WithContext(ctx).Iter()
	var out []model.Profile
	var p model.Profile
	for iter.Scan(&p.ID, &p.Username) {
		out = append(out, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	return out, nil
}

func (s *Scylla) RoleOf(ctx context.Context, userID string) (policy.Role, error) {
	var role string
	err := s.session.Query(`SELECT role FROM user_roles WHERE user_id = ?`, userID).
		WithContext(ctx).Scan(&role)
	if err == gocql.ErrNotFound {
		return policy.RoleMember, nil
	}
	if err != nil {
		return "", fmt.Errorf("query role: %w", err)
	}
	return policy.Normalize(role), nil
}

func (s *Scylla) SetRole(ctx context.Context, actor policy.Actor, userID string, role policy.Role) error {
	if !policy.Allow(actor, policy.RoleRow{UserID: userID}, policy.OpUpdate) {
		return ErrPolicy
	}
	if err := s.session.Query(
		`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`,
		userID, string(policy.Normalize(string(role))),
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

func (s *Scylla) CreateSchedule(ctx context.Context, actor policy.Actor, sc model.Schedule) (model.Schedule, error) {
	if sc.Title == "" {
		return model.Schedule{}, fmt.Errorf("%w: schedule needs a title", ErrValidation)
	}
	if !policy.Allow(actor, policy.ScheduleRow{Row: sc}, policy.OpInsert) {
		return model.Schedule{}, ErrPolicy
	}
	sc.ID = s.ids.NextID()
	sc.CreatedBy = actor.ID
	sc.CreatedAt = time.Now().UTC()
	if err := s.session.Query(
		`INSERT INTO schedules (id, title, match_date, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		sc.ID, sc.Title, sc.MatchDate, sc.CreatedBy, sc.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return model.Schedule{}, fmt.Errorf("insert schedule: %w", err)
	}
	return sc, nil
}

func (s *Scylla) Schedules(ctx context.Context) ([]model.Schedule, error) {
	iter := s.session.Query(`SELECT id, title, match_date, created_by, created_at FROM schedules`).
		WithContext(ctx).Iter()
	var out []model.Schedule
	var sc model.Schedule
	for iter.Scan(&sc.ID, &sc.Title, &sc.MatchDate, &sc.CreatedBy, &sc.CreatedAt) {
		out = append(out, sc)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	return out, nil
}

func (s *Scylla) CreatePoll(ctx context.Context, actor policy.Actor, p model.Poll) (model.Poll, error) {
	if p.Question == "" {
		return model.Poll{}, fmt.Errorf("%w: poll needs a question", ErrValidation)
	}
	if !policy.Allow(actor, policy.PollRow{Row: p}, policy.OpInsert) {
		return model.Poll{}, ErrPolicy
	}
	p.ID = s.ids.NextID()
	p.CreatedBy = actor.ID
	p.CreatedAt = time.Now().UTC()
	if err := s.session.Query(
		`INSERT INTO polls (id, question, created_by, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Question, p.CreatedBy, p.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return model.Poll{}, fmt.Errorf("insert poll: %w", err)
	}
	return p, nil
}

func (s *Scylla) Polls(ctx context.Context) ([]model.Poll, error) {
	iter := s.session.Query(`SELECT id, question, created_by, created_at FROM polls`).
		WithContext(ctx).Iter()
	var out []model.Poll
	var p model.Poll
	for iter.Scan(&p.ID, &p.Question, &p.CreatedBy, &p.CreatedAt) {
		out = append(out, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("query polls: %w", err)
	}
	return out, nil
}

func (s *Scylla) InsertComment(ctx context.Context, actor policy.Actor, c model.Comment) (model.Comment, error) {
	if err := c.Validate(); err != nil {
		return model.Comment{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !policy.Allow(actor, policy.CommentRow{Row: c}, policy.OpInsert) {
		return model.Comment{}, ErrPolicy
	}
	c.ID = s.ids.NextID()
	c.CreatedAt = time.Now().UTC()
	if err := s.session.Query(
		`INSERT INTO comments (id, user_id, schedule_id, poll_id, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.ScheduleID, c.PollID, c.Content, c.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return model.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

func (s *Scylla) DeleteComment(ctx context.Context, actor policy.Actor, id string) error {
	var c model.Comment
	err := s.session.Query(
		`SELECT id, user_id, schedule_id, poll_id, content FROM comments WHERE id = ?`, id,
	).WithContext(ctx).Scan(&c.ID, &c.UserID, &c.ScheduleID, &c.PollID, &c.Content)
	if err == gocql.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query comment: %w", err)
	}
	if !policy.Allow(actor, policy.CommentRow{Row: c}, policy.OpDelete) {
		return ErrPolicy
	}
	if err := s.session.Query(`DELETE FROM comments WHERE id = ?`, id).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *Scylla) CastVote(ctx context.Context, actor policy.Actor, v model.Vote) error {
	if v.PollID == "" || v.Choice == "" {
		return fmt.Errorf("%w: vote needs poll and choice", ErrValidation)
	}
	if !policy.Allow(actor, policy.VoteRow{Row: v}, policy.OpInsert) {
		return ErrPolicy
	}
	// LWT insert: the (poll_id, user_id) primary key is the uniqueness
	// constraint, a duplicate surfaces as not-applied.
	applied, err := s.session.Query(
		`INSERT INTO poll_votes (poll_id, user_id, choice, created_at) VALUES (?, ?, ?, ?) IF NOT EXISTS`,
		v.PollID, v.UserID, v.Choice, time.Now().UTC(),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}
	if !applied {
		return fmt.Errorf("%w: vote exists for (%s, %s)", ErrConstraint, v.PollID, v.UserID)
	}
	return nil
}

func (s *Scylla) ChangeVote(ctx context.Context, actor policy.Actor, v model.Vote) error {
	if v.PollID == "" || v.Choice == "" {
		return fmt.Errorf("%w: vote needs poll and choice", ErrValidation)
	}
	if !policy.Allow(actor, policy.VoteRow{Row: v}, policy.OpUpdate) {
		return ErrPolicy
	}
	applied, err := s.session.Query(
		`UPDATE poll_votes SET choice = ? WHERE poll_id = ? AND user_id = ? IF EXISTS`,
		v.Choice, v.PollID, v.UserID,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("update vote: %w", err)
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *Scylla) VotesFor(ctx context.Context, pollID string) ([]model.Vote, error) {
	iter := s.session.Query(
		`SELECT poll_id, user_id, choice, created_at FROM poll_votes WHERE poll_id = ?`, pollID,
	).WithContext(ctx).Iter()
	var out []model.Vote
	var v model.Vote
	for iter.Scan(&v.PollID, &v.UserID, &v.Choice, &v.CreatedAt) {
		out = append(out, v)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	return out, nil
}

func (s *Scylla) EnsureAdmin(ctx context.Context, userID, username string) (bool, error) {
	var existing string
	err := s.session.Query(
		`SELECT user_id FROM user_roles WHERE role = ? LIMIT 1 ALLOW FILTERING`,
		string(policy.RoleAdmin),
	).WithContext(ctx).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if err != gocql.ErrNotFound {
		return false, fmt.Errorf("query admins: %w", err)
	}

	if err := s.session.Query(
		`INSERT INTO profiles (id, username) VALUES (?, ?) IF NOT EXISTS`,
		userID, username,
	).WithContext(ctx).Exec(); err != nil {
		return false, fmt.Errorf("insert admin profile: %w", err)
	}
	if err := s.session.Query(
		`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`,
		userID, string(policy.RoleAdmin),
	).WithContext(ctx).Exec(); err != nil {
		return false, fmt.Errorf("insert admin role: %w", err)
	}
	return true, nil
}
