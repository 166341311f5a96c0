// Package session is the client-side core: it owns the active channel's
// message list and the member list, appends optimistic sends, reacts to
// change-feed events with authoritative re-fetches, and feeds the
// notification dispatcher.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anvit/clubhub/pkg/auth"
	"github.com/anvit/clubhub/pkg/channel"
	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/notify"
	"github.com/anvit/clubhub/pkg/policy"
)

var ErrEmptyContent = errors.New("message content is empty")

// API is the slice of the data store the session needs.
type API interface {
	InsertMessage(ctx context.Context, actor policy.Actor, m model.Message) (model.Message, error)
	MessagesForChannel(ctx context.Context, actor policy.Actor, target channel.Target) ([]model.Message, error)
	Profiles(ctx context.Context) ([]model.Profile, error)
}

// Session drives one signed-in client. All callbacks fire with the session
// lock held on whichever goroutine completed the triggering work; handlers
// must not call back into the session.
type Session struct {
	api    API
	ident  auth.Identity
	mgr    *feed.Manager
	notify *notify.Dispatcher

	// OnMessages receives the full ordered message list of the active
	// channel whenever it changes. OnMembers likewise for the member list.
	OnMessages func(target channel.Target, msgs []model.Message)
	OnMembers  func(members []model.Profile)

	mu       sync.Mutex
	target   channel.Target
	fetchGen uint64
	localSeq uint64
	messages []model.Message
	members  map[string]model.Profile
}

func New(api API, ident auth.Identity, f feed.Feed, dispatcher *notify.Dispatcher) *Session {
	return &Session{
		api:     api,
		ident:   ident,
		mgr:     feed.NewManager(f),
		notify:  dispatcher,
		target:  channel.Group(),
		members: make(map[string]model.Profile),
	}
}

func (s *Session) actor() policy.Actor {
	return policy.Actor{ID: s.ident.CurrentUserID(), Role: s.ident.CurrentRole()}
}

// Open subscribes both scopes and loads the initial state. The session
// starts on the group channel.
func (s *Session) Open(ctx context.Context) {
	s.mgr.Subscribe(ctx, feed.ScopeMessages, s.handleMessageEvent)
	s.mgr.Subscribe(ctx, feed.ScopeMembership, s.handleMembershipEvent)
	s.refetchMessages(ctx)
	s.refetchMembers(ctx)
}

// Close tears the subscriptions down synchronously; no handler fires after
// it returns.
func (s *Session) Close() {
	s.mgr.UnsubscribeAll()
}

// SignOut is a full teardown including the notification permission state.
func (s *Session) SignOut() {
	s.Close()
	s.notify.Teardown()
}

// MessagesState reports the scope's subscription state (for status display).
func (s *Session) MessagesState() feed.State {
	return s.mgr.StateOf(feed.ScopeMessages)
}

// SwitchChannel replaces the active filter and re-fetches. The previous
// channel's messages are dropped immediately; a stale fetch resolving after
// the switch is discarded.
func (s *Session) SwitchChannel(ctx context.Context, target channel.Target) {
	s.mu.Lock()
	s.target = target
	s.fetchGen++
	s.messages = nil
	s.emitMessagesLocked()
	s.mu.Unlock()

	s.refetchMessages(ctx)
}

// Target returns the active channel target.
func (s *Session) Target() channel.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Messages returns a copy of the current ordered message list.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Send validates the content, appends a provisional message immediately, and
// issues the real write without blocking on its result. The provisional
// entry is superseded by the next re-fetch; a failed write leaves it in
// place until a later re-fetch silently drops it.
func (s *Session) Send(ctx context.Context, content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmptyContent
	}

	s.mu.Lock()
	target := s.target
	s.localSeq++
	provisional := target.Stamp(s.ident.CurrentUserID(), trimmed)
	provisional.ID = model.ProvisionalID(strconv.FormatUint(s.localSeq, 10))
	provisional.CreatedAt = time.Now()
	s.messages = append(s.messages, provisional)
	s.emitMessagesLocked()
	s.mu.Unlock()

	outgoing := target.Stamp(s.ident.CurrentUserID(), trimmed)
	go func() {
		if _, err := s.api.InsertMessage(ctx, s.actor(), outgoing); err != nil {
			// Visible-but-eventually-corrected: the provisional entry stays
			// until a later re-fetch replaces the list.
			log.Printf("session: send failed: %v", err)
		}
	}()
	return nil
}

// refetchMessages replaces the whole list with the server-confirmed rows.
// The generation captured before the fetch guards against a stale result
// being applied after a channel switch.
func (s *Session) refetchMessages(ctx context.Context) {
	s.mu.Lock()
	gen := s.fetchGen
	target := s.target
	s.mu.Unlock()

	go func() {
		msgs, err := s.api.MessagesForChannel(ctx, s.actor(), target)
		if err != nil {
			log.Printf("session: fetch messages: %v", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.fetchGen != gen {
			// Channel switched while this fetch was in flight; discard.
			return
		}
		s.messages = msgs
		s.emitMessagesLocked()
	}()
}

func (s *Session) refetchMembers(ctx context.Context) {
	go func() {
		profiles, err := s.api.Profiles(ctx)
		if err != nil {
			log.Printf("session: fetch members: %v", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		for _, p := range profiles {
			s.members[p.ID] = p
		}
		if s.OnMembers != nil {
			s.OnMembers(profiles)
		}
	}()
}

func (s *Session) emitMessagesLocked() {
	if s.OnMessages == nil {
		return
	}
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	s.OnMessages(s.target, out)
}

// handleMessageEvent reacts to a message insert: notify if it is an inbound
// message visible to this user, and re-fetch when it is relevant to the
// active channel. The event payload is never applied directly; the re-fetch
// is authoritative, which also makes out-of-order delivery harmless.
func (s *Session) handleMessageEvent(ev feed.Event) {
	var m model.Message
	if err := json.Unmarshal(ev.NewRow, &m); err != nil {
		log.Printf("session: bad message event: %v", err)
		return
	}

	self := s.ident.CurrentUserID()
	s.notify.HandleMessage(m, self, s.usernameOf(m.SenderID))

	s.mu.Lock()
	relevant := s.target.Matches(self, m)
	s.mu.Unlock()
	if relevant {
		s.refetchMessages(context.Background())
	}
}

// handleMembershipEvent always triggers a member re-fetch.
func (s *Session) handleMembershipEvent(ev feed.Event) {
	s.refetchMembers(context.Background())
}

func (s *Session) usernameOf(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.members[userID]; ok {
		return p.Username
	}
	return userID
}
