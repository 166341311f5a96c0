package feed

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scope is a logical subscription unit: the message stream or the member
// list stream.
type Scope string

const (
	ScopeMessages   Scope = "messages"
	ScopeMembership Scope = "membership"
)

func (s Scope) table() string {
	if s == ScopeMembership {
		return TableProfiles
	}
	return TableMessages
}

type State int32

const (
	Unsubscribed State = iota
	Subscribing
	Active
	Errored
)

func (s State) String() string {
	switch s {
	case Subscribing:
		return "subscribing"
	case Active:
		return "active"
	case Errored:
		return "errored"
	default:
		return "unsubscribed"
	}
}

// retryDelay paces re-subscription after a stream drops. A missed event is
// self-healed by the refetch the next event triggers, so the delay does not
// need to be aggressive.
const retryDelay = time.Second

// Manager owns one durable subscription per scope and dispatches incoming
// events to a handler. Teardown is synchronous: once Unsubscribe returns, the
// handler will not fire again for that scope.
type Manager struct {
	feed Feed

	mu   sync.Mutex
	subs map[Scope]*scopeSub
}

type scopeSub struct {
	mu      sync.Mutex // serializes dispatch against teardown
	state   State
	closed  bool
	cancel  context.CancelFunc
	current Subscription
	done    chan struct{}
}

func NewManager(f Feed) *Manager {
	return &Manager{feed: f, subs: make(map[Scope]*scopeSub)}
}

// Subscribe opens the scope's stream and dispatches every event to onEvent.
// Handlers run on the subscription goroutine, one at a time. Subscribing to
// an already-subscribed scope tears the old stream down first.
func (m *Manager) Subscribe(ctx context.Context, scope Scope, onEvent func(Event)) {
	m.Unsubscribe(scope)

	ctx, cancel := context.WithCancel(ctx)
	s := &scopeSub{state: Subscribing, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.subs[scope] = s
	m.mu.Unlock()

	go s.run(ctx, m.feed, scope, onEvent)
}

func (s *scopeSub) run(ctx context.Context, f Feed, scope Scope, onEvent func(Event)) {
	defer close(s.done)
	for {
		s.setState(Subscribing)
		sub, err := f.Subscribe(ctx, scope.table())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("feed: subscribe %s failed: %v", scope, err)
			s.setState(Errored)
			select {
			case <-time.After(retryDelay):
				continue
			case <-ctx.Done():
				return
			}
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			sub.Close()
			return
		}
		s.current = sub
		s.state = Active
		s.mu.Unlock()

		for ev := range sub.Events() {
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			onEvent(ev)
			s.mu.Unlock()
		}

		// Stream ended without teardown: transport dropped, retry.
		if ctx.Err() != nil {
			return
		}
		s.setState(Errored)
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (s *scopeSub) setState(st State) {
	s.mu.Lock()
	if !s.closed {
		s.state = st
	}
	s.mu.Unlock()
}

// Unsubscribe tears the scope down. It blocks until any in-flight handler
// call has returned, so callers can release view state immediately after.
func (m *Manager) Unsubscribe(scope Scope) {
	m.mu.Lock()
	s := m.subs[scope]
	delete(m.subs, scope)
	m.mu.Unlock()
	if s == nil {
		return
	}

	s.mu.Lock()
	s.closed = true
	s.state = Unsubscribed
	if s.current != nil {
		s.current.Close()
	}
	s.mu.Unlock()

	s.cancel()
	<-s.done
}

// UnsubscribeAll tears down every scope; used on full sign-out.
func (m *Manager) UnsubscribeAll() {
	m.mu.Lock()
	scopes := make([]Scope, 0, len(m.subs))
	for sc := range m.subs {
		scopes = append(scopes, sc)
	}
	m.mu.Unlock()
	for _, sc := range scopes {
		m.Unsubscribe(sc)
	}
}

// StateOf reports the scope's lifecycle state.
func (m *Manager) StateOf(scope Scope) State {
	m.mu.Lock()
	s := m.subs[scope]
	m.mu.Unlock()
	if s == nil {
		return Unsubscribed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
