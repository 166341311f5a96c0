// Package notify raises local user-facing alerts for inbound messages. The
// permission state is process-wide with an explicit init and teardown, asked
// for once per session.
package notify

import (
	"sync"

	"github.com/anvit/clubhub/pkg/model"
)

type Permission string

const (
	PermissionDefault Permission = "default" // not yet asked
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Sink is the platform notification capability.
type Sink interface {
	Notify(title, body string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(title, body string)

func (f SinkFunc) Notify(title, body string) { f(title, body) }

const title = "clubhub"

// Dispatcher holds the session's notification state. Zero value is unusable;
// call Init on first subscribe and Teardown on full sign-out.
type Dispatcher struct {
	mu    sync.Mutex
	perm  Permission
	sink  Sink
	ready bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{perm: PermissionDefault}
}

func (d *Dispatcher) Init(sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready {
		return
	}
	d.sink = sink
	d.ready = true
}

func (d *Dispatcher) Teardown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sink = nil
	d.ready = false
	d.perm = PermissionDefault
}

// Request records the platform's permission answer. Only the first request
// after init has any effect; the answer persists for the session.
func (d *Dispatcher) Request(granted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.perm != PermissionDefault {
		return
	}
	if granted {
		d.perm = PermissionGranted
	} else {
		d.perm = PermissionDenied
	}
}

func (d *Dispatcher) Permission() Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.perm
}

// HandleMessage raises one notification for an inbound message if it is
// visible to the current user, not authored by them, and permission was
// granted. senderUsername is the display name of the message author.
func (d *Dispatcher) HandleMessage(m model.Message, selfID, senderUsername string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ready || d.perm != PermissionGranted {
		return
	}
	if m.SenderID == selfID || !m.VisibleTo(selfID) {
		return
	}

	body := m.Content
	if m.Type == model.TypeUser {
		body = senderUsername + ": " + m.Content
	}
	d.sink.Notify(title, body)
}
