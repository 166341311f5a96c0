// Package store is the typed persistence layer. Every operation that acts on
// behalf of a user is checked against the access policy here, at the storage
// boundary; UI-side checks are advisory only.
package store

import (
	"context"
	"errors"

	"github.com/anvit/clubhub/pkg/channel"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/policy"
)

var (
	// ErrValidation marks rows rejected before any storage call.
	ErrValidation = errors.New("validation failed")
	// ErrPolicy marks operations denied by the access policy. Surfaced to
	// users as a generic failure; the denial reason stays server-side.
	ErrPolicy = errors.New("operation not permitted")
	// ErrConstraint marks uniqueness violations, e.g. a second vote insert
	// where an update was required.
	ErrConstraint = errors.New("constraint violation")
	ErrNotFound   = errors.New("not found")
)

// SystemSenderID is the reserved sender of server-generated messages.
const SystemSenderID = "system"

// Store is the data store interface of the hub. Implementations: Scylla
// (production) and Memory (single-node and tests).
type Store interface {
	// InsertMessage commits a user message and returns it with the
	// server-assigned id and timestamp.
	InsertMessage(ctx context.Context, actor policy.Actor, m model.Message) (model.Message, error)
	// InsertSystemMessage is the privileged server-side path for
	// membership-lifecycle messages. Not reachable from client requests.
	InsertSystemMessage(ctx context.Context, content string) (model.Message, error)
	// MessagesForChannel returns the channel's messages ordered by creation
	// time, restricted to rows the actor may read.
	MessagesForChannel(ctx context.Context, actor policy.Actor, target channel.Target) ([]model.Message, error)

	CreateProfile(ctx context.Context, p model.Profile) (model.Profile, error)
	Profiles(ctx context.Context) ([]model.Profile, error)

	RoleOf(ctx context.Context, userID string) (policy.Role, error)
	SetRole(ctx context.Context, actor policy.Actor, userID string, role policy.Role) error

	CreateSchedule(ctx context.Context, actor policy.Actor, s model.Schedule) (model.Schedule, error)
	Schedules(ctx context.Context) ([]model.Schedule, error)
	CreatePoll(ctx context.Context, actor policy.Actor, p model.Poll) (model.Poll, error)
	Polls(ctx context.Context) ([]model.Poll, error)

	InsertComment(ctx context.Context, actor policy.Actor, c model.Comment) (model.Comment, error)
	DeleteComment(ctx context.Context, actor policy.Actor, id string) error

	// CastVote inserts a first vote; a duplicate (poll, voter) pair fails
	// with ErrConstraint. ChangeVote updates an existing row in place.
	CastVote(ctx context.Context, actor policy.Actor, v model.Vote) error
	ChangeVote(ctx context.Context, actor policy.Actor, v model.Vote) error
	VotesFor(ctx context.Context, pollID string) ([]model.Vote, error)

	// EnsureAdmin is the out-of-band bootstrap: creates the first admin
	// identity, bypassing client write policy. No-op if an admin exists.
	EnsureAdmin(ctx context.Context, userID, username string) (created bool, err error)
}
