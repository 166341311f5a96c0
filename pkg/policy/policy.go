// Package policy is the authoritative read/write permission check. It is a
// pure predicate table over (actor, resource, operation), independent of the
// storage engine; the store consults it on every call and rejects disallowed
// operations at the boundary.
package policy

import "github.com/anvit/clubhub/pkg/model"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Operation string

const (
	OpRead   Operation = "read"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Actor is the acting identity as resolved by the auth layer.
type Actor struct {
	ID   string
	Role Role
}

// Normalize maps unknown role strings to member. Unknown never means admin.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleAdmin, RoleMember:
		return Role(role)
	default:
		return RoleMember
	}
}

// Resource is implemented by every row type the evaluator rules on.
type Resource interface{ isResource() }

type MessageRow struct{ Row model.Message }
type CommentRow struct{ Row model.Comment }
type VoteRow struct{ Row model.Vote }
type ScheduleRow struct{ Row model.Schedule }
type PollRow struct{ Row model.Poll }
type RoleRow struct{ UserID string }

func (MessageRow) isResource()  {}
func (CommentRow) isResource()  {}
func (VoteRow) isResource()     {}
func (ScheduleRow) isResource() {}
func (PollRow) isResource()     {}
func (RoleRow) isResource()     {}

// Allow decides whether actor a may perform op on the given row.
func Allow(a Actor, res Resource, op Operation) bool {
	if a.ID == "" {
		return false
	}
	switch r := res.(type) {
	case MessageRow:
		switch op {
		case OpRead:
			return r.Row.VisibleTo(a.ID)
		case OpInsert:
			// Declared sender must be the acting identity; rules out spoofing.
			return r.Row.SenderID == a.ID
		}
		return false
	case CommentRow:
		switch op {
		case OpRead:
			return true
		case OpInsert:
			return r.Row.UserID == a.ID
		case OpDelete:
			return r.Row.UserID == a.ID
		}
		return false
	case VoteRow:
		switch op {
		case OpRead:
			return true
		case OpInsert, OpUpdate:
			return r.Row.UserID == a.ID
		}
		return false
	case ScheduleRow, PollRow:
		if op == OpRead {
			return true
		}
		return a.Role == RoleAdmin
	case RoleRow:
		if op == OpRead {
			return true
		}
		return a.Role == RoleAdmin
	default:
		return false
	}
}
