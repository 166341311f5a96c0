package model

import (
	"errors"
	"time"
)

// Profile is the public identity record. Creating one is what makes a user a
// member of the hub; the membership watcher reacts to it with a system
// message in the group channel.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Schedule struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	MatchDate time.Time `json:"match_date"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type Poll struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment hangs off exactly one parent record, either a schedule or a poll.
type Comment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ScheduleID string    `json:"schedule_id,omitempty"`
	PollID     string    `json:"poll_id,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

var ErrBadParent = errors.New("comment must reference exactly one of schedule or poll")

func (c Comment) Validate() error {
	if (c.ScheduleID != "") == (c.PollID != "") {
		return ErrBadParent
	}
	if c.UserID == "" {
		return errors.New("comment has no author")
	}
	if c.Content == "" {
		return errors.New("comment content is empty")
	}
	return nil
}

// Vote is one user's choice on a poll. The store enforces uniqueness on the
// (PollID, UserID) pair; changing a vote is an update, never a second insert.
type Vote struct {
	PollID    string    `json:"poll_id"`
	UserID    string    `json:"user_id"`
	Choice    string    `json:"choice"`
	CreatedAt time.Time `json:"created_at"`
}
