package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/policy"
	"github.com/anvit/clubhub/pkg/store"
)

// SchedulesHandler lists schedules (any member) and creates them (admin).
func SchedulesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			out, err := st.Schedules(r.Context())
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, out)
		case http.MethodPost:
			var sc model.Schedule
			if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			created, err := st.CreateSchedule(r.Context(), actor, sc)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, created)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// PollsHandler lists polls (any member) and creates them (admin).
func PollsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			out, err := st.Polls(r.Context())
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, out)
		case http.MethodPost:
			var p model.Poll
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			created, err := st.CreatePoll(r.Context(), actor, p)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, created)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// CommentsHandler inserts comments; DELETE /comments/{id} removes the
// caller's own comment.
func CommentsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodPost:
			var c model.Comment
			if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			c.UserID = actor.ID
			created, err := st.InsertComment(r.Context(), actor, c)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, created)
		case http.MethodDelete:
			id := strings.TrimPrefix(r.URL.Path, "/comments/")
			if id == "" || strings.Contains(id, "/") {
				http.Error(w, "Invalid path", http.StatusBadRequest)
				return
			}
			if err := st.DeleteComment(r.Context(), actor, id); err != nil {
				writeStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type VoteRequest struct {
	PollID string `json:"poll_id"`
	Choice string `json:"choice"`
	// Change marks a vote update; the caller distinguishes first-vote from
	// change-vote because the store rejects a duplicate insert outright.
	Change bool `json:"change,omitempty"`
}

func VotesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			pollID := r.URL.Query().Get("poll_id")
			if pollID == "" {
				http.Error(w, "poll_id is required", http.StatusBadRequest)
				return
			}
			out, err := st.VotesFor(r.Context(), pollID)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, out)
		case http.MethodPost:
			var req VoteRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			v := model.Vote{PollID: req.PollID, UserID: actor.ID, Choice: req.Choice}
			var err error
			if req.Change {
				err = st.ChangeVote(r.Context(), actor, v)
			} else {
				err = st.CastVote(r.Context(), actor, v)
			}
			if err != nil {
				writeStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type RoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// RolesHandler reads any user's role and lets admins assign roles.
func RolesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			userID := r.URL.Query().Get("user_id")
			if userID == "" {
				userID = actor.ID
			}
			role, err := st.RoleOf(r.Context(), userID)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, map[string]string{"user_id": userID, "role": string(role)})
		case http.MethodPost:
			var req RoleRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			if err := st.SetRole(r.Context(), actor, req.UserID, policy.Role(req.Role)); err != nil {
				writeStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
