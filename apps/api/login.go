package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/anvit/clubhub/pkg/auth"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/store"
)

type RegisterRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// RegisterHandler creates the profile row. The membership watcher reacts to
// the resulting change event with the join announcement.
func RegisterHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		p, err := st.CreateProfile(r.Context(), model.Profile{ID: req.UserID, Username: req.Username})
		if err != nil {
			log.Printf("register %s: %v", req.UserID, err)
			writeStoreError(w, err)
			return
		}
		writeJSON(w, p)
	}
}

type LoginRequest struct {
	UserID string `json:"user_id"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// LoginHandler issues a token carrying the user's id and current role. The
// role is read fresh on every login, never cached beyond the token lifetime.
func LoginHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		role, err := st.RoleOf(r.Context(), req.UserID)
		if err != nil {
			log.Printf("login %s: role lookup: %v", req.UserID, err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		token, err := auth.GenerateToken(req.UserID, role)
		if err != nil {
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}
		writeJSON(w, LoginResponse{Token: token, Role: string(role)})
	}
}
