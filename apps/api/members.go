package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/anvit/clubhub/pkg/presence"
	"github.com/anvit/clubhub/pkg/store"
)

// MembersHandler returns all member profiles.
func MembersHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := st.Profiles(r.Context())
		if err != nil {
			log.Printf("members: %v", err)
			writeStoreError(w, err)
			return
		}
		writeJSON(w, profiles)
	}
}

// PresenceHandler returns the users currently connected to a channel.
// Route: /channels/{id}/users
type PresenceHandler struct {
	tracker *presence.Tracker
}

func NewPresenceHandler(tracker *presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

func (h *PresenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 4 || pathParts[3] != "users" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}
	channelID := pathParts[2]

	users, err := h.tracker.Members(r.Context(), channelID)
	if err != nil {
		log.Printf("presence for channel %s: %v", channelID, err)
		http.Error(w, "Failed to fetch presence", http.StatusInternalServerError)
		return
	}
	writeJSON(w, users)
}
