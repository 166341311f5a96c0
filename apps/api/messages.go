package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/anvit/clubhub/pkg/channel"
	"github.com/anvit/clubhub/pkg/store"
)

// MessagesHandler serves the channel history (GET) and accepts sends (POST).
// The channel is the group channel unless ?peer= / "peer" selects a direct
// conversation with that user.
type MessagesHandler struct {
	store store.Store
}

func NewMessagesHandler(st store.Store) *MessagesHandler {
	return &MessagesHandler{store: st}
}

func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.history(w, r)
	case http.MethodPost:
		h.send(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MessagesHandler) history(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	target := channel.Group()
	if peer := r.URL.Query().Get("peer"); peer != "" {
		target = channel.Direct(peer)
	}

	msgs, err := h.store.MessagesForChannel(r.Context(), actor, target)
	if err != nil {
		log.Printf("history %s: %v", target.ID(actor.ID), err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, msgs)
}

type SendRequest struct {
	Content string `json:"content"`
	Peer    string `json:"peer,omitempty"`
}

func (h *MessagesHandler) send(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	target := channel.Group()
	if req.Peer != "" {
		target = channel.Direct(req.Peer)
	}

	m, err := h.store.InsertMessage(r.Context(), actor, target.Stamp(actor.ID, req.Content))
	if err != nil {
		log.Printf("send from %s: %v", actor.ID, err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, m)
}
