package main

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/anvit/clubhub/pkg/feed"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/presence"
)

// Hub fans change-feed events out to connected clients. Message events are
// filtered per recipient with the visibility predicate before anything is
// written to a socket; profile events go to everyone.
type Hub struct {
	clients    map[string]map[*Client]bool // user_id -> connections
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	tracker    *presence.Tracker
}

func NewHub(f feed.Feed, tracker *presence.Tracker) *Hub {
	h := &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		tracker:    tracker,
	}

	go h.consume(f, feed.TableMessages)
	go h.consume(f, feed.TableProfiles)
	return h
}

func (h *Hub) consume(f feed.Feed, table string) {
	ctx := context.Background()
	sub, err := f.Subscribe(ctx, table)
	if err != nil {
		log.Fatalf("Failed to subscribe to %s feed: %v", table, err)
	}
	defer sub.Close()

	for ev := range sub.Events() {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Printf("Failed to marshal event: %v", err)
			continue
		}

		if ev.Table == feed.TableMessages {
			var msg model.Message
			if err := json.Unmarshal(ev.NewRow, &msg); err != nil {
				log.Printf("Failed to unmarshal message event: %v", err)
				continue
			}
			h.deliverMessage(msg, payload)
		} else {
			h.deliverAll(payload)
		}
	}
	log.Printf("Feed stream for %s ended", table)
}

func (h *Hub) deliverMessage(msg model.Message, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.clients {
		if !msg.VisibleTo(userID) {
			continue
		}
		for client := range clients {
			select {
			case client.send <- payload:
			default:
				close(client.send)
				delete(clients, client)
			}
		}
	}
}

func (h *Hub) deliverAll(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- payload:
			default:
				close(client.send)
				delete(clients, client)
			}
		}
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.ID] == nil {
				h.clients[client.ID] = make(map[*Client]bool)
			}
			h.clients[client.ID][client] = true
			h.mu.Unlock()

			if err := h.tracker.Join(context.Background(), client.ChannelID, client.ID); err != nil {
				log.Printf("Failed to set presence for %s: %v", client.ID, err)
			}
			log.Printf("Client registered: %s (channel %s)", client.ID, client.ChannelID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.ID)
					}
				}
			}
			h.mu.Unlock()

			if err := h.tracker.Leave(context.Background(), client.ChannelID, client.ID); err != nil {
				log.Printf("Failed to delete presence for %s: %v", client.ID, err)
			}
			log.Printf("Client unregistered: %s (channel %s)", client.ID, client.ChannelID)
		}
	}
}
