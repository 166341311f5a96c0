package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/anvit/clubhub/pkg/feed"
)

// wsFeed implements feed.Feed over the gateway's websocket delivery stream.
// Each subscription holds its own connection; the gateway has already
// filtered events to rows this user may see.
type wsFeed struct {
	gatewayAddr string
	token       string
}

func newWSFeed(gatewayAddr, token string) *wsFeed {
	return &wsFeed{gatewayAddr: gatewayAddr, token: token}
}

func (f *wsFeed) Subscribe(ctx context.Context, table string) (feed.Subscription, error) {
	u := url.URL{Scheme: "ws", Host: f.gatewayAddr, Path: "/ws"}
	header := http.Header{}
	header.Add("Authorization", "Bearer "+f.token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, err
	}

	sub := &wsSub{conn: conn, events: make(chan feed.Event, 16)}
	go sub.pump(ctx, table)
	return sub, nil
}

type wsSub struct {
	conn   *websocket.Conn
	events chan feed.Event
}

func (s *wsSub) pump(ctx context.Context, table string) {
	defer close(s.events)
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("feed connection dropped: %v", err)
			}
			return
		}

		var ev feed.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Printf("bad feed payload: %v", err)
			continue
		}
		if ev.Table != table {
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (s *wsSub) Events() <-chan feed.Event { return s.events }

func (s *wsSub) Close() error { return s.conn.Close() }
