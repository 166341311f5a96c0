package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/anvit/clubhub/pkg/channel"
	"github.com/anvit/clubhub/pkg/model"
	"github.com/anvit/clubhub/pkg/policy"
	"github.com/anvit/clubhub/pkg/session"
	"github.com/anvit/clubhub/pkg/store"
)

// httpAPI implements session.API against the API service. The server
// authenticates via the bearer token, so the actor argument is informational
// on this side.
type httpAPI struct {
	base  string
	token string
	http  *http.Client
}

var _ session.API = (*httpAPI)(nil)

func newHTTPAPI(base, token string) *httpAPI {
	return &httpAPI{base: base, token: token, http: &http.Client{}}
}

func (a *httpAPI) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// apiError maps response codes back onto the store's error taxonomy so the
// session layer sees the same sentinels as a direct store caller.
func apiError(resp *http.Response) error {
	msg, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", store.ErrValidation, bytes.TrimSpace(msg))
	case http.StatusForbidden:
		return store.ErrPolicy
	case http.StatusConflict:
		return store.ErrConstraint
	case http.StatusNotFound:
		return store.ErrNotFound
	default:
		return fmt.Errorf("api: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
}

func (a *httpAPI) InsertMessage(ctx context.Context, _ policy.Actor, m model.Message) (model.Message, error) {
	req := map[string]string{"content": m.Content}
	if !m.IsGroupMessage {
		req["peer"] = m.ReceiverID
	}
	var out model.Message
	if err := a.do(ctx, http.MethodPost, "/messages", req, &out); err != nil {
		return model.Message{}, err
	}
	return out, nil
}

func (a *httpAPI) MessagesForChannel(ctx context.Context, _ policy.Actor, target channel.Target) ([]model.Message, error) {
	path := "/messages"
	if !target.IsGroup() {
		path += "?peer=" + target.Peer()
	}
	var out []model.Message
	if err := a.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *httpAPI) Profiles(ctx context.Context) ([]model.Profile, error) {
	var out []model.Profile
	if err := a.do(ctx, http.MethodGet, "/members", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
