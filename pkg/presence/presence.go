// Package presence tracks which members are currently connected, per
// channel, in Redis sets. It feeds the member list alongside the persistent
// profile records.
package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Tracker struct {
	client *redis.Client
}

func NewTracker(addr string) *Tracker {
	return &Tracker{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func NewTrackerWithClient(client *redis.Client) *Tracker {
	return &Tracker{client: client}
}

func key(channelID string) string {
	return "channel:" + channelID + ":users"
}

func (t *Tracker) Join(ctx context.Context, channelID, userID string) error {
	if err := t.client.SAdd(ctx, key(channelID), userID).Err(); err != nil {
		return fmt.Errorf("presence join: %w", err)
	}
	return nil
}

func (t *Tracker) Leave(ctx context.Context, channelID, userID string) error {
	if err := t.client.SRem(ctx, key(channelID), userID).Err(); err != nil {
		return fmt.Errorf("presence leave: %w", err)
	}
	return nil
}

func (t *Tracker) Members(ctx context.Context, channelID string) ([]string, error) {
	users, err := t.client.SMembers(ctx, key(channelID)).Result()
	if err != nil {
		return nil, fmt.Errorf("presence members: %w", err)
	}
	return users, nil
}

func (t *Tracker) Close() error { return t.client.Close() }
