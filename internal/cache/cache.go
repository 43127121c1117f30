// internal/cache/cache.go

// Package cache publishes game action records to a Redis stream for
// offline analysis. Entirely optional: when Init is never called, every
// publish is a no-op.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Rdb is the shared Redis client. Nil when no REDIS_ADDR is configured;
// callers must nil-check before publishing.
var Rdb *redis.Client

// ActionRecord is one accepted or rejected room action.
type ActionRecord struct {
	RoomCode   string `json:"roomCode"`
	ActorID    string `json:"actorId"`
	ActionType string `json:"actionType"`
	Accepted   bool   `json:"accepted"`
	Phase      string `json:"phase"`
	Timestamp  int64  `json:"timestamp"`
}

// Init connects the package-level client. Returns the ping error so the
// caller can decide whether to run without the stream.
func Init(ctx context.Context, addr string) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: ping %s: %w", addr, err)
	}
	Rdb = client
	return nil
}

// PublishAction appends a record to the per-room action stream.
func PublishAction(ctx context.Context, rec ActionRecord) error {
	if Rdb == nil {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache: marshal action record: %w", err)
	}
	key := fmt.Sprintf("room:%s:actions", rec.RoomCode)
	if err := Rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		Values: map[string]interface{}{"record": payload},
	}).Err(); err != nil {
		return fmt.Errorf("cache: xadd %s: %w", key, err)
	}
	return nil
}
