package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys:
//   <prefix>:sessions:<userID>  set of live connection ids
//   <prefix>:presence:<userID>  json {status,last_seen}
type RedisTracker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisTracker(client *redis.Client, prefix string) *RedisTracker {
	return &RedisTracker{client: client, prefix: prefix, ttl: 24 * time.Hour}
}

func (t *RedisTracker) sessionsKey(userID string) string {
	return fmt.Sprintf("%s:sessions:%s", t.prefix, userID)
}

func (t *RedisTracker) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", t.prefix, userID)
}

func (t *RedisTracker) Connect(ctx context.Context, userID, connID string) (bool, error) {
	key := t.sessionsKey(userID)
	if err := t.client.SAdd(ctx, key, connID).Err(); err != nil {
		return false, err
	}
	_ = t.client.Expire(ctx, key, t.ttl).Err()
	n, err := t.client.SCard(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		t.setStatus(ctx, userID, "online")
		return true, nil
	}
	return false, nil
}

func (t *RedisTracker) Disconnect(ctx context.Context, userID, connID string) (bool, error) {
	key := t.sessionsKey(userID)
	if err := t.client.SRem(ctx, key, connID).Err(); err != nil {
		return false, err
	}
	n, err := t.client.SCard(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		t.setStatus(ctx, userID, "offline")
		return true, nil
	}
	return false, nil
}

func (t *RedisTracker) setStatus(ctx context.Context, userID, status string) {
	b, _ := json.Marshal(map[string]any{"status": status, "last_seen": time.Now().Unix()})
	_ = t.client.Set(ctx, t.presenceKey(userID), b, t.ttl).Err()
}
