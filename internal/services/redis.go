package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
	"github.com/redis/go-redis/v9"
)

// Redis implements the Store interface on a Redis backend, for deployments that run more
// than one console instance behind a load balancer. Sessions carry a TTL matching the
// access token's lifetime; conversations and preferences are stored as JSON snapshots.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to the given Redis address and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr, password string, db int) (Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return Redis{}, fmt.Errorf("failed to ping redis: %w", err)
	}
	return Redis{rdb: rdb}, nil
}

// Close releases the underlying connection pool.
func (r Redis) Close() error {
	return r.rdb.Close()
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func conversationKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s", sessionID)
}

func preferencesKey(userID string) string {
	return fmt.Sprintf("preference:%s", userID)
}

func (r Redis) getJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r Redis) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Session retrieves the stored session for the given ID. A session that does not exist, or
// whose key expired, is reported as a zero value.
func (r Redis) Session(ctx context.Context, id string) (nexus.Session, error) {
	var sess nexus.Session
	if _, err := r.getJSON(ctx, sessionKey(id), &sess); err != nil {
		return nexus.Session{}, err
	}
	return sess, nil
}

// PutSession stores the session under the given ID. The key expires together with the
// access token, so stale logins age out of Redis on their own.
func (r Redis) PutSession(ctx context.Context, id string, sess nexus.Session) error {
	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		ttl = time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			ttl = time.Minute
		}
	}
	return r.setJSON(ctx, sessionKey(id), sess, ttl)
}

// DeleteSession removes the session and its conversation.
func (r Redis) DeleteSession(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, sessionKey(id), conversationKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// Messages retrieves the session's conversation in the order the messages were stored.
func (r Redis) Messages(ctx context.Context, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	if _, err := r.getJSON(ctx, conversationKey(sessionID), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// AddMessage appends a message to the session's conversation snapshot and returns its ID.
func (r Redis) AddMessage(ctx context.Context, sessionID string, message models.Message) (string, error) {
	messages, err := r.Messages(ctx, sessionID)
	if err != nil {
		return "", err
	}
	messages = append(messages, message)
	if err := r.setJSON(ctx, conversationKey(sessionID), messages, 0); err != nil {
		return "", err
	}
	return message.ID, nil
}

// UpdateMessage replaces the stored message with the same ID. Unknown messages are silently
// ignored.
func (r Redis) UpdateMessage(ctx context.Context, sessionID string, message models.Message) error {
	messages, err := r.Messages(ctx, sessionID)
	if err != nil {
		return err
	}
	for i, msg := range messages {
		if msg.ID == message.ID {
			messages[i] = message
			return r.setJSON(ctx, conversationKey(sessionID), messages, 0)
		}
	}
	return nil
}

// ClearMessages drops the session's conversation while keeping the session itself.
func (r Redis) ClearMessages(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, conversationKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", sessionID, err)
	}
	return nil
}

// Preferences retrieves the user's console preferences, falling back to defaults for users
// who never saved any.
func (r Redis) Preferences(ctx context.Context, userID string) (models.Preferences, error) {
	var prefs models.Preferences
	if _, err := r.getJSON(ctx, preferencesKey(userID), &prefs); err != nil {
		return models.Preferences{}, err
	}
	return prefs, nil
}

// PutPreferences stores the user's console preferences.
func (r Redis) PutPreferences(ctx context.Context, userID string, prefs models.Preferences) error {
	return r.setJSON(ctx, preferencesKey(userID), prefs, 0)
}
