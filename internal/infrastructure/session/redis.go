package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/worktrack/attendance-bot/internal/core/domain"
	"github.com/worktrack/attendance-bot/internal/core/ports"
)

const defaultSessionTTL = 24 * time.Hour

// RedisStore keeps sessions in Redis so several bot replicas can share
// workflow state. Values are JSON, keyed session:<conversation id>, expiring
// after ttl of inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.SessionStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing Redis client. ttl <= 0 selects the
// default of 24h.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

type sessionRecord struct {
	State domain.State      `json:"state"`
	Data  map[string]string `json:"data,omitempty"`
}

func (s *RedisStore) key(conversationID int64) string {
	return fmt.Sprintf("session:%d", conversationID)
}

func (s *RedisStore) Get(ctx context.Context, conversationID int64) (domain.Session, error) {
	sess := domain.Session{ConversationID: conversationID}

	raw, err := s.client.Get(ctx, s.key(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return sess, nil
	}
	if err != nil {
		return sess, fmt.Errorf("session get: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return sess, fmt.Errorf("session decode: %w", err)
	}
	sess.State = rec.State
	sess.Data = rec.Data
	return sess, nil
}

func (s *RedisStore) SetState(ctx context.Context, conversationID int64, state domain.State) error {
	sess, err := s.Get(ctx, conversationID)
	if err != nil {
		return err
	}
	sess.State = state
	return s.put(ctx, conversationID, sess)
}

func (s *RedisStore) UpdateData(ctx context.Context, conversationID int64, data map[string]string) error {
	sess, err := s.Get(ctx, conversationID)
	if err != nil {
		return err
	}
	if sess.Data == nil {
		sess.Data = make(map[string]string, len(data))
	}
	for k, v := range data {
		sess.Data[k] = v
	}
	return s.put(ctx, conversationID, sess)
}

func (s *RedisStore) Clear(ctx context.Context, conversationID int64) error {
	if err := s.client.Del(ctx, s.key(conversationID)).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func (s *RedisStore) put(ctx context.Context, conversationID int64, sess domain.Session) error {
	raw, err := json.Marshal(sessionRecord{State: sess.State, Data: sess.Data})
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(conversationID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}
