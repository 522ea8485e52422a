package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"heritage_hunter/internal/domain"
)

// Sessions stores session:<token> -> {user_id, csrf}. The login flow that issues
// sessions lives outside this service.
type Sessions struct{ c *redis.Client }

func NewSessions(c *redis.Client) *Sessions { return &Sessions{c: c} }

func sessionKey(token string) string { return "session:" + token }

func (s *Sessions) Issue(ctx context.Context, userID int64, ttl time.Duration) (string, domain.Session, error) {
	token := uuid.NewString()
	sess := domain.Session{UserID: userID, CSRF: uuid.NewString()}
	b, err := json.Marshal(sess)
	if err != nil {
		return "", domain.Session{}, err
	}
	if err := s.c.Set(ctx, sessionKey(token), b, ttl).Err(); err != nil {
		return "", domain.Session{}, fmt.Errorf("store session: %w", err)
	}
	return token, sess, nil
}

func (s *Sessions) Lookup(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}
	v, err := s.c.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.Session{}, err
	}
	var sess domain.Session
	if err := json.Unmarshal(v, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *Sessions) Revoke(ctx context.Context, token string) error {
	return s.c.Del(ctx, sessionKey(token)).Err()
}
