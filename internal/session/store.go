// Package session keeps portal logins in Redis behind an opaque cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "crew-portal/internal/common/errors"
	"crew-portal/internal/models"
)

const keyPrefix = "portal:session:"

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions as JSON with a sliding TTL.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl, now: time.Now}
}

// TTL is the session lifetime, also used as the cookie max-age.
func (s *Store) TTL() time.Duration { return s.ttl }

func key(id string) string { return keyPrefix + id }

// Create assigns a fresh id and stores sess.
func (s *Store) Create(ctx context.Context, sess models.Session) (*models.Session, error) {
	sess.ID = uuid.NewString()
	sess.CreatedAt = s.now().UTC()

	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, key(sess.ID), payload, s.ttl).Err(); err != nil {
		return nil, apperrors.NewCacheUnavailableError(err)
	}
	return &sess, nil
}

// Get loads a session by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	raw, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError(err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// Touch extends the session's TTL.
func (s *Store) Touch(ctx context.Context, id string) error {
	ok, err := s.rdb.Expire(ctx, key(id), s.ttl).Result()
	if err != nil {
		return apperrors.NewCacheUnavailableError(err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, key(id)).Err(); err != nil {
		return apperrors.NewCacheUnavailableError(err)
	}
	return nil
}
