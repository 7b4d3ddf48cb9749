package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kaleidoscope/internal/domain"
)

// SessionStore implements ports.SessionStore on Redis. Each session lives at
// session:{userID}:{sessionID} with a TTL matching the refresh token expiry,
// so revocation-by-expiry needs no sweeper.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(userID, sessionID string) string {
	return fmt.Sprintf("session:%s:%s", userID, sessionID)
}

func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return domain.ErrSessionExpired
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := sessionKey(session.UserID, session.SessionID)
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// FindByRefreshToken scans the user's sessions for the one holding the given
// refresh token. A user has at most a handful of live sessions, so the scan
// stays cheap.
func (s *SessionStore) FindByRefreshToken(ctx context.Context, userID, refreshToken string) (*domain.Session, error) {
	pattern := sessionKey(userID, "*")

	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.rdb.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var session domain.Session
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}
		if session.RefreshToken == refreshToken {
			return &session, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SessionStore) Delete(ctx context.Context, userID, sessionID string) error {
	if err := s.rdb.Del(ctx, sessionKey(userID, sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
