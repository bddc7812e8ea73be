package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oral-coach-be/internal/entity"
)

// SessionSnapshotRepository mirrors live sessions into redis so a
// sibling instance can inspect them. It is best-effort: the in-memory
// store remains the source of truth and redis failures never fail a turn.
type SessionSnapshotRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionSnapshotRepository(rdb *redis.Client, ttl time.Duration) *SessionSnapshotRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionSnapshotRepository{rdb: rdb, ttl: ttl}
}

func (r *SessionSnapshotRepository) key(sessionKey string) string {
	return "oral_session:" + sessionKey
}

func (r *SessionSnapshotRepository) Save(ctx context.Context, session *entity.PracticeSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	return r.rdb.Set(ctx, r.key(session.Key), data, r.ttl).Err()
}

func (r *SessionSnapshotRepository) Get(ctx context.Context, sessionKey string) (*entity.PracticeSession, bool, error) {
	data, err := r.rdb.Get(ctx, r.key(sessionKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var session entity.PracticeSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, false, fmt.Errorf("unmarshal session snapshot: %w", err)
	}
	return &session, true, nil
}

func (r *SessionSnapshotRepository) Delete(ctx context.Context, sessionKey string) error {
	return r.rdb.Del(ctx, r.key(sessionKey)).Err()
}
