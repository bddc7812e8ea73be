package contract

import (
	"context"

	"github.com/google/uuid"

	"oral-coach-be/internal/entity"
)

type SessionScoreRepository interface {
	Create(ctx context.Context, score *entity.SessionScore) error
	// FindRecentByUser returns the learner's most recent composites for a
	// language, newest first, capped at limit.
	FindRecentByUser(ctx context.Context, userId uuid.UUID, language string, limit int) ([]*entity.SessionScore, error)
}
