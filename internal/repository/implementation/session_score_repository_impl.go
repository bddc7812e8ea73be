package implementation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"oral-coach-be/internal/entity"
	"oral-coach-be/internal/model"
	"oral-coach-be/internal/repository/contract"
)

type SessionScoreRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionScoreRepository(db *gorm.DB) contract.SessionScoreRepository {
	return &SessionScoreRepositoryImpl{db: db}
}

func (r *SessionScoreRepositoryImpl) Create(ctx context.Context, score *entity.SessionScore) error {
	m, err := toScoreModel(score)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	score.Id = m.Id
	score.CreatedAt = m.CreatedAt
	return nil
}

func (r *SessionScoreRepositoryImpl) FindRecentByUser(ctx context.Context, userId uuid.UUID, language string, limit int) ([]*entity.SessionScore, error) {
	var models []*model.SessionScore
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND language = ?", userId, language).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	scores := make([]*entity.SessionScore, 0, len(models))
	for _, m := range models {
		e, err := toScoreEntity(m)
		if err != nil {
			return nil, err
		}
		scores = append(scores, e)
	}
	return scores, nil
}

func toScoreModel(e *entity.SessionScore) (*model.SessionScore, error) {
	criteria, err := json.Marshal(e.CriterionScores)
	if err != nil {
		return nil, err
	}
	return &model.SessionScore{
		Id:              e.Id,
		UserId:          e.UserId,
		SessionKey:      e.SessionKey,
		Language:        e.Language,
		TargetLevel:     e.TargetLevel,
		Mode:            e.Mode,
		Composite:       e.Composite,
		Level:           e.Level,
		CriterionScores: datatypes.JSON(criteria),
		CreatedAt:       e.CreatedAt,
	}, nil
}

func toScoreEntity(m *model.SessionScore) (*entity.SessionScore, error) {
	criteria := map[string]float64{}
	if len(m.CriterionScores) > 0 {
		if err := json.Unmarshal(m.CriterionScores, &criteria); err != nil {
			return nil, err
		}
	}
	return &entity.SessionScore{
		Id:              m.Id,
		UserId:          m.UserId,
		SessionKey:      m.SessionKey,
		Language:        m.Language,
		TargetLevel:     m.TargetLevel,
		Mode:            m.Mode,
		Composite:       m.Composite,
		Level:           m.Level,
		CriterionScores: criteria,
		CreatedAt:       m.CreatedAt,
	}, nil
}
