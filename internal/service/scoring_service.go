package service

import (
	"oral-coach-be/internal/dataset"
	"oral-coach-be/internal/dto"
	"oral-coach-be/internal/pkg/logger"
	"oral-coach-be/internal/scoring"
)

type IScoringService interface {
	ComputeScore(req dto.ComputeScoreRequest) *dto.ComputeScoreResponse
	DetectErrors(req dto.DetectErrorsRequest) []scoring.DetectedError
	CriterionFeedback(req dto.CriterionFeedbackRequest) string
	DatasetStats() dataset.Stats
	Rubrics(req dto.RubricsRequest) []dataset.Rubric
	ExamComponent(req dto.ExamComponentRequest) *dataset.ExamComponent
	CommonErrors(req dto.CommonErrorsRequest) []dataset.CommonError
}

type scoringService struct {
	store  *dataset.Store
	engine *scoring.Engine
	log    logger.ILogger
}

func NewScoringService(store *dataset.Store, engine *scoring.Engine, log logger.ILogger) IScoringService {
	return &scoringService{store: store, engine: engine, log: log}
}

func (s *scoringService) ComputeScore(req dto.ComputeScoreRequest) *dto.ComputeScoreResponse {
	composite, level := s.engine.CompositeScore(req.CriterionScores)
	return &dto.ComputeScoreResponse{Composite: composite, Level: level}
}

func (s *scoringService) DetectErrors(req dto.DetectErrorsRequest) []scoring.DetectedError {
	max := req.Max
	if max <= 0 {
		max = 10
	}
	return s.engine.DetectCommonErrors(req.Text, req.Language, max)
}

func (s *scoringService) CriterionFeedback(req dto.CriterionFeedbackRequest) string {
	return s.engine.CriterionFeedback(req.Language, req.Criterion, req.Score, "criterion_feedback")
}

func (s *scoringService) DatasetStats() dataset.Stats {
	return s.store.Stats()
}

func (s *scoringService) Rubrics(req dto.RubricsRequest) []dataset.Rubric {
	return s.store.GetRubrics(req.Language, req.Level)
}

func (s *scoringService) ExamComponent(req dto.ExamComponentRequest) *dataset.ExamComponent {
	return s.store.GetExamComponent(req.Language, req.Phase)
}

func (s *scoringService) CommonErrors(req dto.CommonErrorsRequest) []dataset.CommonError {
	return s.store.GetCommonErrors(req.Language, req.Category, req.LevelImpact)
}
