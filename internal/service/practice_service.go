package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"oral-coach-be/internal/dataset"
	"oral-coach-be/internal/dto"
	"oral-coach-be/internal/entity"
	"oral-coach-be/internal/exam"
	"oral-coach-be/internal/pkg/logger"
	"oral-coach-be/internal/pkg/mailer"
	"oral-coach-be/internal/repository/contract"
	"oral-coach-be/internal/repository/memory"
	"oral-coach-be/internal/repository/redisstore"
	"oral-coach-be/internal/scoring"
	"oral-coach-be/pkg/events"
	"oral-coach-be/pkg/llm"
	pkgNats "oral-coach-be/pkg/nats"
)

const (
	defaultCoachKey   = "STEVEN"
	defaultWindowSize = 5

	sessionKeyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

type IPracticeService interface {
	InitSession(ctx context.Context, userId uuid.UUID, req dto.InitSessionRequest) (*dto.InitSessionResponse, error)
	ProcessTurn(ctx context.Context, userId uuid.UUID, req dto.TurnRequest) (*dto.TurnResponse, error)
	SessionReport(ctx context.Context, userId uuid.UUID, userEmail string, req dto.ReportRequest) (*scoring.SessionScore, error)
	EndSession(ctx context.Context, userId uuid.UUID, sessionKey string) error
	SustainedLevel(ctx context.Context, userId uuid.UUID, req dto.SustainedLevelRequest) (*dto.SustainedLevelResponse, error)
	GetSession(userId uuid.UUID, sessionKey string) (*entity.PracticeSession, error)
}

type practiceService struct {
	orchestrator *exam.Orchestrator
	engine       *scoring.Engine
	coach        ICoachService
	sessions     *memory.SessionRepository
	snapshots    *redisstore.SessionSnapshotRepository
	scores       contract.SessionScoreRepository
	bus          message.Publisher
	busTopic     string
	natsPub      *pkgNats.Publisher
	mail         mailer.IEmailService
	log          logger.ILogger
}

func NewPracticeService(
	orchestrator *exam.Orchestrator,
	engine *scoring.Engine,
	coach ICoachService,
	sessions *memory.SessionRepository,
	snapshots *redisstore.SessionSnapshotRepository,
	scores contract.SessionScoreRepository,
	bus message.Publisher,
	busTopic string,
	natsPub *pkgNats.Publisher,
	mail mailer.IEmailService,
	log logger.ILogger,
) IPracticeService {
	return &practiceService{
		orchestrator: orchestrator,
		engine:       engine,
		coach:        coach,
		sessions:     sessions,
		snapshots:    snapshots,
		scores:       scores,
		bus:          bus,
		busTopic:     busTopic,
		natsPub:      natsPub,
		mail:         mail,
		log:          log,
	}
}

func (s *practiceService) InitSession(ctx context.Context, userId uuid.UUID, req dto.InitSessionRequest) (*dto.InitSessionResponse, error) {
	config := exam.SessionConfig{
		Language:    req.Language,
		TargetLevel: req.TargetLevel,
		Mode:        exam.Mode(req.Mode),
		Phases:      req.Phases,
	}

	state, result, err := s.orchestrator.Initialize(config)
	if err != nil {
		return nil, err
	}

	coachKey := req.CoachKey
	if coachKey == "" {
		coachKey = defaultCoachKey
	}

	session := &entity.PracticeSession{
		Key:       newSessionKey(),
		UserId:    userId,
		CoachKey:  coachKey,
		State:     state,
		History:   []llm.Message{},
		CreatedAt: time.Now(),
	}
	s.sessions.Save(session)
	s.snapshot(ctx, session)

	greeting := s.coach.InitialGreeting(coachKey, req.Language, req.TargetLevel, skillForPhase(s.orchestrator.CurrentPhase(state)), "")

	s.log.Info("practice", "oral session initialized", map[string]interface{}{
		"session_key": session.Key,
		"user_id":     userId.String(),
		"language":    req.Language,
		"level":       req.TargetLevel,
		"mode":        req.Mode,
	})

	resp := &dto.InitSessionResponse{
		SessionKey:          session.Key,
		SystemPromptContext: result.SystemPromptContext,
		OpeningScenario:     toScenarioResponse(result.OpeningScenario),
		OpeningQuestions:    toQuestionResponses(result.OpeningQuestions),
		ListeningAsset:      toListeningAssetResponse(result.ListeningAsset),
		Greeting:            greeting,
	}
	return resp, nil
}

func (s *practiceService) ProcessTurn(ctx context.Context, userId uuid.UUID, req dto.TurnRequest) (*dto.TurnResponse, error) {
	unlock := s.sessions.Lock(req.SessionKey)
	defer unlock()

	session, err := s.ownedSession(userId, req.SessionKey)
	if err != nil {
		return nil, err
	}
	state := session.State

	result := s.orchestrator.ProcessTurn(state, req.UserMessage)
	turnContext := s.orchestrator.TurnContext(state)
	phase := s.orchestrator.CurrentPhase(state)

	cc := ConversationContext{
		CoachKey:         session.CoachKey,
		Language:         state.Config.Language,
		Level:            state.Config.TargetLevel,
		Skill:            skillForPhase(phase),
		ReferenceContext: s.orchestrator.Store().CoachContext(state.Config.Language, state.Config.TargetLevel, phase),
		TurnContext:      turnContext,
		History:          session.History,
	}

	// Generation and evaluation are independent of each other's output;
	// run them in parallel and join before answering.
	type genResult struct {
		text string
		err  error
	}
	genCh := make(chan genResult, 1)
	go func() {
		text, err := s.coach.GenerateCoachResponse(ctx, req.UserMessage, cc)
		genCh <- genResult{text: text, err: err}
	}()

	var evaluation *dto.EvaluationResponse
	if state.Config.Mode == exam.ModePractice {
		evaluation = s.coach.EvaluateResponse(ctx, req.UserMessage, state.Config.Language, state.Config.TargetLevel, cc.Skill)
	}

	gen := <-genCh
	if gen.err != nil {
		return nil, gen.err
	}

	session.History = append(session.History,
		llm.Message{Role: "user", Content: req.UserMessage},
		llm.Message{Role: "assistant", Content: gen.text},
	)
	s.sessions.Save(session)
	s.snapshot(ctx, session)

	resp := &dto.TurnResponse{
		CoachResponse:   gen.text,
		InstantFeedback: result.Feedback,
		ErrorsDetected:  result.ErrorsDetected,
		NextQuestion:    result.NextQuestion,
		PhaseComplete:   result.PhaseComplete,
		SessionComplete: result.SessionComplete,
		TurnContext:     turnContext,
		TurnCount:       state.TurnCount,
		CurrentPhase:    phase,
		Evaluation:      evaluation,
	}
	// TurnCount resets to zero only when a new phase just loaded; surface
	// its scenario so the client can show the fresh context.
	if state.TurnCount == 0 && !result.SessionComplete {
		resp.NewScenario = toScenarioResponse(state.CurrentScenario)
	}

	if result.SessionComplete {
		s.publishEvent(ctx, events.TypeSessionCompleted, map[string]interface{}{
			"session_key": session.Key,
			"user_id":     userId.String(),
			"turns":       state.TurnCount,
		})
	}

	return resp, nil
}

func (s *practiceService) SessionReport(ctx context.Context, userId uuid.UUID, userEmail string, req dto.ReportRequest) (*scoring.SessionScore, error) {
	unlock := s.sessions.Lock(req.SessionKey)
	defer unlock()

	session, err := s.ownedSession(userId, req.SessionKey)
	if err != nil {
		return nil, err
	}
	state := session.State

	report := s.orchestrator.SessionReport(state, req.CriterionScores)

	score := &entity.SessionScore{
		UserId:          userId,
		SessionKey:      session.Key,
		Language:        state.Config.Language,
		TargetLevel:     state.Config.TargetLevel,
		Mode:            string(state.Config.Mode),
		Composite:       report.OverallScore,
		Level:           report.OverallLevel,
		CriterionScores: req.CriterionScores,
	}
	if s.scores != nil {
		if err := s.scores.Create(ctx, score); err != nil {
			s.log.Error("practice", "failed to persist session score", map[string]interface{}{
				"session_key": session.Key,
				"error":       err.Error(),
			})
		}
	}

	s.sessions.Delete(session.Key)
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, session.Key); err != nil {
			s.log.Warn("practice", "failed to delete session snapshot", map[string]interface{}{
				"session_key": session.Key,
				"error":       err.Error(),
			})
		}
	}

	s.publishEvent(ctx, events.TypeSessionScored, map[string]interface{}{
		"session_key": session.Key,
		"user_id":     userId.String(),
		"composite":   report.OverallScore,
		"level":       report.OverallLevel,
	})

	if s.mail != nil && userEmail != "" {
		if err := s.mail.SendSessionReport(userEmail, report); err != nil {
			s.log.Warn("practice", "failed to email session report", map[string]interface{}{
				"session_key": session.Key,
				"error":       err.Error(),
			})
		}
	}

	return report, nil
}

func (s *practiceService) EndSession(ctx context.Context, userId uuid.UUID, sessionKey string) error {
	unlock := s.sessions.Lock(sessionKey)
	defer unlock()

	session, err := s.ownedSession(userId, sessionKey)
	if errors.Is(err, exam.ErrSessionNotFound) {
		// Ending an already-gone session is not an error.
		return nil
	}
	if err != nil {
		return err
	}

	s.sessions.Delete(session.Key)
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, session.Key); err != nil {
			s.log.Warn("practice", "failed to delete session snapshot", map[string]interface{}{
				"session_key": session.Key,
				"error":       err.Error(),
			})
		}
	}

	s.publishEvent(ctx, events.TypeSessionAbandoned, map[string]interface{}{
		"session_key": sessionKey,
		"user_id":     userId.String(),
	})

	return nil
}

func (s *practiceService) SustainedLevel(ctx context.Context, userId uuid.UUID, req dto.SustainedLevelRequest) (*dto.SustainedLevelResponse, error) {
	windowSize := req.WindowSize
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}

	recent := req.RecentScores
	if len(recent) == 0 && s.scores != nil && req.Language != "" {
		history, err := s.scores.FindRecentByUser(ctx, userId, req.Language, windowSize)
		if err != nil {
			return nil, fmt.Errorf("load score history: %w", err)
		}
		// History is newest first; the engine wants chronological order.
		for i := len(history) - 1; i >= 0; i-- {
			recent = append(recent, float64(history[i].Composite))
		}
	}

	return &dto.SustainedLevelResponse{
		Sustained:      s.engine.HasSustainedLevel(recent, req.TargetLevel, windowSize),
		RollingAverage: s.engine.RollingAverage(recent, windowSize),
	}, nil
}

func (s *practiceService) GetSession(userId uuid.UUID, sessionKey string) (*entity.PracticeSession, error) {
	return s.ownedSession(userId, sessionKey)
}

func (s *practiceService) ownedSession(userId uuid.UUID, sessionKey string) (*entity.PracticeSession, error) {
	session, found := s.sessions.Get(sessionKey)
	if !found {
		return nil, exam.ErrSessionNotFound
	}
	if session.UserId != userId {
		return nil, exam.ErrSessionOwnership
	}
	return session, nil
}

func (s *practiceService) snapshot(ctx context.Context, session *entity.PracticeSession) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, session); err != nil {
		s.log.Warn("practice", "failed to write session snapshot", map[string]interface{}{
			"session_key": session.Key,
			"error":       err.Error(),
		})
	}
}

func (s *practiceService) publishEvent(ctx context.Context, eventType string, payload map[string]interface{}) {
	event := events.New(eventType, payload)

	if s.bus != nil {
		data, err := json.Marshal(payload)
		if err == nil {
			msg := message.NewMessage(uuid.NewString(), data)
			msg.Metadata.Set("event_type", eventType)
			if err := s.bus.Publish(s.busTopic, msg); err != nil {
				s.log.Warn("practice", "failed to publish bus event", map[string]interface{}{
					"event": eventType,
					"error": err.Error(),
				})
			}
		}
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, event); err != nil {
			s.log.Warn("practice", "failed to publish nats event", map[string]interface{}{
				"event": eventType,
				"error": err.Error(),
			})
		}
	}
}

func newSessionKey() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = sessionKeyAlphabet[rand.Intn(len(sessionKeyAlphabet))]
	}
	return fmt.Sprintf("oral_%d_%s", time.Now().UnixMilli(), suffix)
}

func skillForPhase(phase string) string {
	if phase == "2" {
		return "oral_comprehension"
	}
	return "oral_expression"
}

func toScenarioResponse(sc *dataset.Scenario) *dto.ScenarioResponse {
	if sc == nil {
		return nil
	}
	return &dto.ScenarioResponse{
		Id:           sc.Id,
		Context:      sc.Context,
		Instructions: sc.Instructions,
		PromptText:   sc.PromptText,
	}
}

func toQuestionResponses(questions []dataset.Question) []dto.QuestionResponse {
	out := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, dto.QuestionResponse{
			Id:            q.Id,
			QuestionText:  q.QuestionText,
			TimingSeconds: q.TimingSeconds,
		})
	}
	return out
}

func toListeningAssetResponse(asset *dataset.ListeningAsset) *dto.ListeningAssetResponse {
	if asset == nil {
		return nil
	}
	return &dto.ListeningAssetResponse{
		Id:                     asset.Id,
		Type:                   asset.Type,
		Transcript:             asset.Transcript,
		DurationEstimateSecond: asset.DurationEstimateSecond,
	}
}
