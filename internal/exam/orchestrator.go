package exam

import (
	"fmt"
	"strings"
	"time"

	"oral-coach-be/internal/dataset"
	"oral-coach-be/internal/pkg/logger"
	"oral-coach-be/internal/scoring"
)

type Mode string

const (
	// ModePractice gives instant feedback after each turn.
	ModePractice Mode = "practice"
	// ModeExamSimulation withholds all feedback until the final report.
	ModeExamSimulation Mode = "exam_simulation"
)

// comprehensionPhase gets a listening asset attached on load: the coach
// reads the transcript aloud and asks the learner to summarize it.
const comprehensionPhase = "2"

// questionsPerPhase is the batch size drawn when a phase starts.
const questionsPerPhase = 5

// maxErrorsPerTurn caps instant error detection so a single weak turn does
// not bury the learner in corrections.
const maxErrorsPerTurn = 3

// SessionConfig is caller-supplied and immutable for the session lifetime.
type SessionConfig struct {
	Language    string   `json:"language"`
	TargetLevel string   `json:"target_level"`
	Mode        Mode     `json:"mode"`
	Phases      []string `json:"phases"`
}

// SessionState is owned exclusively by the orchestrator. It is mutated once
// per turn and discarded (or snapshotted) at session end.
type SessionState struct {
	Config                SessionConfig           `json:"config"`
	CurrentPhaseIndex     int                     `json:"current_phase_index"`
	CurrentScenario       *dataset.Scenario       `json:"current_scenario"`
	CurrentQuestions      []dataset.Question      `json:"current_questions"`
	CurrentListeningAsset *dataset.ListeningAsset `json:"current_listening_asset"`
	QuestionIndex         int                     `json:"question_index"`
	UsedScenarioIds       []string                `json:"used_scenario_ids"`
	UsedQuestionIds       []string                `json:"used_question_ids"`
	TurnCount             int                     `json:"turn_count"`
	Errors                []scoring.DetectedError `json:"errors"`
	StartedAt             time.Time               `json:"started_at"`
}

// TurnResult tells the caller what to do next.
type TurnResult struct {
	NextQuestion    string                  `json:"next_question,omitempty"`
	ErrorsDetected  []scoring.DetectedError `json:"errors_detected"`
	PhaseComplete   bool                    `json:"phase_complete"`
	SessionComplete bool                    `json:"session_complete"`
	Feedback        string                  `json:"feedback,omitempty"`
}

// InitResult is everything needed to open the conversation.
type InitResult struct {
	SystemPromptContext string
	OpeningScenario     *dataset.Scenario
	OpeningQuestions    []dataset.Question
	ListeningAsset      *dataset.ListeningAsset
}

// Orchestrator drives the turn-by-turn session state machine. It is
// stateless itself; all mutable state lives in SessionState, and the caller
// must not process two turns for the same session concurrently.
type Orchestrator struct {
	store    *dataset.Store
	selector *dataset.Selector
	engine   *scoring.Engine
	log      logger.ILogger
}

func NewOrchestrator(store *dataset.Store, selector *dataset.Selector, engine *scoring.Engine, log logger.ILogger) *Orchestrator {
	return &Orchestrator{store: store, selector: selector, engine: engine, log: log}
}

// Initialize creates the session state and loads content for the first phase
// that has any. Phases with no scenario and no questions are skipped rather
// than stalling the session; if every phase is empty, ErrNoContent.
func (o *Orchestrator) Initialize(config SessionConfig) (*SessionState, *InitResult, error) {
	if len(config.Phases) == 0 {
		return nil, nil, fmt.Errorf("%w: no phases configured", ErrNoContent)
	}

	state := &SessionState{
		Config:          config,
		UsedScenarioIds: []string{},
		UsedQuestionIds: []string{},
		Errors:          []scoring.DetectedError{},
		StartedAt:       time.Now(),
	}

	if !o.loadFirstAvailablePhase(state, 0) {
		return nil, nil, ErrNoContent
	}

	result := &InitResult{
		SystemPromptContext: o.store.CoachContext(config.Language, config.TargetLevel, config.Phases[state.CurrentPhaseIndex]),
		OpeningScenario:     state.CurrentScenario,
		OpeningQuestions:    state.CurrentQuestions,
		ListeningAsset:      state.CurrentListeningAsset,
	}

	o.log.Info("Orchestrator", "Session initialized", map[string]interface{}{
		"language": config.Language,
		"level":    config.TargetLevel,
		"mode":     string(config.Mode),
		"phases":   config.Phases,
	})

	return state, result, nil
}

// ProcessTurn advances the state machine by one learner message.
func (o *Orchestrator) ProcessTurn(state *SessionState, userMessage string) *TurnResult {
	state.TurnCount++

	errors := o.engine.DetectCommonErrors(userMessage, state.Config.Language, maxErrorsPerTurn)
	state.Errors = append(state.Errors, errors...)

	result := &TurnResult{ErrorsDetected: errors}

	questionsRemaining := state.QuestionIndex < len(state.CurrentQuestions)-1

	// Once the question batch is exhausted the scenario's ordered follow-ups
	// take over, one per turn, until they too run out. The first question is
	// presented at phase start, so turns only consume len(questions)-1 of them.
	questionTurns := len(state.CurrentQuestions) - 1
	if questionTurns < 0 {
		questionTurns = 0
	}
	followupIndex := state.TurnCount - questionTurns - 1
	hasFollowups := state.CurrentScenario != nil &&
		followupIndex >= 0 && followupIndex < len(state.CurrentScenario.Followups)

	phaseComplete := false
	switch {
	case questionsRemaining:
		state.QuestionIndex++
		result.NextQuestion = state.CurrentQuestions[state.QuestionIndex].QuestionText

	case hasFollowups:
		result.NextQuestion = state.CurrentScenario.Followups[followupIndex]

	default:
		phaseComplete = true
	}

	if phaseComplete {
		if o.loadFirstAvailablePhase(state, state.CurrentPhaseIndex+1) {
			// A new phase started immediately, so the caller sees a fresh
			// question rather than a phase break.
			state.TurnCount = 0
			if len(state.CurrentQuestions) > 0 {
				result.NextQuestion = state.CurrentQuestions[0].QuestionText
			} else if state.CurrentScenario != nil {
				result.NextQuestion = state.CurrentScenario.PromptText
			}
		} else {
			result.PhaseComplete = true
			result.SessionComplete = true
		}
	}

	// Instant feedback only in practice mode; exam simulation stays silent
	// until the end-of-session report.
	if state.Config.Mode == ModePractice && len(errors) > 0 {
		result.Feedback = renderInstantFeedback(errors)
	}

	return result
}

// SessionReport delegates to the scoring engine. Criterion scores are
// derived externally (model-assisted evaluation) and supplied by the caller.
func (o *Orchestrator) SessionReport(state *SessionState, criterionScores map[string]float64) *scoring.SessionScore {
	return o.engine.SessionScoreReport(state.Config.Language, criterionScores, state.Errors)
}

// Store exposes the content store for callers that assemble coach context.
func (o *Orchestrator) Store() *dataset.Store {
	return o.store
}

// CurrentPhase returns the phase id the session is currently in.
func (o *Orchestrator) CurrentPhase(state *SessionState) string {
	if state.CurrentPhaseIndex >= len(state.Config.Phases) {
		return ""
	}
	return state.Config.Phases[state.CurrentPhaseIndex]
}

// CurrentAnswerGuide returns the coach-only guide for the active scenario.
func (o *Orchestrator) CurrentAnswerGuide(state *SessionState) *dataset.AnswerGuide {
	if state.CurrentScenario == nil {
		return nil
	}
	return o.store.GetAnswerGuide(state.CurrentScenario.Id)
}

// loadFirstAvailablePhase loads content for the first phase at or after
// fromIndex that has a scenario or questions. Returns false when none does.
func (o *Orchestrator) loadFirstAvailablePhase(state *SessionState, fromIndex int) bool {
	for i := fromIndex; i < len(state.Config.Phases); i++ {
		if o.loadPhaseContent(state, i) {
			return true
		}
		o.log.Warn("Orchestrator", "Skipping phase with no content", map[string]interface{}{
			"phase":    state.Config.Phases[i],
			"language": state.Config.Language,
		})
	}
	return false
}

func (o *Orchestrator) loadPhaseContent(state *SessionState, phaseIndex int) bool {
	phase := state.Config.Phases[phaseIndex]
	language := state.Config.Language

	scenario := o.selector.Scenario(language, phase, state.UsedScenarioIds)
	questions := o.selector.Questions(language, phase, questionsPerPhase, state.UsedQuestionIds)

	if scenario == nil && len(questions) == 0 {
		return false
	}

	if scenario != nil {
		state.UsedScenarioIds = append(state.UsedScenarioIds, scenario.Id)
	}
	for _, q := range questions {
		state.UsedQuestionIds = append(state.UsedQuestionIds, q.Id)
	}

	var listening *dataset.ListeningAsset
	if phase == comprehensionPhase {
		listening = o.selector.ListeningAsset(language, "", nil)
	}

	state.CurrentPhaseIndex = phaseIndex
	state.CurrentScenario = scenario
	state.CurrentQuestions = questions
	state.CurrentListeningAsset = listening
	state.QuestionIndex = 0

	return true
}

func renderInstantFeedback(errors []scoring.DetectedError) string {
	parts := make([]string, 0, len(errors))
	for _, e := range errors {
		parts = append(parts, fmt.Sprintf("%s -> %s\n%s", e.Pattern, e.Correction, e.Feedback))
	}
	return strings.Join(parts, "\n\n")
}
