package dto

import (
	"oral-coach-be/internal/dataset"
	"oral-coach-be/internal/scoring"
)

type InitSessionRequest struct {
	Language    string   `json:"language" validate:"required,oneof=FR EN"`
	TargetLevel string   `json:"target_level" validate:"required,oneof=A B C"`
	Mode        string   `json:"mode" validate:"required,oneof=practice exam_simulation"`
	Phases      []string `json:"phases" validate:"required,min=1,dive,oneof=1 2 3 4"`
	CoachKey    string   `json:"coach_key" validate:"omitempty,oneof=STEVEN SUE_ANNE ERIKA PRECIOSA"`
}

type ScenarioResponse struct {
	Id           string `json:"id"`
	Context      string `json:"context"`
	Instructions string `json:"instructions"`
	PromptText   string `json:"prompt_text"`
}

type QuestionResponse struct {
	Id            string `json:"id"`
	QuestionText  string `json:"question_text"`
	TimingSeconds int    `json:"timing_seconds"`
}

type ListeningAssetResponse struct {
	Id                     string `json:"id"`
	Type                   string `json:"type"`
	Transcript             string `json:"transcript"`
	DurationEstimateSecond int    `json:"duration_estimate_seconds"`
}

type InitSessionResponse struct {
	SessionKey          string                  `json:"session_key"`
	SystemPromptContext string                  `json:"system_prompt_context"`
	OpeningScenario     *ScenarioResponse       `json:"opening_scenario"`
	OpeningQuestions    []QuestionResponse      `json:"opening_questions"`
	ListeningAsset      *ListeningAssetResponse `json:"listening_asset,omitempty"`
	Greeting            string                  `json:"greeting"`
}

type TurnRequest struct {
	SessionKey  string `json:"session_key" validate:"required"`
	UserMessage string `json:"user_message" validate:"required,min=1"`
}

type TurnResponse struct {
	CoachResponse   string                  `json:"coach_response,omitempty"`
	InstantFeedback string                  `json:"instant_feedback,omitempty"`
	ErrorsDetected  []scoring.DetectedError `json:"errors_detected"`
	NextQuestion    string                  `json:"next_question,omitempty"`
	PhaseComplete   bool                    `json:"phase_complete"`
	SessionComplete bool                    `json:"session_complete"`
	NewScenario     *ScenarioResponse       `json:"new_scenario,omitempty"`
	TurnContext     string                  `json:"turn_context"`
	TurnCount       int                     `json:"turn_count"`
	CurrentPhase    string                  `json:"current_phase"`
	Evaluation      *EvaluationResponse     `json:"evaluation,omitempty"`
}

type ReportRequest struct {
	SessionKey      string             `json:"session_key" validate:"required"`
	CriterionScores map[string]float64 `json:"criterion_scores" validate:"required"`
}

type EvaluationResponse struct {
	Score           float64            `json:"score"`
	Passed          bool               `json:"passed"`
	CriteriaScores  map[string]float64 `json:"criteria_scores,omitempty"`
	Feedback        string             `json:"feedback"`
	Corrections     []string           `json:"corrections"`
	Suggestions     []string           `json:"suggestions"`
	LevelAssessment string             `json:"level_assessment,omitempty"`
}

type ComputeScoreRequest struct {
	Language        string             `json:"language" validate:"required,oneof=FR EN"`
	CriterionScores map[string]float64 `json:"criterion_scores" validate:"required"`
}

type ComputeScoreResponse struct {
	Composite int    `json:"composite"`
	Level     string `json:"level"`
}

type DetectErrorsRequest struct {
	Language string `json:"language" validate:"required,oneof=FR EN"`
	Text     string `json:"text" validate:"required"`
	Max      int    `json:"max" validate:"omitempty,min=1,max=20"`
}

type CriterionFeedbackRequest struct {
	Language  string  `json:"language" validate:"required,oneof=FR EN"`
	Criterion string  `json:"criterion" validate:"required"`
	Score     float64 `json:"score" validate:"min=0,max=100"`
}

type SustainedLevelRequest struct {
	// RecentScores may be omitted; the learner's persisted score history
	// is used instead (Language required in that case).
	RecentScores []float64 `json:"recent_scores"`
	Language     string    `json:"language" validate:"omitempty,oneof=FR EN"`
	TargetLevel  string    `json:"target_level" validate:"required,oneof=A B C"`
	WindowSize   int       `json:"window_size" validate:"omitempty,min=1"`
}

type SustainedLevelResponse struct {
	Sustained      bool    `json:"sustained"`
	RollingAverage float64 `json:"rolling_average"`
}

type DatasetStatsResponse struct {
	Stats dataset.Stats `json:"stats"`
}

type RubricsRequest struct {
	Language string `json:"language" validate:"required,oneof=FR EN"`
	Level    string `json:"level" validate:"required,oneof=A B C"`
}

type ExamComponentRequest struct {
	Language string `json:"language" validate:"required,oneof=FR EN"`
	Phase    string `json:"phase" validate:"required,oneof=1 2 3 4"`
}

type CommonErrorsRequest struct {
	Language    string `json:"language" validate:"required,oneof=FR EN"`
	Category    string `json:"category"`
	LevelImpact string `json:"level_impact" validate:"omitempty,oneof=A B C"`
}
