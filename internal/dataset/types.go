package dataset

// Record types for the assessment seed dataset (data/exam/seed/*.jsonl).
// All of these are immutable after load.

// ExamComponent describes one phase of the oral exam for a language.
type ExamComponent struct {
	Id          string   `json:"id"`
	Phase       string   `json:"phase"`
	Language    string   `json:"language"`
	Name        string   `json:"name"`
	DurationMin int      `json:"duration_min"`
	DurationMax int      `json:"duration_max"`
	Objectives  []string `json:"objectives"`
	Description string   `json:"description"`
}

// Rubric is one evaluation criterion descriptor for a proficiency level.
type Rubric struct {
	Id         string   `json:"id"`
	Criterion  string   `json:"criterion"`
	Level      string   `json:"level"`
	Language   string   `json:"language"`
	Descriptor string   `json:"descriptor"`
	Weight     float64  `json:"weight"`
	Indicators []string `json:"indicators"`
}

// LevelBand is the inclusive score range mapped to a discrete level.
type LevelBand struct {
	MinScore int `json:"min_score"`
	MaxScore int `json:"max_score"`
}

// GradingLogic is the dataset-wide scoring configuration. Singleton.
type GradingLogic struct {
	Id                    string               `json:"id"`
	RollingWindowSessions int                  `json:"rolling_window_sessions"`
	SustainedThreshold    float64              `json:"sustained_threshold"`
	LevelThresholds       map[string]LevelBand `json:"level_thresholds"`
	CriteriaWeights       map[string]float64   `json:"criteria_weights"`
	CompositeRules        []string             `json:"composite_rules"`
}

// Scenario is a situational prompt for one phase.
type Scenario struct {
	Id                  string   `json:"id"`
	Language            string   `json:"language"`
	Phase               string   `json:"phase"`
	Mode                string   `json:"mode"`
	LevelTarget         string   `json:"level_target"`
	TopicDomain         string   `json:"topic_domain"`
	Context             string   `json:"context"`
	Instructions        string   `json:"instructions"`
	PromptText          string   `json:"prompt_text"`
	Followups           []string `json:"followups"`
	ExpectedElements    []string `json:"expected_elements"`
	RubricIds           []string `json:"rubric_ids"`
	CommonErrorIds      []string `json:"common_error_ids"`
	FeedbackTemplateIds []string `json:"feedback_template_ids"`
}

// Question is one entry in the question bank.
type Question struct {
	Id            string   `json:"id"`
	Language      string   `json:"language"`
	Phase         string   `json:"phase"`
	LevelTarget   string   `json:"level_target"`
	TopicDomain   string   `json:"topic_domain"`
	QuestionText  string   `json:"question_text"`
	Followups     []string `json:"followups"`
	TimingSeconds int      `json:"timing_seconds"`
	Variants      []string `json:"variants"`
}

// CommonError is a known learner error pattern matched against transcripts.
type CommonError struct {
	Id                string `json:"id"`
	Language          string `json:"language"`
	Category          string `json:"category"`
	Pattern           string `json:"pattern"`
	Correction        string `json:"correction"`
	FeedbackText      string `json:"feedback_text"`
	LevelImpact       string `json:"level_impact"`
	CriterionAffected string `json:"criterion_affected"`
}

// FeedbackTemplate is a canned feedback text keyed by type and criterion.
type FeedbackTemplate struct {
	Id           string   `json:"id"`
	Language     string   `json:"language"`
	Type         string   `json:"type"`
	Criterion    string   `json:"criterion"`
	LevelContext string   `json:"level_context"`
	TemplateText string   `json:"template_text"`
	Variables    []string `json:"variables"`
}

// ListeningAsset is read aloud by the coach during the comprehension phase.
type ListeningAsset struct {
	Id                     string   `json:"id"`
	Language               string   `json:"language"`
	Type                   string   `json:"type"`
	Transcript             string   `json:"transcript"`
	SpeakerCount           int      `json:"speaker_count"`
	DurationEstimateSecond int      `json:"duration_estimate_seconds"`
	SummaryPoints          []string `json:"summary_points"`
	KeyDetails             []string `json:"key_details"`
	TopicDomain            string   `json:"topic_domain"`
}

// AnswerGuide is coach-only reference material for a scenario.
// It is never shown to the learner.
type AnswerGuide struct {
	Id                    string   `json:"id"`
	ScenarioId            string   `json:"scenario_id"`
	Language              string   `json:"language"`
	ExpectedElements      []string `json:"expected_elements"`
	RecommendedStructures []string `json:"recommended_structures"`
	CommonPitfalls        []string `json:"common_pitfalls"`
	ModelAnswerOutline    string   `json:"model_answer_outline"`
}

// Citation records the provenance of dataset material.
type Citation struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	Url          string `json:"url"`
	AccessedDate string `json:"accessed_date"`
	Notes        string `json:"notes"`
}
