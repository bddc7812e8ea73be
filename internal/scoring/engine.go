package scoring

import (
	"math"
	"strings"

	"oral-coach-be/internal/dataset"
	"oral-coach-be/internal/pkg/logger"
)

// Per-criterion level cut points. A criterion scoring at or above a cut point
// is rated at that level; below the lowest it stays unclassified.
const (
	cutTopTier = 75
	cutMidTier = 55
	cutLowTier = 36
)

// Criteria at or above strengthThreshold are strengths; below
// weaknessThreshold they are weaknesses and drive recommendations.
const (
	strengthThreshold = 75
	weaknessThreshold = 55
)

// DefaultSustainedRatio applies when the grading logic does not configure one.
const DefaultSustainedRatio = 0.7

const levelUnclassified = "X"

// DetectedError is one common-error pattern matched against learner text.
type DetectedError struct {
	Pattern           string `json:"pattern"`
	Correction        string `json:"correction"`
	Feedback          string `json:"feedback"`
	Category          string `json:"category"`
	CriterionAffected string `json:"criterion_affected"`
	LevelImpact       string `json:"level_impact"`
}

// CriterionResult is the per-criterion slice of a session score.
type CriterionResult struct {
	Score    float64 `json:"score"`
	Level    string  `json:"level"`
	Feedback string  `json:"feedback"`
}

// SessionScore is the full end-of-session report.
type SessionScore struct {
	Criteria        map[string]CriterionResult `json:"criteria"`
	OverallScore    int                        `json:"overall_score"`
	OverallLevel    string                     `json:"overall_level"`
	Strengths       []string                   `json:"strengths"`
	Weaknesses      []string                   `json:"weaknesses"`
	Recommendations []string                   `json:"recommendations"`
	Errors          []DetectedError            `json:"errors"`
}

// Engine computes composite and session scores against the loaded dataset.
type Engine struct {
	store    *dataset.Store
	selector *dataset.Selector
	log      logger.ILogger
}

func NewEngine(store *dataset.Store, selector *dataset.Selector, log logger.ILogger) *Engine {
	return &Engine{store: store, selector: selector, log: log}
}

// CompositeScore turns per-criterion scores into a weighted average and a
// discrete level. A criterion missing from the input contributes 0 while its
// weight stays in the denominator, so omissions penalize. A score above the
// top band's max clamps to the top level instead of going unclassified.
func (e *Engine) CompositeScore(criterionScores map[string]float64) (int, string) {
	logic, ok := e.store.Grading()
	if !ok {
		return 0, levelUnclassified
	}

	var weightedSum, totalWeight float64
	for criterion, weight := range logic.CriteriaWeights {
		weightedSum += criterionScores[criterion] * weight
		totalWeight += weight
	}

	overall := 0
	if totalWeight > 0 {
		overall = int(math.Round(weightedSum / totalWeight))
	}

	// When adjacent bands share a boundary, the score belongs to the band
	// whose min equals it, never the band below.
	level := levelUnclassified
	bestMin := -1
	topLevel, topMax := "", -1
	for lvl, band := range logic.LevelThresholds {
		if overall >= band.MinScore && overall <= band.MaxScore && band.MinScore > bestMin {
			level, bestMin = lvl, band.MinScore
		}
		if band.MaxScore > topMax {
			topLevel, topMax = lvl, band.MaxScore
		}
	}
	if level == levelUnclassified && topLevel != "" && overall > topMax {
		level = topLevel
	}

	return overall, level
}

// SessionScoreReport builds the end-of-session report from externally derived
// criterion scores and the errors accumulated over the session.
func (e *Engine) SessionScoreReport(language string, criterionScores map[string]float64, errors []DetectedError) *SessionScore {
	overall, overallLevel := e.CompositeScore(criterionScores)

	report := &SessionScore{
		Criteria:     make(map[string]CriterionResult, len(criterionScores)),
		OverallScore: overall,
		OverallLevel: overallLevel,
		Errors:       errors,
	}

	for criterion, score := range criterionScores {
		level := levelForScore(score)
		report.Criteria[criterion] = CriterionResult{
			Score:    score,
			Level:    level,
			Feedback: e.rubricFeedback(language, criterion, level),
		}

		if score >= strengthThreshold {
			report.Strengths = append(report.Strengths, criterion)
		} else if score < weaknessThreshold {
			report.Weaknesses = append(report.Weaknesses, criterion)
		}
	}

	for _, criterion := range report.Weaknesses {
		tpl := e.selector.FeedbackTemplate(language, "session_summary", criterion)
		if tpl == nil {
			tpl = e.selector.FeedbackTemplate(language, "session_summary", "general")
		}
		if tpl != nil {
			report.Recommendations = append(report.Recommendations, tpl.TemplateText)
		}
	}

	// A clean but imperfect session still deserves a next step.
	if len(report.Weaknesses) == 0 && overallLevel != topDatasetLevel(e.store) {
		if tpl := e.selector.FeedbackTemplate(language, "session_summary", "general"); tpl != nil {
			report.Recommendations = append(report.Recommendations, tpl.TemplateText)
		}
	}

	return report
}

// DetectCommonErrors matches known error patterns against the learner text.
// Matching is case-insensitive substring in dataset order, capped at max.
// It is a hint layer, not a graded signal.
func (e *Engine) DetectCommonErrors(text, language string, max int) []DetectedError {
	lowered := strings.ToLower(text)

	var detected []DetectedError
	for _, ce := range e.store.GetCommonErrors(language, "", "") {
		if len(detected) >= max {
			break
		}
		if ce.Pattern == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(ce.Pattern)) {
			detected = append(detected, DetectedError{
				Pattern:           ce.Pattern,
				Correction:        ce.Correction,
				Feedback:          ce.FeedbackText,
				Category:          ce.Category,
				CriterionAffected: ce.CriterionAffected,
				LevelImpact:       ce.LevelImpact,
			})
		}
	}
	return detected
}

// RollingAverage averages the last windowSize scores.
func (e *Engine) RollingAverage(scores []float64, windowSize int) float64 {
	window := lastWindow(scores, windowSize)
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range window {
		sum += s
	}
	return sum / float64(len(window))
}

// HasSustainedLevel reports whether the fraction of windowed scores at or
// above the level's minimum threshold meets the configured ratio.
func (e *Engine) HasSustainedLevel(scores []float64, level string, windowSize int) bool {
	logic, ok := e.store.Grading()
	if !ok {
		return false
	}
	band, ok := logic.LevelThresholds[level]
	if !ok {
		return false
	}

	ratio := logic.SustainedThreshold
	if ratio <= 0 {
		ratio = DefaultSustainedRatio
	}

	window := lastWindow(scores, windowSize)
	if len(window) == 0 {
		return false
	}

	met := 0
	for _, s := range window {
		if s >= float64(band.MinScore) {
			met++
		}
	}
	return float64(met)/float64(len(window)) >= ratio
}

// CriterionFeedback returns rubric-grounded feedback text for one criterion
// score, used by the standalone feedback endpoint.
func (e *Engine) CriterionFeedback(language, criterion string, score float64, typ string) string {
	level := levelForScore(score)
	if fb := e.rubricFeedback(language, criterion, level); fb != "" {
		return fb
	}
	if tpl := e.selector.FeedbackTemplate(language, typ, criterion); tpl != nil {
		return tpl.TemplateText
	}
	return ""
}

func (e *Engine) rubricFeedback(language, criterion, level string) string {
	for _, r := range e.store.GetRubrics(language, level) {
		if strings.EqualFold(r.Criterion, criterion) {
			return r.Descriptor
		}
	}
	return ""
}

func levelForScore(score float64) string {
	switch {
	case score >= cutTopTier:
		return "C"
	case score >= cutMidTier:
		return "B"
	case score >= cutLowTier:
		return "A"
	default:
		return levelUnclassified
	}
}

func topDatasetLevel(store *dataset.Store) string {
	logic, ok := store.Grading()
	if !ok {
		return "C"
	}
	top, topMax := "C", -1
	for lvl, band := range logic.LevelThresholds {
		if band.MaxScore > topMax {
			top, topMax = lvl, band.MaxScore
		}
	}
	return top
}

func lastWindow(scores []float64, windowSize int) []float64 {
	if windowSize <= 0 || len(scores) <= windowSize {
		return scores
	}
	return scores[len(scores)-windowSize:]
}
