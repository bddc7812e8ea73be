package scoring

import (
	"math/rand"
	"testing"

	"oral-coach-be/internal/dataset"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func engineFixture() *Engine {
	store := &dataset.Store{
		GradingLogic: []dataset.GradingLogic{{
			Id:                    "gl-1",
			RollingWindowSessions: 5,
			SustainedThreshold:    0.8,
			LevelThresholds: map[string]dataset.LevelBand{
				"A": {MinScore: 36, MaxScore: 54},
				"B": {MinScore: 55, MaxScore: 74},
				"C": {MinScore: 75, MaxScore: 100},
			},
			CriteriaWeights: map[string]float64{
				"fluency":  0.5,
				"grammar":  0.3,
				"richness": 0.2,
			},
		}},
		Rubrics: []dataset.Rubric{
			{Id: "r-1", Criterion: "fluency", Level: "B", Language: "FR", Descriptor: "Débit régulier avec quelques pauses."},
		},
		CommonErrors: []dataset.CommonError{
			{Id: "ce-1", Language: "FR", Pattern: "je suis allé à le", Correction: "je suis allé au", Category: "grammar"},
			{Id: "ce-2", Language: "FR", Pattern: "malgré que", Correction: "bien que", Category: "grammar"},
			{Id: "ce-3", Language: "FR", Pattern: "si j'aurais", Correction: "si j'avais", Category: "grammar"},
		},
		FeedbackTemplates: []dataset.FeedbackTemplate{
			{Id: "ft-1", Language: "FR", Type: "session_summary", Criterion: "grammar", TemplateText: "Révisez les temps composés."},
			{Id: "ft-2", Language: "FR", Type: "session_summary", Criterion: "general", TemplateText: "Continuez à pratiquer régulièrement."},
		},
	}
	selector := dataset.NewSelector(store, rand.New(rand.NewSource(1)))
	return NewEngine(store, selector, nopLogger{})
}

func TestCompositeScoreWeightedAverage(t *testing.T) {
	e := engineFixture()

	tests := []struct {
		name      string
		scores    map[string]float64
		wantScore int
		wantLevel string
	}{
		{
			name:      "all criteria present",
			scores:    map[string]float64{"fluency": 80, "grammar": 60, "richness": 70},
			wantScore: 72, // 0.5*80 + 0.3*60 + 0.2*70
			wantLevel: "B",
		},
		{
			name:      "missing criterion counts as zero",
			scores:    map[string]float64{"fluency": 80, "grammar": 60},
			wantScore: 58,
			wantLevel: "B",
		},
		{
			name:      "composite above the top band clamps to the top level",
			scores:    map[string]float64{"fluency": 120, "grammar": 110, "richness": 100},
			wantScore: 113, // 0.5*120 + 0.3*110 + 0.2*100
			wantLevel: "C",
		},
		{
			name:      "boundary score belongs to the upper band",
			scores:    map[string]float64{"fluency": 55, "grammar": 55, "richness": 55},
			wantScore: 55,
			wantLevel: "B",
		},
		{
			name:      "below the lowest band is unclassified",
			scores:    map[string]float64{"fluency": 10, "grammar": 10, "richness": 10},
			wantScore: 10,
			wantLevel: "X",
		},
		{
			name:      "perfect scores hit the top band",
			scores:    map[string]float64{"fluency": 100, "grammar": 100, "richness": 100},
			wantScore: 100,
			wantLevel: "C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level := e.CompositeScore(tt.scores)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestCompositeScoreWithoutGradingLogic(t *testing.T) {
	store := &dataset.Store{}
	e := NewEngine(store, dataset.NewSelector(store, rand.New(rand.NewSource(1))), nopLogger{})

	score, level := e.CompositeScore(map[string]float64{"fluency": 90})
	assert.Equal(t, 0, score)
	assert.Equal(t, "X", level)
}

func TestSessionScoreReport(t *testing.T) {
	e := engineFixture()

	report := e.SessionScoreReport("FR", map[string]float64{
		"fluency":  80,
		"grammar":  40,
		"richness": 60,
	}, []DetectedError{{Pattern: "malgré que"}})

	assert.Equal(t, []string{"fluency"}, report.Strengths)
	assert.Equal(t, []string{"grammar"}, report.Weaknesses)
	assert.Len(t, report.Errors, 1)

	// The weak criterion pulls a session_summary template in. Both the
	// grammar-specific and the general template are eligible.
	if assert.Len(t, report.Recommendations, 1) {
		assert.Contains(t, []string{
			"Révisez les temps composés.",
			"Continuez à pratiquer régulièrement.",
		}, report.Recommendations[0])
	}

	// Rubric descriptor feeds per-criterion feedback at the matching level.
	assert.Equal(t, "B", report.Criteria["fluency"].Level)
	assert.Equal(t, "Débit régulier avec quelques pauses.", report.Criteria["fluency"].Feedback)
}

func TestSessionScoreReportCleanSessionStillRecommends(t *testing.T) {
	e := engineFixture()

	report := e.SessionScoreReport("FR", map[string]float64{
		"fluency":  70,
		"grammar":  70,
		"richness": 70,
	}, nil)

	assert.Empty(t, report.Weaknesses)
	assert.Equal(t, "B", report.OverallLevel)
	assert.Contains(t, report.Recommendations, "Continuez à pratiquer régulièrement.")
}

func TestDetectCommonErrors(t *testing.T) {
	e := engineFixture()

	detected := e.DetectCommonErrors("Hier je suis allé à le bureau, malgré que j'étais fatigué", "FR", 10)
	assert.Len(t, detected, 2)
	assert.Equal(t, "je suis allé au", detected[0].Correction)

	// Case-insensitive matching.
	detected = e.DetectCommonErrors("MALGRÉ QUE ce soit difficile", "FR", 10)
	assert.Len(t, detected, 1)

	// Cap applies in dataset order.
	detected = e.DetectCommonErrors("je suis allé à le parc malgré que si j'aurais su", "FR", 2)
	assert.Len(t, detected, 2)

	assert.Empty(t, e.DetectCommonErrors("une phrase parfaitement correcte", "FR", 10))
	assert.Empty(t, e.DetectCommonErrors("malgré que", "EN", 10))
}

func TestRollingAverage(t *testing.T) {
	e := engineFixture()

	assert.Equal(t, 0.0, e.RollingAverage(nil, 5))
	assert.Equal(t, 60.0, e.RollingAverage([]float64{50, 60, 70}, 5))
	// Only the last 2 scores count.
	assert.Equal(t, 65.0, e.RollingAverage([]float64{10, 60, 70}, 2))
}

func TestHasSustainedLevel(t *testing.T) {
	e := engineFixture()

	tests := []struct {
		name   string
		scores []float64
		level  string
		want   bool
	}{
		{"all scores above threshold", []float64{60, 62, 70, 58, 65}, "B", true},
		{"four of five meets 0.8 ratio", []float64{60, 62, 70, 40, 65}, "B", true},
		{"three of five misses 0.8 ratio", []float64{60, 62, 40, 40, 65}, "B", false},
		{"single qualifying score in short history", []float64{60}, "B", true},
		{"empty history", nil, "B", false},
		{"unknown level", []float64{90, 90, 90, 90, 90}, "D", false},
		{"older scores outside the window are ignored", []float64{10, 10, 10, 60, 62, 70, 58, 65}, "B", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.HasSustainedLevel(tt.scores, tt.level, 5))
		})
	}
}

func TestCriterionFeedback(t *testing.T) {
	e := engineFixture()

	// Score 60 maps to level B, which has a rubric descriptor for fluency.
	fb := e.CriterionFeedback("FR", "fluency", 60, "session_summary")
	assert.Equal(t, "Débit régulier avec quelques pauses.", fb)

	// No rubric for grammar: falls back to a feedback template.
	fb = e.CriterionFeedback("FR", "grammar", 60, "session_summary")
	assert.Contains(t, []string{
		"Révisez les temps composés.",
		"Continuez à pratiquer régulièrement.",
	}, fb)

	assert.Empty(t, e.CriterionFeedback("EN", "pronunciation", 60, "session_summary"))
}
