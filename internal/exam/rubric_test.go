package exam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassThresholds(t *testing.T) {
	assert.Equal(t, 40, PassThreshold("A"))
	assert.Equal(t, 55, PassThreshold("B"))
	assert.Equal(t, 70, PassThreshold("C"))

	// Unknown levels fall back to B so evaluation always has criteria.
	assert.Equal(t, 55, PassThreshold("Z"))
	assert.Equal(t, "B", Rubric("").Level)
}

func TestIsPassing(t *testing.T) {
	tests := []struct {
		level string
		score float64
		want  bool
	}{
		{"A", 40, true},
		{"A", 39.9, false},
		{"B", 55, true},
		{"B", 54, false},
		{"C", 70, true},
		{"C", 69.99, false},
		{"C", 100, true},
		{"A", 0, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPassing(tt.level, tt.score),
			"level %s score %.2f", tt.level, tt.score)
	}
}

func TestRubricHasFourCriteriaPerLevel(t *testing.T) {
	for _, level := range []string{"A", "B", "C"} {
		r := Rubric(level)
		assert.Len(t, r.Criteria, 4, "level %s", level)
		for _, c := range r.Criteria {
			assert.Equal(t, 25, c.MaxPoints)
			assert.NotEmpty(t, c.Excellent)
			assert.NotEmpty(t, c.Insufficient)
		}
	}
}

func TestScoringPrompt(t *testing.T) {
	prompt := ScoringPrompt("C", "oral_expression")

	assert.Contains(t, prompt, "Level C")
	assert.Contains(t, prompt, "Pass threshold: 70/100")
	assert.Contains(t, prompt, "oral_expression")
	assert.Contains(t, prompt, `"criteriaScores"`)

	// Every structured-output field the evaluator must return is named.
	for _, field := range []string{
		"grammaticalAccuracy", "vocabularyRegister", "coherenceOrganization",
		"taskCompletion", "fluency", "pronunciation", "interaction",
		"feedback", "corrections", "suggestions", "levelAssessment",
	} {
		assert.True(t, strings.Contains(prompt, field), "missing field %s", field)
	}
}
