package dto

import (
	"testing"

	"oral-coach-be/internal/pkg/serverutils"

	"github.com/stretchr/testify/assert"
)

func TestInitSessionRequestPhaseRange(t *testing.T) {
	base := InitSessionRequest{
		Language:    "FR",
		TargetLevel: "B",
		Mode:        "practice",
	}

	// The exam has four parts; all of them are admissible.
	full := base
	full.Phases = []string{"1", "2", "3", "4"}
	assert.NoError(t, serverutils.ValidateRequest(full))

	invalid := base
	invalid.Phases = []string{"1", "5"}
	assert.Error(t, serverutils.ValidateRequest(invalid))

	empty := base
	empty.Phases = nil
	assert.Error(t, serverutils.ValidateRequest(empty))
}

func TestExamComponentRequestPhaseRange(t *testing.T) {
	assert.NoError(t, serverutils.ValidateRequest(ExamComponentRequest{Language: "FR", Phase: "4"}))
	assert.Error(t, serverutils.ValidateRequest(ExamComponentRequest{Language: "FR", Phase: "0"}))
}
