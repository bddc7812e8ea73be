package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionScore is the persisted outcome of one completed session. The
// score history feeds rolling-average and sustained-level checks.
type SessionScore struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	SessionKey      string
	Language        string
	TargetLevel     string
	Mode            string
	Composite       int
	Level           string
	CriterionScores map[string]float64
	CreatedAt       time.Time
}
