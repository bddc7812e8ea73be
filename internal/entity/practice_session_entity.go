package entity

import (
	"time"

	"github.com/google/uuid"

	"oral-coach-be/internal/exam"
	"oral-coach-be/pkg/llm"
)

// PracticeSession is one learner's live oral practice session. It only
// exists in memory (plus an optional redis snapshot); a process restart
// loses it and the client starts over.
type PracticeSession struct {
	Key       string             `json:"key"`
	UserId    uuid.UUID          `json:"user_id"`
	CoachKey  string             `json:"coach_key"`
	State     *exam.SessionState `json:"state"`
	History   []llm.Message      `json:"history"`
	CreatedAt time.Time          `json:"created_at"`
}
