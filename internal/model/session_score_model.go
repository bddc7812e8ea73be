package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionScore struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	SessionKey      string         `gorm:"type:varchar(64);not null;uniqueIndex"`
	Language        string         `gorm:"type:varchar(2);not null;index"`
	TargetLevel     string         `gorm:"type:varchar(1);not null"`
	Mode            string         `gorm:"type:varchar(32);not null"`
	Composite       int            `gorm:"not null"`
	Level           string         `gorm:"type:varchar(1);not null"`
	CriterionScores datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index"`
}

func (SessionScore) TableName() string {
	return "session_scores"
}
