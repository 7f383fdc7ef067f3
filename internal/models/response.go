package models

import (
	"time"
)

// AIResponse records one completed prompt/response exchange. Rows are
// append-only.
type AIResponse struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	SessionID string    `json:"session" gorm:"size:255;not null;index:idx_ai_responses_session_ts,priority:1"`
	Prompt    string    `json:"prompt" gorm:"type:text;not null"`
	Response  string    `json:"response" gorm:"type:text;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index:idx_ai_responses_session_ts,priority:2"`
}

// TableName pins the table name independently of GORM's naming strategy.
func (AIResponse) TableName() string {
	return "ai_responses"
}
