package api

import (
	"time"

	"casino-simulator/backend/internal/models"
	"casino-simulator/backend/internal/service"
)

// Field names below are read by the Unity client; renaming any of them
// breaks it.

// SubmitRequest is the POST body. A missing or null game_state leaves the
// stored document untouched.
type SubmitRequest struct {
	Prompt    string           `json:"prompt"`
	GameState models.GameState `json:"game_state"`
}

// UpdateRequest is the PUT body.
type UpdateRequest struct {
	GameState models.GameState `json:"game_state"`
}

// SubmitEnvelope is returned by a successful POST.
type SubmitEnvelope struct {
	Message  string         `json:"message"`
	Metadata SubmitMetadata `json:"metadata"`
}

// SubmitMetadata describes the exchange that produced the message.
type SubmitMetadata struct {
	SessionID string           `json:"session_id"`
	Timestamp time.Time        `json:"timestamp"`
	GameState models.GameState `json:"game_state"`
}

// MessageEnvelope acknowledges an operation without a resource body.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// HistoryEnvelope lists a session's exchanges.
type HistoryEnvelope struct {
	SessionID string              `json:"session_id"`
	Responses []models.AIResponse `json:"responses"`
	Count     int                 `json:"count"`
}

// SessionListEnvelope lists sessions.
type SessionListEnvelope struct {
	Sessions []models.SessionSummary `json:"sessions"`
	Count    int                     `json:"count"`
}

func newSubmitEnvelope(res *service.SubmitResult) SubmitEnvelope {
	state := res.GameState
	if state == nil {
		state = models.GameState{}
	}
	return SubmitEnvelope{
		Message: res.Message,
		Metadata: SubmitMetadata{
			SessionID: res.SessionID,
			Timestamp: res.Timestamp,
			GameState: state,
		},
	}
}
