package service

import (
	"encoding/json"
	"testing"

	"casino-simulator/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestContextBalance(t *testing.T) {
	tests := []struct {
		name  string
		state models.GameState
		want  float64
	}{
		{"score", models.GameState{"score": 120.0}, 120},
		{"score wins over balance", models.GameState{"score": 5.0, "balance": 900.0}, 5},
		{"balance fallback", models.GameState{"balance": 250.5}, 250.5},
		{"numeric string", models.GameState{"score": " 42 "}, 42},
		{"non-numeric score falls back", models.GameState{"score": "lots", "balance": 7.0}, 7},
		{"json number", models.GameState{"balance": json.Number("33")}, 33},
		{"int", models.GameState{"score": 12}, 12},
		{"infinity rejected", models.GameState{"score": "Inf"}, 0},
		{"missing", models.GameState{"chips": 10.0}, 0},
		{"nil state", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextBalance(tt.state))
		})
	}
}

func TestBuildUserMessage(t *testing.T) {
	assert.Equal(t, "Player's current balance: $120. hit", BuildUserMessage(120, "hit"))
	assert.Equal(t, "Player's current balance: $12.5. double down", BuildUserMessage(12.5, "double down"))
	assert.Equal(t, "Player's current balance: $0. hello", BuildUserMessage(0, "hello"))
}
