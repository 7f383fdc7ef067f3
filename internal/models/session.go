package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GameState is the client-owned game document. It is stored verbatim and
// replaced wholesale on every update. Numbers decode as json.Number so
// integers wider than a float64 mantissa keep every digit.
type GameState map[string]any

// GameSession is one game client's ongoing play state, keyed by the id the
// client chose.
type GameSession struct {
	ID        string       `json:"id" gorm:"primaryKey;size:255"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;autoCreateTime:false"`
	GameState GameState    `json:"game_state" gorm:"type:text;not null"`
	Responses []AIResponse `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName pins the table name independently of GORM's naming strategy.
func (GameSession) TableName() string {
	return "game_sessions"
}

// SessionSummary is the list view of a session.
type SessionSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a shallow copy so callers cannot alias a stored document.
func (g GameState) Clone() GameState {
	if g == nil {
		return GameState{}
	}
	out := make(GameState, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

// UnmarshalJSON accepts a JSON object or null. null leaves the state nil,
// which callers treat as "not supplied".
func (g *GameState) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*g = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	*g = doc
	return nil
}

// Value implements driver.Valuer.
func (g GameState) Value() (driver.Value, error) {
	if g == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (g *GameState) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*g = GameState{}
		return nil
	case []byte:
		return g.UnmarshalJSON(v)
	case string:
		return g.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("game_state: unsupported column type %T", src)
	}
}
