package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"casino-simulator/backend/internal/models"
)

// SystemInstruction is the persona every completion is generated under.
const SystemInstruction = `You are the charismatic AI host of the Casino Simulator. Create an engaging, realistic casino experience while helping players understand the games.

Respond exactly like this, concisely:
1. Acknowledge the player's current action or bet with casino atmosphere.
2. Explain the outcome of the bet clearly (wins, losses, special events).
3. Give context about the player's current standing (chips, streak, balance).
4. Suggest possible next moves based on the situation.
5. Occasionally offer a brief gambling tip or strategy insight.
6. Keep responses lively and between 50 and 75 words.

Keep a balanced, realistic tone. Celebrate wins enthusiastically but never promise future success. The player must never feel pressured to gamble more; encourage them to enjoy the game.`

// balanceKeys are looked up in order; the first numeric one wins.
var balanceKeys = []string{"score", "balance"}

// ContextBalance extracts the player's balance from a game state document.
// Missing or non-numeric values count as 0.
func ContextBalance(state models.GameState) float64 {
	for _, key := range balanceKeys {
		if v, ok := numeric(state[key]); ok {
			return v
		}
	}
	return 0
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// BuildUserMessage prefixes the player's prompt with their balance so the
// host can comment on it.
func BuildUserMessage(balance float64, prompt string) string {
	return fmt.Sprintf("Player's current balance: $%s. %s", strconv.FormatFloat(balance, 'f', -1, 64), prompt)
}
