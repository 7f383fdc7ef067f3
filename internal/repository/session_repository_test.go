package repository

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"casino-simulator/backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func countResponses(t *testing.T, db *gorm.DB, sessionID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AIResponse{}).Where("session_id = ?", sessionID).Count(&n).Error)
	return n
}

func TestGetSessionNotFound(t *testing.T) {
	repo := NewGormSessionRepository(newTestDB(t))

	_, err := repo.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetOrCreateSession(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSessionRepository(newTestDB(t))

	first, created, err := repo.GetOrCreateSession(ctx, "s1", models.GameState{"score": 120.0})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "s1", first.ID)
	assert.Equal(t, models.GameState{"score": 120.0}, first.GameState)

	second, created, err := repo.GetOrCreateSession(ctx, "s1", models.GameState{"score": 999.0})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.GameState{"score": json.Number("120")}, second.GameState)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
}

func TestGetOrCreateSessionConcurrent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSessionRepository(db)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		creates int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := repo.GetOrCreateSession(ctx, "race", models.GameState{})
			assert.NoError(t, err)
			if created {
				mu.Lock()
				creates++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, creates)
	var n int64
	require.NoError(t, db.Model(&models.GameSession{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestReplaceGameStateIsFullReplace(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSessionRepository(newTestDB(t))

	_, _, err := repo.GetOrCreateSession(ctx, "s1", models.GameState{"a": 1.0})
	require.NoError(t, err)

	updated, err := repo.ReplaceGameState(ctx, "s1", models.GameState{"b": 2.0})
	require.NoError(t, err)
	assert.Equal(t, models.GameState{"b": 2.0}, updated.GameState)

	stored, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.GameState{"b": json.Number("2")}, stored.GameState)
	assert.NotContains(t, stored.GameState, "a")
}

func TestGameStateKeepsLargeIntegers(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSessionRepository(newTestDB(t))

	var state models.GameState
	require.NoError(t, json.Unmarshal([]byte(`{"chips":9007199254740993,"hand":{"bet":12.50}}`), &state))
	_, _, err := repo.GetOrCreateSession(ctx, "s1", state)
	require.NoError(t, err)

	stored, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), stored.GameState["chips"])

	raw, err := json.Marshal(stored.GameState)
	require.NoError(t, err)
	assert.JSONEq(t, `{"chips":9007199254740993,"hand":{"bet":12.50}}`, string(raw))
	assert.Contains(t, string(raw), "9007199254740993")
}

func TestReplaceGameStateUnknownSession(t *testing.T) {
	repo := NewGormSessionRepository(newTestDB(t))

	_, err := repo.ReplaceGameState(context.Background(), "s2", models.GameState{"score": 1.0})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSessionCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSessionRepository(db)

	_, _, err := repo.GetOrCreateSession(ctx, "s1", models.GameState{})
	require.NoError(t, err)
	for _, prompt := range []string{"hit", "stand", "double"} {
		require.NoError(t, repo.AppendResponse(ctx, &models.AIResponse{
			SessionID: "s1", Prompt: prompt, Response: "ok",
		}))
	}
	require.Equal(t, int64(3), countResponses(t, db, "s1"))

	require.NoError(t, repo.DeleteSession(ctx, "s1"))

	_, err = repo.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, int64(0), countResponses(t, db, "s1"))

	assert.ErrorIs(t, repo.DeleteSession(ctx, "s1"), ErrSessionNotFound)
}

func TestAppendResponseRequiresSession(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSessionRepository(db)

	err := repo.AppendResponse(ctx, &models.AIResponse{SessionID: "ghost", Prompt: "hi", Response: "hello"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, int64(0), countResponses(t, db, "ghost"))
}

func TestAppendResponseTimestampsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSessionRepository(newTestDB(t))
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	_, _, err := repo.GetOrCreateSession(ctx, "s1", models.GameState{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendResponse(ctx, &models.AIResponse{
			SessionID: "s1", Prompt: "hit", Response: "card",
		}))
	}
	// a clock that went backwards
	require.NoError(t, repo.AppendResponse(ctx, &models.AIResponse{
		SessionID: "s1", Prompt: "stand", Response: "done", Timestamp: fixed.Add(-time.Hour),
	}))

	history, err := repo.ListResponses(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp),
			"timestamp %d not after %d", i, i-1)
	}
	assert.Equal(t, "stand", history[3].Prompt)
}

func TestListResponsesUnknownSession(t *testing.T) {
	repo := NewGormSessionRepository(newTestDB(t))

	_, err := repo.ListResponses(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSessionRepository(newTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		at := base.Add(time.Duration(i) * time.Hour)
		repo.now = func() time.Time { return at }
		_, _, err := repo.GetOrCreateSession(ctx, id, models.GameState{})
		require.NoError(t, err)
	}

	sessions, err := repo.ListSessions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "mid", sessions[1].ID)
}
