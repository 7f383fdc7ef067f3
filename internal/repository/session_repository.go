package repository

import (
	"context"
	"errors"
	"time"

	"casino-simulator/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSessionNotFound is returned when no GameSession has the requested id.
var ErrSessionNotFound = errors.New("GameSession not found")

// timestampStep is the smallest gap kept between two exchanges of one
// session. Postgres stores microseconds, so anything finer would collapse.
const timestampStep = time.Microsecond

// SessionRepository persists game sessions and their AI exchange history.
type SessionRepository interface {
	// GetSession returns ErrSessionNotFound if the id is unknown.
	GetSession(ctx context.Context, id string) (*models.GameSession, error)
	// GetOrCreateSession returns the session with the given id, creating it
	// with the initial state when absent. The bool reports whether this
	// call created it. Safe to call concurrently for the same id.
	GetOrCreateSession(ctx context.Context, id string, initial models.GameState) (*models.GameSession, bool, error)
	// ReplaceGameState overwrites the whole game_state document.
	ReplaceGameState(ctx context.Context, id string, state models.GameState) (*models.GameSession, error)
	// DeleteSession removes the session and every AIResponse it owns.
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, limit int) ([]models.SessionSummary, error)
	// AppendResponse inserts a new exchange. The session must exist.
	AppendResponse(ctx context.Context, resp *models.AIResponse) error
	// ListResponses returns a session's exchanges oldest first.
	ListResponses(ctx context.Context, sessionID string) ([]models.AIResponse, error)
}

// GormSessionRepository is the SQL-backed SessionRepository.
type GormSessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormSessionRepository creates a repository on top of an open connection.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates or updates the schema owned by this repository.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.GameSession{}, &models.AIResponse{})
}

func (r *GormSessionRepository) GetSession(ctx context.Context, id string) (*models.GameSession, error) {
	var session models.GameSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *GormSessionRepository) GetOrCreateSession(ctx context.Context, id string, initial models.GameState) (*models.GameSession, bool, error) {
	session := models.GameSession{
		ID:        id,
		CreatedAt: r.now().Truncate(timestampStep),
		GameState: initial.Clone(),
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&session)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return &session, true, nil
	}

	existing, err := r.GetSession(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *GormSessionRepository) ReplaceGameState(ctx context.Context, id string, state models.GameState) (*models.GameSession, error) {
	var session models.GameSession
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		session.GameState = state.Clone()
		return tx.Model(&session).Select("game_state").Updates(&session).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *GormSessionRepository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Explicit child delete: SQLite only honours ON DELETE CASCADE when
		// foreign_keys is switched on for the connection.
		if err := tx.Where("session_id = ?", id).Delete(&models.AIResponse{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.GameSession{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}

func (r *GormSessionRepository) ListSessions(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	var summaries []models.SessionSummary
	err := r.db.WithContext(ctx).
		Model(&models.GameSession{}).
		Select("id", "created_at").
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *GormSessionRepository) AppendResponse(ctx context.Context, resp *models.AIResponse) error {
	if resp.Timestamp.IsZero() {
		resp.Timestamp = r.now()
	}
	resp.Timestamp = resp.Timestamp.UTC().Truncate(timestampStep)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GameSession{}).Where("id = ?", resp.SessionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSessionNotFound
		}

		var last models.AIResponse
		err := tx.Where("session_id = ?", resp.SessionID).
			Order("timestamp DESC").
			Order("id DESC").
			Take(&last).Error
		switch {
		case err == nil:
			if !resp.Timestamp.After(last.Timestamp) {
				resp.Timestamp = last.Timestamp.UTC().Add(timestampStep)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		return tx.Create(resp).Error
	})
}

func (r *GormSessionRepository) ListResponses(ctx context.Context, sessionID string) ([]models.AIResponse, error) {
	if _, err := r.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	var responses []models.AIResponse
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	return err
}
