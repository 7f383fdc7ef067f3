package service

import (
	"context"
	"time"

	"casino-simulator/backend/ai"
	"casino-simulator/backend/internal/models"
	"casino-simulator/backend/internal/repository"
	"casino-simulator/backend/pkg/logger"
	"casino-simulator/backend/pkg/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxSessionIDLength = 255

// SubmitResult is what a successful Submit hands back to the transport.
type SubmitResult struct {
	Message   string
	SessionID string
	Timestamp time.Time
	GameState models.GameState
	Created   bool
}

// SessionService implements the session operations used by the game
// client. It holds no per-session state; concurrent calls for the same id
// resolve last-write-wins in the repository.
type SessionService struct {
	repo      repository.SessionRepository
	completer ai.Completer
	metrics   *observability.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// NewSessionService creates the service. completer is expected to bound
// its own call duration (see ai.WithTimeout). metrics may be nil.
func NewSessionService(repo repository.SessionRepository, completer ai.Completer, metrics *observability.Metrics) *SessionService {
	return &SessionService{
		repo:      repo,
		completer: completer,
		metrics:   metrics,
		tracer:    otel.Tracer(observability.InstrumentationName),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func validateSessionID(id string) error {
	if id == "" || len(id) > maxSessionIDLength {
		return ErrInvalidSessionID
	}
	return nil
}

// Retrieve returns the session with the given id.
func (s *SessionService) Retrieve(ctx context.Context, id string) (*models.GameSession, error) {
	if err := validateSessionID(id); err != nil {
		return nil, err
	}
	return s.repo.GetSession(ctx, id)
}

// Submit sends prompt to the AI host on behalf of session id.
//
// The session is created on first use. A non-nil state replaces the stored
// game_state before the provider is called, and that write stands even if
// the provider then fails; the returned *ServiceError says so.
func (s *SessionService) Submit(ctx context.Context, id, prompt string, state models.GameState) (*SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Submit",
		trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	if err := validateSessionID(id); err != nil {
		return nil, err
	}
	if prompt == "" {
		return nil, ErrPromptRequired
	}

	log := logger.FromContext(ctx).WithSessionID(id)

	initial := state
	if initial == nil {
		initial = models.GameState{}
	}
	session, created, err := s.repo.GetOrCreateSession(ctx, id, initial)
	if err != nil {
		return nil, err
	}
	if created {
		s.metrics.SessionCreated(ctx)
		log.Info("game session created")
	}

	committed := false
	if state != nil {
		// A session created just now already holds this exact state.
		if !created {
			session, err = s.repo.ReplaceGameState(ctx, id, state)
			if err != nil {
				return nil, err
			}
		}
		committed = true
	}

	message := BuildUserMessage(ContextBalance(session.GameState), prompt)

	start := time.Now()
	text, err := s.completer.Complete(ctx, SystemInstruction, message)
	s.metrics.RecordCompletion(ctx, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		if committed {
			log.Warn("completion failed after game_state was persisted", "error", err.Error())
		}
		return nil, &ServiceError{Err: err, GameStateCommitted: committed}
	}

	exchange := &models.AIResponse{
		SessionID: id,
		Prompt:    prompt,
		Response:  text,
		Timestamp: s.now(),
	}
	if err := s.repo.AppendResponse(ctx, exchange); err != nil {
		return nil, err
	}

	return &SubmitResult{
		Message:   text,
		SessionID: id,
		Timestamp: exchange.Timestamp,
		GameState: session.GameState,
		Created:   created,
	}, nil
}

// Update replaces the game_state of an existing session. Unlike Submit it
// never creates the session.
func (s *SessionService) Update(ctx context.Context, id string, state models.GameState) (*models.GameSession, error) {
	if err := validateSessionID(id); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrGameStateRequired
	}
	return s.repo.ReplaceGameState(ctx, id, state)
}

// Delete removes the session together with its exchange history.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := validateSessionID(id); err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).WithSessionID(id).Info("game session deleted")
	return nil
}

// History returns the session's exchanges oldest first.
func (s *SessionService) History(ctx context.Context, id string) ([]models.AIResponse, error) {
	if err := validateSessionID(id); err != nil {
		return nil, err
	}
	return s.repo.ListResponses(ctx, id)
}

// ListSessions returns the most recently created sessions.
func (s *SessionService) ListSessions(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	return s.repo.ListSessions(ctx, limit)
}
