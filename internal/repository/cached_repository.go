package repository

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"

	"casino-simulator/backend/internal/models"
	"casino-simulator/backend/pkg/cache"
	"casino-simulator/backend/pkg/logger"
)

// CachedSessionRepository serves session reads from a cache.Store and
// falls through to the wrapped repository on a miss. Every write
// invalidates the entry; history and listings are never cached.
//
// A read that overlaps a write of the same id does not populate the cache:
// each write bumps the generation of the id's stripe before invalidating,
// and a miss only stores what it read if the generation is unchanged.
//
// Cache failures degrade to direct reads and are logged, they never fail
// the request.
type CachedSessionRepository struct {
	SessionRepository
	cache cache.Store
	log   *logger.Logger

	mu          sync.Mutex
	generations [generationStripes]uint64
}

// generationStripes bounds the generation table. Ids sharing a stripe only
// cost each other a skipped cache fill.
const generationStripes = 256

// NewCachedSessionRepository wraps next with a read-through cache.
func NewCachedSessionRepository(next SessionRepository, store cache.Store, log *logger.Logger) *CachedSessionRepository {
	return &CachedSessionRepository{SessionRepository: next, cache: store, log: log}
}

func sessionKey(id string) string {
	return "session:" + id
}

func stripe(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % generationStripes)
}

func (r *CachedSessionRepository) generation(id string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[stripe(id)]
}

func (r *CachedSessionRepository) GetSession(ctx context.Context, id string) (*models.GameSession, error) {
	if raw, ok, err := r.cache.Get(ctx, sessionKey(id)); err != nil {
		r.log.Warn("session cache read failed", "session_id", id, "error", err.Error())
	} else if ok {
		var session models.GameSession
		if err := json.Unmarshal(raw, &session); err == nil {
			return &session, nil
		}
		r.invalidate(ctx, id)
	}

	gen := r.generation(id)
	session, err := r.SessionRepository.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, session, gen)
	return session, nil
}

func (r *CachedSessionRepository) GetOrCreateSession(ctx context.Context, id string, initial models.GameState) (*models.GameSession, bool, error) {
	session, created, err := r.SessionRepository.GetOrCreateSession(ctx, id, initial)
	if err != nil {
		return nil, false, err
	}
	if created {
		r.invalidate(ctx, id)
	}
	return session, created, nil
}

func (r *CachedSessionRepository) ReplaceGameState(ctx context.Context, id string, state models.GameState) (*models.GameSession, error) {
	session, err := r.SessionRepository.ReplaceGameState(ctx, id, state)
	r.invalidate(ctx, id)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *CachedSessionRepository) DeleteSession(ctx context.Context, id string) error {
	err := r.SessionRepository.DeleteSession(ctx, id)
	r.invalidate(ctx, id)
	return err
}

// store caches session unless a write to its id started after gen was read.
// The check and the Set share the lock so a concurrent write's
// invalidation always lands after a stale fill.
func (r *CachedSessionRepository) store(ctx context.Context, session *models.GameSession, gen uint64) {
	raw, err := json.Marshal(session)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations[stripe(session.ID)] != gen {
		return
	}
	if err := r.cache.Set(ctx, sessionKey(session.ID), raw); err != nil {
		r.log.Warn("session cache write failed", "session_id", session.ID, "error", err.Error())
	}
}

func (r *CachedSessionRepository) invalidate(ctx context.Context, id string) {
	r.mu.Lock()
	r.generations[stripe(id)]++
	r.mu.Unlock()

	if err := r.cache.Delete(ctx, sessionKey(id)); err != nil {
		r.log.Warn("session cache invalidation failed", "session_id", id, "error", err.Error())
	}
}
