// ABOUTME: Planning session service for iterative what-if simulation
// ABOUTME: Stores sessions in the cache backend and clears overrides when their inputs change

package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sqlnova/migration-planner/cache"
	"github.com/sqlnova/migration-planner/models"
)

var (
	// ErrSessionNotFound is returned for unknown or expired sessions
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnknownDatabase is returned when an override names a database outside the selection
	ErrUnknownDatabase = errors.New("database is not part of the selection")
)

// sessionState pairs a session with its override tracker
type sessionState struct {
	mu      sync.Mutex
	session models.PlanningSession
	tracker *OverrideTracker
}

// SessionService manages server-side planning sessions
type SessionService struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(c *cache.Cache, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionService{cache: c, ttl: ttl, now: time.Now}
}

// Create stores a new session and returns a snapshot of it
func (s *SessionService) Create(req models.CreateSessionRequest, existing []models.ExistingInstance, naming models.NamingSource) (models.PlanningSession, error) {
	cfg := models.DefaultCapacityConfig()
	if req.Config != nil {
		cfg = req.Config.WithDefaults()
	}
	if req.Naming != nil {
		naming = *req.Naming
	}
	if req.ExistingInstances != nil {
		existing = req.ExistingInstances
	}

	now := s.now().UTC()
	session := models.PlanningSession{
		ID:                uuid.NewString(),
		Environment:       req.Environment,
		Databases:         copyDatabases(req.Databases),
		Config:            cfg,
		ExistingInstances: existing,
		Naming:            naming,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := session.Input().Validate(); err != nil {
		return models.PlanningSession{}, err
	}
	if err := req.Overrides.Validate(); err != nil {
		return models.PlanningSession{}, err
	}

	tracker := NewOverrideTracker()
	tracker.Restore(req.Overrides, DependenciesFor(session.Databases, session.Config))
	session.Overrides = tracker.Overrides()

	state := &sessionState{session: session, tracker: tracker}
	s.store(state)
	slog.Info("Planning session created", "session", session.ID, "databases", len(session.Databases))
	return state.snapshot(), nil
}

// Get returns a snapshot of a session
func (s *SessionService) Get(id string) (models.PlanningSession, error) {
	state, err := s.load(id)
	if err != nil {
		return models.PlanningSession{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.snapshot(), nil
}

// Delete removes a session from the cache
func (s *SessionService) Delete(id string) {
	s.cache.Clear(sessionKey(id))
}

// UpdateConfig replaces the capacity config. It returns true when the change cleared overrides.
func (s *SessionService) UpdateConfig(id string, cfg models.CapacityConfig) (models.PlanningSession, bool, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return models.PlanningSession{}, false, err
	}
	return s.update(id, func(session *models.PlanningSession) error {
		session.Config = cfg
		return nil
	})
}

// UpdateSelection replaces the selected databases. It returns true when the change cleared overrides.
func (s *SessionService) UpdateSelection(id string, databases []models.SourceDatabase) (models.PlanningSession, bool, error) {
	return s.update(id, func(session *models.PlanningSession) error {
		candidate := *session
		candidate.Databases = databases
		candidate.Overrides = nil
		if err := candidate.Input().Validate(); err != nil {
			return err
		}
		session.Databases = copyDatabases(databases)
		return nil
	})
}

// SetOverride assigns one database; AssignAuto or an empty target removes its override
func (s *SessionService) SetOverride(id, dbKey, target string) (models.PlanningSession, error) {
	if err := models.ValidateOverride(dbKey, target); err != nil {
		return models.PlanningSession{}, err
	}

	state, err := s.load(id)
	if err != nil {
		return models.PlanningSession{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	if !hasDatabase(state.session.Databases, dbKey) {
		return models.PlanningSession{}, fmt.Errorf("%w: %s", ErrUnknownDatabase, sanitizeForLog(dbKey))
	}

	state.tracker.Set(dbKey, target)
	state.session.Overrides = state.tracker.Overrides()
	state.session.UpdatedAt = s.now().UTC()
	s.store(state)

	slog.Debug("Override set", "session", id, "database", dbKey, "target", target)
	return state.snapshot(), nil
}

// ClearOverrides removes every override of a session
func (s *SessionService) ClearOverrides(id string) (models.PlanningSession, error) {
	state, err := s.load(id)
	if err != nil {
		return models.PlanningSession{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	state.tracker.Clear()
	state.session.Overrides = state.tracker.Overrides()
	state.session.UpdatedAt = s.now().UTC()
	s.store(state)
	return state.snapshot(), nil
}

func (s *SessionService) update(id string, mutate func(*models.PlanningSession) error) (models.PlanningSession, bool, error) {
	state, err := s.load(id)
	if err != nil {
		return models.PlanningSession{}, false, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := mutate(&state.session); err != nil {
		return models.PlanningSession{}, false, err
	}

	invalidated := state.tracker.Observe(DependenciesFor(state.session.Databases, state.session.Config))
	if invalidated {
		slog.Info("Overrides cleared after dependency change", "session", id)
	}
	state.session.Overrides = state.tracker.Overrides()
	state.session.UpdatedAt = s.now().UTC()
	s.store(state)

	return state.snapshot(), invalidated, nil
}

func (s *SessionService) load(id string) (*sessionState, error) {
	val, ok := s.cache.Get(sessionKey(id))
	if !ok {
		return nil, ErrSessionNotFound
	}

	state, ok := val.(*sessionState)
	if !ok {
		return nil, errors.New("invalid session data")
	}

	return state, nil
}

// store writes the session back, extending its TTL
func (s *SessionService) store(state *sessionState) {
	s.cache.SetWithTTL(sessionKey(state.session.ID), state, s.ttl)
}

func (st *sessionState) snapshot() models.PlanningSession {
	out := st.session
	out.Databases = copyDatabases(st.session.Databases)
	out.Overrides = st.tracker.Overrides()
	return out
}

func copyDatabases(dbs []models.SourceDatabase) []models.SourceDatabase {
	out := make([]models.SourceDatabase, len(dbs))
	copy(out, dbs)
	return out
}

func hasDatabase(dbs []models.SourceDatabase, key string) bool {
	for _, db := range dbs {
		if db.Key() == key {
			return true
		}
	}
	return false
}

// sessionKey returns the cache key for a session ID
func sessionKey(sessionID string) string {
	return "session:" + sessionID
}
