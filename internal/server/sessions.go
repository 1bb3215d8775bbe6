package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tatianab/campus-life/internal/content"
	"github.com/tatianab/campus-life/internal/engine"
	"github.com/tatianab/campus-life/internal/models"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

const DefaultMaxSessions = 1000

const sessionKeyPrefix = "campus-life/"

// SessionManager keeps one engine.Session per player. Sessions share the
// content catalog and blob store but never their state or random source.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*engine.Session
	catalog     *content.Catalog
	store       models.BlobStore
	logger      *zap.Logger
	maxSessions int
}

func NewSessionManager(catalog *content.Catalog, store models.BlobStore, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		sessions:    make(map[string]*engine.Session),
		catalog:     catalog,
		store:       store,
		logger:      logger,
		maxSessions: DefaultMaxSessions,
	}
}

// Create starts a new game under a fresh session id.
func (m *SessionManager) Create(ctx context.Context, opts engine.Options) (string, models.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		return "", models.GameState{}, ErrTooManySessions
	}

	id := uuid.NewString()
	sess := m.newSession(id)
	state, err := sess.NewGame(ctx, opts)
	if err != nil {
		return "", models.GameState{}, err
	}
	m.sessions[id] = sess
	m.logger.Info("session created", zap.String("session", id), zap.Int("active", len(m.sessions)))
	return id, state, nil
}

// Get returns the live session id, restoring it from its save when the
// process restarted since it was created.
func (m *SessionManager) Get(ctx context.Context, id string) (*engine.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}
	if m.store == nil {
		return nil, ErrSessionNotFound
	}

	sess = m.newSession(id)
	if _, err := sess.Load(ctx); err != nil {
		if errors.Is(err, models.ErrNoSave) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if err := sess.LoadAchievements(ctx); err != nil {
		m.logger.Warn("achievements not restored", zap.String("session", id), zap.Error(err))
	}
	m.sessions[id] = sess
	m.logger.Info("session restored", zap.String("session", id))
	return sess, nil
}

// Remove drops a session and its save.
func (m *SessionManager) Remove(ctx context.Context, id string) error {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return sess.Discard(ctx)
}

// keyLister is implemented by blob stores that can enumerate their keys.
type keyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Saved lists the ids of every session with a save in the store, live or
// not, in key order.
func (m *SessionManager) Saved(ctx context.Context) ([]string, error) {
	lister, ok := m.store.(keyLister)
	if !ok {
		return []string{}, nil
	}
	keys, err := lister.Keys(ctx, sessionKeyPrefix)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, key := range keys {
		id, ok := strings.CutSuffix(strings.TrimPrefix(key, sessionKeyPrefix), "/save")
		if !ok {
			continue
		}
		if _, err := uuid.Parse(id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) newSession(id string) *engine.Session {
	env := engine.NewEnv(m.catalog, rand.Uint64())
	return engine.NewSession(env, m.store, m.logger.With(zap.String("session", id)), id)
}
