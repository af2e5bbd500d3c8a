package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/foulezombie94/Glymo-ai/internal/entrystore"
	"github.com/foulezombie94/Glymo-ai/internal/metrics"
	"github.com/foulezombie94/Glymo-ai/internal/storage"
)

// Manager owns one entrystore.Store per signed-in user.
type Manager struct {
	repo storage.Repository
	opts entrystore.Options
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*entrystore.Store
}

// NewManager returns a manager creating stores with opts.
func NewManager(repo storage.Repository, opts entrystore.Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		repo:     repo,
		opts:     opts,
		log:      log.Named("session"),
		sessions: map[string]*entrystore.Store{},
	}
}

// Run applies events until ctx is done or the stream is closed.
func (m *Manager) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := m.Handle(ctx, evt); err != nil {
				m.log.Warn("session event not fully applied",
					zap.String("kind", string(evt.Kind)),
					zap.String("user_id", evt.UserID),
					zap.Error(err))
			}
		}
	}
}

// Handle applies one event: sign-in and token refresh (re)load the user's
// snapshot, sign-out discards it.
func (m *Manager) Handle(ctx context.Context, evt Event) error {
	if evt.UserID == "" {
		return fmt.Errorf("%s event without user id", evt.Kind)
	}
	switch evt.Kind {
	case SignedIn, TokenRefreshed:
		store, _ := m.getOrCreate(evt.UserID)
		return store.Load(ctx, evt.UserID)
	case SignedOut:
		m.drop(evt.UserID)
		return nil
	}
	return fmt.Errorf("unknown session event %q", evt.Kind)
}

// Session returns the user's store, creating and loading it on first use.
// A failed load still returns the store with whatever it holds.
func (m *Manager) Session(ctx context.Context, userID string) *entrystore.Store {
	store, created := m.getOrCreate(userID)
	if created || !store.Loaded() {
		if err := store.Load(ctx, userID); err != nil {
			m.log.Warn("session load incomplete", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return store
}

// Lookup returns the user's store without creating one.
func (m *Manager) Lookup(userID string) (*entrystore.Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Len reports how many sessions are held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) getOrCreate(userID string) (*entrystore.Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s, false
	}
	s := entrystore.New(m.repo, m.opts)
	m.sessions[userID] = s
	metrics.ActiveSessions.Inc()
	return s, true
}

func (m *Manager) drop(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if ok {
		s.Reset()
		metrics.ActiveSessions.Dec()
	}
}
