package formsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gather-Network/conference_layer/internal/app/metrics"
	"github.com/Gather-Network/conference_layer/internal/app/services/applications"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// pollInterval is how often open sessions poll for server-side status
// changes.
const pollInterval = 2 * time.Second

// Manager owns the open editing sessions and the background watcher that
// detects reversions.
type Manager struct {
	backend       Backend
	notifications storage.NotificationStore
	metrics       *metrics.Metrics
	log           *logger.Logger
	debounce      time.Duration
	poll          time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*Syncer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option adjusts manager timing, mainly for tests.
type Option func(*Manager)

// WithDebounce overrides the per-field autosave delay.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

// WithPollInterval overrides the status poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) { m.poll = d }
}

// NewManager creates the session manager. notifications and met may be nil.
func NewManager(backend Backend, notifications storage.NotificationStore, met *metrics.Metrics, log *logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.NewDefault("formsync")
	}
	m := &Manager{
		backend:       backend,
		notifications: notifications,
		metrics:       met,
		log:           log,
		debounce:      debounceInterval,
		poll:          pollInterval,
		now:           time.Now,
		sessions:      make(map[string]*Syncer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts (or returns) the editing session for an application. The
// session's completion baseline is taken at open time, so a form that is
// already 100% complete does not notify.
func (m *Manager) Open(ctx context.Context, applicationID, userID string) (*Syncer, error) {
	m.mu.Lock()
	if existing, ok := m.sessions[applicationID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	app, err := m.backend.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, errors.New("application belongs to another user")
	}
	c, err := m.backend.Completion(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	s := &Syncer{
		backend:       m.backend,
		notifications: m.notifications,
		metrics:       m.metrics,
		log:           m.log,
		applicationID: applicationID,
		userID:        userID,
		debounce:      m.debounce,
		now:           m.now,
		local:         make(map[string]applications.AnswerInput),
		dirty:         make(map[string]bool),
		timers:        make(map[string]*time.Timer),
		lastPercent:   c.Percent,
		lastStatus:    app.Status,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[applicationID]; ok {
		s.Close()
		return existing, nil
	}
	m.sessions[applicationID] = s
	m.log.WithField("application_id", applicationID).Info("editing session opened")
	return s, nil
}

// Session returns the open session for an application, if any.
func (m *Manager) Session(applicationID string) (*Syncer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[applicationID]
	return s, ok
}

// CloseSession flushes and removes a session.
func (m *Manager) CloseSession(applicationID string) {
	m.mu.Lock()
	s, ok := m.sessions[applicationID]
	delete(m.sessions, applicationID)
	m.mu.Unlock()
	if ok {
		s.FlushAll()
		s.Close()
	}
}

// Name implements system.Service.
func (m *Manager) Name() string { return "formsync" }

// Start launches the status watcher.
func (m *Manager) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.poll)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				m.pollOnce(watchCtx)
			}
		}
	}()
	return nil
}

// Stop halts the watcher and closes every session.
func (m *Manager) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	sessions := make([]*Syncer, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	return nil
}

// pollOnce refreshes the status of every open session.
func (m *Manager) pollOnce(ctx context.Context) {
	m.mu.Lock()
	sessions := make(map[string]*Syncer, len(m.sessions))
	for id, s := range m.sessions {
		sessions[id] = s
	}
	m.mu.Unlock()

	for id, s := range sessions {
		app, err := m.backend.Get(ctx, id)
		if err != nil {
			m.log.WithError(err).WithField("application_id", id).Warn("status poll failed")
			continue
		}
		s.observeStatus(app.Status, m.now().UTC())
	}
}
