// Package formsync keeps in-progress application forms synchronized with the
// store. Edits are held locally, autosaved per field after a debounce
// interval, flushed immediately on blur, and reconciled against server-side
// status changes such as a submitted application being reverted to draft.
package formsync

import (
	"context"
	"sync"
	"time"

	"github.com/Gather-Network/conference_layer/internal/app/domain/application"
	"github.com/Gather-Network/conference_layer/internal/app/domain/notification"
	"github.com/Gather-Network/conference_layer/internal/app/metrics"
	"github.com/Gather-Network/conference_layer/internal/app/services/applications"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

const (
	// debounceInterval is how long a field must stay idle before its
	// pending edit is autosaved. Each edit restarts the field's own timer
	// and leaves other fields' timers alone.
	debounceInterval = 1500 * time.Millisecond

	// revertBannerWindow is how long the reversion banner stays visible
	// after a SUBMITTED -> DRAFT change is detected.
	revertBannerWindow = 10 * time.Second

	// flushTimeout bounds a single autosave write.
	flushTimeout = 5 * time.Second
)

// Backend is the slice of the applications service the syncer needs.
type Backend interface {
	Get(ctx context.Context, applicationID string) (application.Application, error)
	SaveResponse(ctx context.Context, applicationID, questionKey string, in applications.AnswerInput) (application.Response, error)
	Completion(ctx context.Context, applicationID string) (application.Completion, error)
}

// Syncer is one user's editing session for one application. Local edits are
// visible immediately through Field; persistence happens asynchronously.
type Syncer struct {
	backend       Backend
	notifications storage.NotificationStore
	metrics       *metrics.Metrics
	log           *logger.Logger

	applicationID string
	userID        string
	debounce      time.Duration
	now           func() time.Time

	mu          sync.Mutex
	local       map[string]applications.AnswerInput
	dirty       map[string]bool
	timers      map[string]*time.Timer
	lastPercent int
	lastStatus  application.Status
	bannerUntil time.Time
	closed      bool
}

// SetField records a local edit and (re)starts the field's autosave timer.
// The value is observable through Field immediately.
func (s *Syncer) SetField(key string, in applications.AnswerInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.local[key] = in
	s.dirty[key] = true

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
	}
	s.timers[key] = time.AfterFunc(s.debounce, func() { s.flush(key) })
}

// FlushField persists a field's pending edit immediately, as on blur. A
// clean field is a no-op.
func (s *Syncer) FlushField(key string) {
	s.mu.Lock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
	pending := s.dirty[key]
	s.mu.Unlock()

	if pending {
		s.flush(key)
	}
}

// FlushAll persists every pending edit, as before a submit.
func (s *Syncer) FlushAll() {
	s.mu.Lock()
	var keys []string
	for key, pending := range s.dirty {
		if pending {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		if timer, ok := s.timers[key]; ok {
			timer.Stop()
			delete(s.timers, key)
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.flush(key)
	}
}

// Field returns the optimistic local value for a key and whether one exists.
func (s *Syncer) Field(key string) (applications.AnswerInput, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.local[key]
	return in, ok
}

// Dirty reports whether a field holds an edit that has not reached the store.
func (s *Syncer) Dirty(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty[key]
}

// RevertNoticeActive reports whether the reversion banner is showing at t.
func (s *Syncer) RevertNoticeActive(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.Before(s.bannerUntil)
}

// Close stops every pending timer. Unsaved edits stay local.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

// flush writes a field's latest local value. A failed save keeps the local
// value and the dirty mark, records a SAVE_FAILED notification, and does not
// retry; the next edit or blur will attempt again.
func (s *Syncer) flush(key string) {
	s.mu.Lock()
	if s.closed || !s.dirty[key] {
		s.mu.Unlock()
		return
	}
	in := s.local[key]
	delete(s.timers, key)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if _, err := s.backend.SaveResponse(ctx, s.applicationID, key, in); err != nil {
		s.log.WithError(err).WithField("question_key", key).Warn("autosave failed")
		if s.notifications != nil {
			_, nerr := s.notifications.CreateNotification(ctx, notification.Notification{
				UserID:  s.userID,
				Kind:    notification.KindSaveFailed,
				Message: "Could not save your answer for " + key,
			})
			if nerr != nil {
				s.log.WithError(nerr).Warn("failed to record save failure")
			}
		}
		return
	}

	s.mu.Lock()
	// An edit made while the save was in flight stays dirty.
	if current, ok := s.local[key]; !ok || equalInput(current, in) {
		s.dirty[key] = false
	}
	s.mu.Unlock()

	s.checkCompletion(ctx)
}

// checkCompletion fires the 100% notification on the rising edge only: a
// session that starts at 100% or stays there never notifies again.
func (s *Syncer) checkCompletion(ctx context.Context) {
	c, err := s.backend.Completion(ctx, s.applicationID)
	if err != nil {
		s.log.WithError(err).Warn("completion check failed")
		return
	}

	s.mu.Lock()
	crossed := c.Percent == 100 && s.lastPercent < 100
	s.lastPercent = c.Percent
	s.mu.Unlock()

	if crossed && s.notifications != nil {
		_, nerr := s.notifications.CreateNotification(ctx, notification.Notification{
			UserID:  s.userID,
			Kind:    notification.KindComplete,
			Message: "Your application is 100% complete and ready to submit",
		})
		if nerr != nil {
			s.log.WithError(nerr).Warn("failed to record completion notification")
		}
	}
}

// observeStatus records a freshly polled application status and raises the
// reversion banner on a SUBMITTED -> DRAFT edge.
func (s *Syncer) observeStatus(status application.Status, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastStatus == application.StatusSubmitted && status == application.StatusDraft {
		s.bannerUntil = at.Add(revertBannerWindow)
	}
	s.lastStatus = status
}

func equalInput(a, b applications.AnswerInput) bool {
	if a.Value != b.Value || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return false
		}
	}
	return true
}
