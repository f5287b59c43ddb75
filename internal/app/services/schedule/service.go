// Package schedule manages an event's session timetable.
package schedule

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/schedule"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// Service manages sessions.
type Service struct {
	sessions storage.ScheduleStore
	events   storage.EventStore
	log      *logger.Logger
}

// New creates the schedule service.
func New(sessions storage.ScheduleStore, events storage.EventStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("schedule")
	}
	return &Service{sessions: sessions, events: events, log: log}
}

// AddSession validates and stores a new session. Two sessions may not share
// a room at the same time.
func (s *Service) AddSession(ctx context.Context, sess schedule.Session) (schedule.Session, error) {
	if err := s.validate(ctx, sess); err != nil {
		return schedule.Session{}, err
	}

	created, err := s.sessions.CreateSession(ctx, sess)
	if err != nil {
		return schedule.Session{}, err
	}
	s.log.WithField("session_id", created.ID).WithField("event_id", created.EventID).Info("session added")
	return created, nil
}

// UpdateSession moves or renames an existing session, re-checking room
// collisions against every other session.
func (s *Service) UpdateSession(ctx context.Context, sess schedule.Session) (schedule.Session, error) {
	existing, err := s.Get(ctx, sess.ID)
	if err != nil {
		return schedule.Session{}, err
	}
	sess.EventID = existing.EventID
	if err := s.validate(ctx, sess); err != nil {
		return schedule.Session{}, err
	}

	updated, err := s.sessions.UpdateSession(ctx, sess)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Session{}, apperr.NotFound("session not found")
	}
	if err != nil {
		return schedule.Session{}, err
	}
	s.log.WithField("session_id", updated.ID).Info("session updated")
	return updated, nil
}

// Get returns one session by id.
func (s *Service) Get(ctx context.Context, id string) (schedule.Session, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Session{}, apperr.NotFound("session not found")
	}
	return sess, err
}

// List returns an event's sessions ordered by start time.
func (s *Service) List(ctx context.Context, eventID string) ([]schedule.Session, error) {
	return s.sessions.ListSessions(ctx, eventID)
}

func (s *Service) validate(ctx context.Context, sess schedule.Session) error {
	if strings.TrimSpace(sess.Title) == "" {
		return apperr.Validation("title is required")
	}
	if sess.StartsAt.IsZero() || sess.EndsAt.IsZero() || !sess.EndsAt.After(sess.StartsAt) {
		return apperr.Validation("ends_at must be after starts_at")
	}
	if _, err := s.events.GetEvent(ctx, sess.EventID); errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("event not found")
	} else if err != nil {
		return err
	}

	if sess.Room == "" {
		return nil
	}
	others, err := s.sessions.ListSessions(ctx, sess.EventID)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == sess.ID || other.Room != sess.Room {
			continue
		}
		if sess.Overlaps(other) {
			return apperr.Conflict("room " + sess.Room + " is already booked for " + other.Title)
		}
	}
	return nil
}
