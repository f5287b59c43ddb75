// Package events manages events and their application form questions.
package events

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/event"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// Service manages events and questions.
type Service struct {
	events    storage.EventStore
	questions storage.QuestionStore
	log       *logger.Logger
	now       func() time.Time
}

// New creates the events service.
func New(events storage.EventStore, questions storage.QuestionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("events")
	}
	return &Service{events: events, questions: questions, log: log, now: time.Now}
}

// CreateEvent validates and stores a new event.
func (s *Service) CreateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	ev.Slug = strings.ToLower(strings.TrimSpace(ev.Slug))
	ev.Name = strings.TrimSpace(ev.Name)
	if ev.Slug == "" {
		return event.Event{}, apperr.Validation("slug is required")
	}
	if ev.Name == "" {
		return event.Event{}, apperr.Validation("name is required")
	}
	if !ev.Kind.Valid() {
		return event.Event{}, apperr.Validation("invalid event kind")
	}
	if !ev.Audience.Valid() {
		return event.Event{}, apperr.Validation("invalid audience")
	}
	if !ev.OpensAt.IsZero() && !ev.ClosesAt.IsZero() && !ev.ClosesAt.After(ev.OpensAt) {
		return event.Event{}, apperr.Validation("closes_at must be after opens_at")
	}

	created, err := s.events.CreateEvent(ctx, ev)
	if err != nil {
		return event.Event{}, err
	}
	s.log.WithField("event_id", created.ID).WithField("slug", created.Slug).Info("event created")
	return created, nil
}

// UpdateEvent updates mutable event fields.
func (s *Service) UpdateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	if strings.TrimSpace(ev.ID) == "" {
		return event.Event{}, apperr.Validation("event id is required")
	}
	ev.Name = strings.TrimSpace(ev.Name)
	if ev.Name == "" {
		return event.Event{}, apperr.Validation("name is required")
	}
	if !ev.Kind.Valid() {
		return event.Event{}, apperr.Validation("invalid event kind")
	}
	if !ev.Audience.Valid() {
		return event.Event{}, apperr.Validation("invalid audience")
	}

	updated, err := s.events.UpdateEvent(ctx, ev)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, apperr.NotFound("event not found")
	}
	if err != nil {
		return event.Event{}, err
	}
	s.log.WithField("event_id", updated.ID).Info("event updated")
	return updated, nil
}

// GetEvent returns one event by id.
func (s *Service) GetEvent(ctx context.Context, id string) (event.Event, error) {
	ev, err := s.events.GetEvent(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, apperr.NotFound("event not found")
	}
	return ev, err
}

// GetEventBySlug returns one event by its URL slug.
func (s *Service) GetEventBySlug(ctx context.Context, slug string) (event.Event, error) {
	ev, err := s.events.GetEventBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, apperr.NotFound("event not found")
	}
	return ev, err
}

// ListEvents returns all events.
func (s *Service) ListEvents(ctx context.Context) ([]event.Event, error) {
	return s.events.ListEvents(ctx)
}

// AddQuestion validates and stores a new form question for an event.
func (s *Service) AddQuestion(ctx context.Context, q event.Question) (event.Question, error) {
	if _, err := s.GetEvent(ctx, q.EventID); err != nil {
		return event.Question{}, err
	}
	q.Key = strings.TrimSpace(q.Key)
	q.PromptEN = strings.TrimSpace(q.PromptEN)
	q.PromptRU = strings.TrimSpace(q.PromptRU)
	if q.Key == "" {
		return event.Question{}, apperr.Validation("question key is required")
	}
	if q.PromptEN == "" {
		return event.Question{}, apperr.Validation("prompt_en is required")
	}
	if !q.Type.Valid() {
		return event.Question{}, apperr.Validation("invalid question type")
	}
	if err := validateOptions(q); err != nil {
		return event.Question{}, err
	}

	created, err := s.questions.CreateQuestion(ctx, q)
	if err != nil {
		return event.Question{}, err
	}
	s.log.WithField("event_id", q.EventID).WithField("question_key", q.Key).Info("question added")
	return created, nil
}

// UpdateQuestion updates a question's prompts, type, options, required flag
// and display order. The key and event binding are immutable.
func (s *Service) UpdateQuestion(ctx context.Context, q event.Question) (event.Question, error) {
	if strings.TrimSpace(q.ID) == "" {
		return event.Question{}, apperr.Validation("question id is required")
	}
	q.PromptEN = strings.TrimSpace(q.PromptEN)
	if q.PromptEN == "" {
		return event.Question{}, apperr.Validation("prompt_en is required")
	}
	if !q.Type.Valid() {
		return event.Question{}, apperr.Validation("invalid question type")
	}
	if err := validateOptions(q); err != nil {
		return event.Question{}, err
	}

	updated, err := s.questions.UpdateQuestion(ctx, q)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Question{}, apperr.NotFound("question not found")
	}
	if err != nil {
		return event.Question{}, err
	}
	s.log.WithField("question_id", updated.ID).Info("question updated")
	return updated, nil
}

// RemoveQuestion deletes a question from an event's form.
func (s *Service) RemoveQuestion(ctx context.Context, id string) error {
	err := s.questions.DeleteQuestion(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("question not found")
	}
	if err != nil {
		return err
	}
	s.log.WithField("question_id", id).Info("question removed")
	return nil
}

// ListQuestions returns an event's questions in display order with the order
// values normalized to 1..n.
func (s *Service) ListQuestions(ctx context.Context, eventID string) ([]event.Question, error) {
	questions, err := s.questions.ListQuestions(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	for i := range questions {
		questions[i].Order = i + 1
	}
	return questions, nil
}

func validateOptions(q event.Question) error {
	if q.Type.HasOptions() {
		if len(q.Options) == 0 {
			return apperr.Validation("options are required for " + string(q.Type) + " questions")
		}
		seen := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return apperr.Validation("options must not be blank")
			}
			if seen[opt] {
				return apperr.Validation("duplicate option: " + opt)
			}
			seen[opt] = true
		}
		return nil
	}
	if len(q.Options) > 0 {
		return apperr.Validation("options are only allowed for SELECT and MULTISELECT questions")
	}
	return nil
}
