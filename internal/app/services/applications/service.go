// Package applications implements the application lifecycle: drafting,
// per-field response saves, completion tracking, submission and review.
package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/application"
	"github.com/Gather-Network/conference_layer/internal/app/domain/event"
	"github.com/Gather-Network/conference_layer/internal/app/domain/notification"
	"github.com/Gather-Network/conference_layer/internal/app/metrics"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// reversionBannerWindow bounds how long the reversion notice stays active on
// clients after a SUBMITTED application is sent back to DRAFT.
const reversionBannerWindow = 10 * time.Second

// AnswerInput carries one unsaved answer. Values is used for MULTISELECT
// questions, Value for everything else.
type AnswerInput struct {
	Value  string   `json:"value"`
	Values []string `json:"values"`
}

// Service manages applications and their responses.
type Service struct {
	apps          storage.ApplicationStore
	events        storage.EventStore
	questions     storage.QuestionStore
	notifications storage.NotificationStore
	metrics       *metrics.Metrics
	log           *logger.Logger
	now           func() time.Time
}

// New creates the applications service. notifications and m may be nil.
func New(apps storage.ApplicationStore, events storage.EventStore, questions storage.QuestionStore,
	notifications storage.NotificationStore, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("applications")
	}
	return &Service{
		apps:          apps,
		events:        events,
		questions:     questions,
		notifications: notifications,
		metrics:       m,
		log:           log,
		now:           time.Now,
	}
}

// Create opens a DRAFT application for the user on an event whose window is
// open. A user holds at most one application per event.
func (s *Service) Create(ctx context.Context, userID, eventID string) (application.Application, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(eventID) == "" {
		return application.Application{}, apperr.Validation("user_id and event_id are required")
	}

	ev, err := s.events.GetEvent(ctx, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return application.Application{}, apperr.NotFound("event not found")
	}
	if err != nil {
		return application.Application{}, err
	}
	if !ev.AcceptingApplications(s.now().UTC()) {
		return application.Application{}, apperr.Conflict("event is not accepting applications")
	}

	if _, err := s.apps.GetApplicationByUserEvent(ctx, userID, eventID); err == nil {
		return application.Application{}, apperr.Conflict("an application for this event already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return application.Application{}, err
	}

	created, err := s.apps.CreateApplication(ctx, application.Application{
		UserID:  userID,
		EventID: eventID,
		Status:  application.StatusDraft,
	})
	if err != nil {
		return application.Application{}, err
	}
	s.log.WithField("application_id", created.ID).WithField("event_id", eventID).Info("application created")
	return created, nil
}

// Get returns one application by id.
func (s *Service) Get(ctx context.Context, id string) (application.Application, error) {
	app, err := s.apps.GetApplication(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return application.Application{}, apperr.NotFound("application not found")
	}
	return app, err
}

// GetByUserEvent returns the user's application for an event, if any.
func (s *Service) GetByUserEvent(ctx context.Context, userID, eventID string) (application.Application, error) {
	app, err := s.apps.GetApplicationByUserEvent(ctx, userID, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return application.Application{}, apperr.NotFound("application not found")
	}
	return app, err
}

// ListByUser returns all of a user's applications.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]application.Application, error) {
	return s.apps.ListApplicationsByUser(ctx, userID)
}

// ListByEvent returns an event's applications, optionally filtered by status.
func (s *Service) ListByEvent(ctx context.Context, eventID string, status application.Status) ([]application.Application, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid status filter")
	}
	return s.apps.ListApplicationsByEvent(ctx, eventID, status)
}

// SaveResponse stores one answer. The value is serialized per question type:
// MULTISELECT as a JSON array, CHECKBOX as "true"/"false", everything else
// as the raw string. Only DRAFT applications are editable.
func (s *Service) SaveResponse(ctx context.Context, applicationID, questionKey string, in AnswerInput) (application.Response, error) {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return application.Response{}, err
	}
	if !app.Status.Editable() {
		return application.Response{}, apperr.Conflict("application is not editable in status " + string(app.Status))
	}

	q, err := s.questionByKey(ctx, app.EventID, questionKey)
	if err != nil {
		return application.Response{}, err
	}

	value, err := serializeAnswer(q, in)
	if err != nil {
		return application.Response{}, err
	}

	resp, err := s.apps.UpsertResponse(ctx, application.Response{
		ApplicationID: applicationID,
		QuestionID:    q.ID,
		QuestionKey:   q.Key,
		Value:         value,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.AutosaveFlush("failed")
		}
		return application.Response{}, err
	}
	if s.metrics != nil {
		s.metrics.AutosaveFlush("ok")
	}
	return resp, nil
}

// GetResponse returns the saved answer for one question key.
func (s *Service) GetResponse(ctx context.Context, applicationID, questionKey string) (application.Response, error) {
	resp, err := s.apps.GetResponse(ctx, applicationID, questionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return application.Response{}, apperr.NotFound("response not found")
	}
	return resp, err
}

// ListResponses returns every saved answer for an application.
func (s *Service) ListResponses(ctx context.Context, applicationID string) ([]application.Response, error) {
	return s.apps.ListResponses(ctx, applicationID)
}

// Completion computes required-question progress. Conditional follow-up
// questions are excluded from the denominator; a form with no required
// questions is 100% complete.
func (s *Service) Completion(ctx context.Context, applicationID string) (application.Completion, error) {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return application.Completion{}, err
	}
	questions, err := s.questions.ListQuestions(ctx, app.EventID)
	if err != nil {
		return application.Completion{}, err
	}
	responses, err := s.apps.ListResponses(ctx, applicationID)
	if err != nil {
		return application.Completion{}, err
	}

	byKey := make(map[string]application.Response, len(responses))
	for _, resp := range responses {
		byKey[resp.QuestionKey] = resp
	}

	c := application.Completion{}
	for _, q := range questions {
		if !q.Required || q.Conditional() {
			continue
		}
		c.Required++
		if resp, ok := byKey[q.Key]; ok && answered(q, resp.Value) {
			c.Answered++
		}
	}
	if c.Required == 0 {
		c.Percent = 100
		return c, nil
	}
	c.Percent = c.Answered * 100 / c.Required
	return c, nil
}

// MissingRequired returns the keys of unanswered required questions in
// display order. The first entry is the field a client should scroll to.
func (s *Service) MissingRequired(ctx context.Context, applicationID string) ([]string, error) {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListQuestions(ctx, app.EventID)
	if err != nil {
		return nil, err
	}
	responses, err := s.apps.ListResponses(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]application.Response, len(responses))
	for _, resp := range responses {
		byKey[resp.QuestionKey] = resp
	}

	var missing []string
	for _, q := range questions {
		if !q.Required || q.Conditional() {
			continue
		}
		if resp, ok := byKey[q.Key]; !ok || !answered(q, resp.Value) {
			missing = append(missing, q.Key)
		}
	}
	return missing, nil
}

// Submit moves a DRAFT application to SUBMITTED once every required question
// is answered. Submitting an already SUBMITTED application is a no-op.
// Validation failures carry the missing keys in display order.
func (s *Service) Submit(ctx context.Context, applicationID string) (application.Application, error) {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return application.Application{}, err
	}
	if app.Status == application.StatusSubmitted {
		return app, nil
	}
	if !application.CanTransition(app.Status, application.StatusSubmitted) {
		return application.Application{}, apperr.Conflict("cannot submit from status " + string(app.Status))
	}

	missing, err := s.MissingRequired(ctx, applicationID)
	if err != nil {
		return application.Application{}, err
	}
	if len(missing) > 0 {
		return application.Application{}, apperr.Validation("required questions are unanswered").
			WithDetails("missing", missing).
			WithDetails("scroll_to", missing[0])
	}

	app.Status = application.StatusSubmitted
	app.SubmittedAt = s.now().UTC()
	updated, err := s.apps.UpdateApplication(ctx, app)
	if err != nil {
		return application.Application{}, err
	}
	if s.metrics != nil {
		s.metrics.SubmissionAccepted()
	}
	s.log.WithField("application_id", updated.ID).Info("application submitted")
	return updated, nil
}

// StartReview moves a SUBMITTED application to UNDER_REVIEW.
func (s *Service) StartReview(ctx context.Context, applicationID string) (application.Application, error) {
	return s.transition(ctx, applicationID, application.StatusUnderReview, "")
}

// Decide records a review outcome: ACCEPTED, REJECTED or WAITLISTED.
func (s *Service) Decide(ctx context.Context, applicationID string, outcome application.Status) (application.Application, error) {
	switch outcome {
	case application.StatusAccepted, application.StatusRejected, application.StatusWaitlisted:
	default:
		return application.Application{}, apperr.Validation("outcome must be ACCEPTED, REJECTED or WAITLISTED")
	}
	return s.transition(ctx, applicationID, outcome,
		fmt.Sprintf("Your application decision: %s", outcome))
}

// Revert sends a SUBMITTED application back to DRAFT so the applicant can
// edit again. The applicant gets a time-limited notification; polling
// clients surface it as a banner.
func (s *Service) Revert(ctx context.Context, applicationID string) (application.Application, error) {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return application.Application{}, err
	}
	if !application.CanTransition(app.Status, application.StatusDraft) {
		return application.Application{}, apperr.Conflict("cannot revert from status " + string(app.Status))
	}

	app.Status = application.StatusDraft
	app.SubmittedAt = time.Time{}
	updated, err := s.apps.UpdateApplication(ctx, app)
	if err != nil {
		return application.Application{}, err
	}
	if s.metrics != nil {
		s.metrics.ReversionDetected()
	}
	if s.notifications != nil {
		_, nerr := s.notifications.CreateNotification(ctx, notification.Notification{
			UserID:    updated.UserID,
			Kind:      notification.KindReverted,
			Message:   "Your application was returned to draft for edits",
			ExpiresAt: s.now().UTC().Add(reversionBannerWindow),
		})
		if nerr != nil {
			s.log.WithError(nerr).Warn("failed to record reversion notification")
		}
	}
	s.log.WithField("application_id", updated.ID).Info("application reverted to draft")
	return updated, nil
}

// Cancel withdraws an application from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, applicationID string) (application.Application, error) {
	return s.transition(ctx, applicationID, application.StatusCancelled, "")
}

func (s *Service) transition(ctx context.Context, applicationID string, to application.Status, notify string) (application.Application, error) {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return application.Application{}, err
	}
	if !application.CanTransition(app.Status, to) {
		return application.Application{}, apperr.Conflict(
			fmt.Sprintf("cannot transition from %s to %s", app.Status, to))
	}

	app.Status = to
	updated, err := s.apps.UpdateApplication(ctx, app)
	if err != nil {
		return application.Application{}, err
	}
	if notify != "" && s.notifications != nil {
		_, nerr := s.notifications.CreateNotification(ctx, notification.Notification{
			UserID:  updated.UserID,
			Kind:    notification.KindStatus,
			Message: notify,
		})
		if nerr != nil {
			s.log.WithError(nerr).Warn("failed to record status notification")
		}
	}
	s.log.WithField("application_id", updated.ID).WithField("status", string(to)).Info("application status changed")
	return updated, nil
}

func (s *Service) questionByKey(ctx context.Context, eventID, key string) (event.Question, error) {
	questions, err := s.questions.ListQuestions(ctx, eventID)
	if err != nil {
		return event.Question{}, err
	}
	for _, q := range questions {
		if q.Key == key {
			return q, nil
		}
	}
	return event.Question{}, apperr.NotFound("unknown question key: " + key)
}

// serializeAnswer normalizes one answer into its stored string form and
// validates it against the question definition.
func serializeAnswer(q event.Question, in AnswerInput) (string, error) {
	switch q.Type {
	case event.TypeMultiselect:
		for _, v := range in.Values {
			if !optionAllowed(q.Options, v) {
				return "", apperr.Validation("value is not an option: " + v)
			}
		}
		encoded, err := json.Marshal(in.Values)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	case event.TypeCheckbox:
		checked, err := strconv.ParseBool(strings.TrimSpace(in.Value))
		if err != nil {
			return "", apperr.Validation("checkbox value must be true or false")
		}
		return strconv.FormatBool(checked), nil
	case event.TypeSelect:
		value := strings.TrimSpace(in.Value)
		if value != "" && !optionAllowed(q.Options, value) {
			return "", apperr.Validation("value is not an option: " + value)
		}
		return value, nil
	case event.TypeNumber:
		value := strings.TrimSpace(in.Value)
		if value != "" {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return "", apperr.Validation("value must be a number")
			}
		}
		return value, nil
	case event.TypeEmail:
		value := strings.TrimSpace(in.Value)
		if value != "" && !strings.Contains(value, "@") {
			return "", apperr.Validation("value must be an email address")
		}
		return value, nil
	default:
		return in.Value, nil
	}
}

func optionAllowed(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}

// answered reports whether a stored value counts as an answer for its
// question type: a non-empty JSON array for MULTISELECT, "true" for
// CHECKBOX, any non-blank string otherwise.
func answered(q event.Question, value string) bool {
	switch q.Type {
	case event.TypeMultiselect:
		parsed := gjson.Parse(value)
		return parsed.IsArray() && len(parsed.Array()) > 0
	case event.TypeCheckbox:
		return value == "true"
	default:
		return strings.TrimSpace(value) != ""
	}
}
