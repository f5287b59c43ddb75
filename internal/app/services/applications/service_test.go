package applications

import (
	"context"
	"testing"
	"time"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/application"
	"github.com/Gather-Network/conference_layer/internal/app/domain/event"
	"github.com/Gather-Network/conference_layer/internal/app/domain/notification"
	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
	"github.com/Gather-Network/conference_layer/internal/app/storage/memory"
)

type fixture struct {
	store   *memory.Store
	service *Service
	user    user.User
	event   event.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, user.User{Email: "dana@example.com", Name: "Dana", Role: user.RoleUser})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	ev, err := store.CreateEvent(ctx, event.Event{
		Slug:     "conf-2025",
		Name:     "Conf 2025",
		Kind:     event.KindConference,
		Audience: event.AudienceAttendee,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	return &fixture{
		store:   store,
		service: New(store, store, store, store, nil, nil),
		user:    u,
		event:   ev,
	}
}

func (f *fixture) addQuestion(t *testing.T, q event.Question) event.Question {
	t.Helper()
	q.EventID = f.event.ID
	created, err := f.store.CreateQuestion(context.Background(), q)
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	return created
}

func (f *fixture) newDraft(t *testing.T) application.Application {
	t.Helper()
	app, err := f.service.Create(context.Background(), f.user.ID, f.event.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return app
}

func TestCreateRejectsSecondApplication(t *testing.T) {
	f := newFixture(t)
	f.newDraft(t)

	_, err := f.service.Create(context.Background(), f.user.ID, f.event.ID)
	if err == nil {
		t.Fatal("expected conflict for second application")
	}
	if se := apperr.GetServiceError(err); se == nil || se.Code != apperr.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateRejectsClosedWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.event.ClosesAt = time.Now().UTC().Add(-time.Hour)
	if _, err := f.store.UpdateEvent(ctx, f.event); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}

	_, err := f.service.Create(ctx, f.user.ID, f.event.ID)
	if err == nil {
		t.Fatal("expected error for closed window")
	}
}

func TestSaveResponseSerialization(t *testing.T) {
	f := newFixture(t)
	f.addQuestion(t, event.Question{Key: "topics", PromptEN: "Topics", Type: event.TypeMultiselect, Options: []string{"go", "rust"}})
	f.addQuestion(t, event.Question{Key: "coc", PromptEN: "Agree to the code of conduct", Type: event.TypeCheckbox})
	f.addQuestion(t, event.Question{Key: "name", PromptEN: "Full name", Type: event.TypeText})
	app := f.newDraft(t)
	ctx := context.Background()

	resp, err := f.service.SaveResponse(ctx, app.ID, "topics", AnswerInput{Values: []string{"go", "rust"}})
	if err != nil {
		t.Fatalf("SaveResponse multiselect: %v", err)
	}
	if resp.Value != `["go","rust"]` {
		t.Fatalf("multiselect value = %q", resp.Value)
	}

	resp, err = f.service.SaveResponse(ctx, app.ID, "coc", AnswerInput{Value: "true"})
	if err != nil {
		t.Fatalf("SaveResponse checkbox: %v", err)
	}
	if resp.Value != "true" {
		t.Fatalf("checkbox value = %q", resp.Value)
	}

	resp, err = f.service.SaveResponse(ctx, app.ID, "name", AnswerInput{Value: "Dana"})
	if err != nil {
		t.Fatalf("SaveResponse text: %v", err)
	}
	if resp.Value != "Dana" {
		t.Fatalf("text value = %q", resp.Value)
	}

	if _, err := f.service.SaveResponse(ctx, app.ID, "topics", AnswerInput{Values: []string{"cobol"}}); err == nil {
		t.Fatal("expected validation error for unknown option")
	}
}

func TestSaveResponseLastWriteWins(t *testing.T) {
	f := newFixture(t)
	f.addQuestion(t, event.Question{Key: "name", PromptEN: "Full name", Type: event.TypeText})
	app := f.newDraft(t)
	ctx := context.Background()

	if _, err := f.service.SaveResponse(ctx, app.ID, "name", AnswerInput{Value: "first"}); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}
	if _, err := f.service.SaveResponse(ctx, app.ID, "name", AnswerInput{Value: "second"}); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}

	resp, err := f.service.GetResponse(ctx, app.ID, "name")
	if err != nil {
		t.Fatalf("GetResponse: %v", err)
	}
	if resp.Value != "second" {
		t.Fatalf("expected last write to win, got %q", resp.Value)
	}
}

func TestSaveResponseRejectsNonDraft(t *testing.T) {
	f := newFixture(t)
	f.addQuestion(t, event.Question{Key: "name", PromptEN: "Full name", Type: event.TypeText, Required: true})
	app := f.newDraft(t)
	ctx := context.Background()

	if _, err := f.service.SaveResponse(ctx, app.ID, "name", AnswerInput{Value: "Dana"}); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}
	if _, err := f.service.Submit(ctx, app.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := f.service.SaveResponse(ctx, app.ID, "name", AnswerInput{Value: "Changed"}); err == nil {
		t.Fatal("expected error editing a submitted application")
	}
}

func TestCompletionExcludesConditionalQuestions(t *testing.T) {
	f := newFixture(t)
	f.addQuestion(t, event.Question{Key: "name", PromptEN: "Full name", Type: event.TypeText, Required: true, Order: 1})
	f.addQuestion(t, event.Question{Key: "diet", PromptEN: "Dietary needs", Type: event.TypeText, Required: true, Order: 2})
	f.addQuestion(t, event.Question{Key: "diet_other", PromptEN: "If other, please specify", Type: event.TypeText, Required: true, Order: 3})
	app := f.newDraft(t)
	ctx := context.Background()

	c, err := f.service.Completion(ctx, app.ID)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if c.Required != 2 || c.Percent != 0 {
		t.Fatalf("expected 2 required at 0%%, got %+v", c)
	}

	if _, err := f.service.SaveResponse(ctx, app.ID, "name", AnswerInput{Value: "Dana"}); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}
	c, _ = f.service.Completion(ctx, app.ID)
	if c.Percent != 50 {
		t.Fatalf("expected 50%%, got %+v", c)
	}

	if _, err := f.service.SaveResponse(ctx, app.ID, "diet", AnswerInput{Value: "vegan"}); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}
	c, _ = f.service.Completion(ctx, app.ID)
	if c.Percent != 100 {
		t.Fatalf("expected 100%% without the conditional follow-up, got %+v", c)
	}
}

func TestCompletionNoRequiredQuestionsIsFull(t *testing.T) {
	f := newFixture(t)
	f.addQuestion(t, event.Question{Key: "bio", PromptEN: "Bio", Type: event.TypeTextarea})
	app := f.newDraft(t)

	c, err := f.service.Completion(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("Completion: %v", err)
	}
	if c.Percent != 100 {
		t.Fatalf("expected 100%% for a form with no required questions, got %+v", c)
	}
}

func TestSubmitReportsMissingInDisplayOrder(t *testing.T) {
	f := newFixture(t)
	f.addQuestion(t, event.Question{Key: "talk", PromptEN: "Talk title", Type: event.TypeText, Required: true, Order: 2})
	f.addQuestion(t, event.Question{Key: "name", PromptEN: "Full name", Type: event.TypeText, Required: true, Order: 1})
	app := f.newDraft(t)

	_, err := f.service.Submit(context.Background(), app.ID)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	se := apperr.GetServiceError(err)
	if se == nil || se.Code != apperr.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	missing, _ := se.Details["missing"].([]string)
	if len(missing) != 2 || missing[0] != "name" || missing[1] != "talk" {
		t.Fatalf("expected missing keys in display order, got %v", se.Details["missing"])
	}
	if se.Details["scroll_to"] != "name" {
		t.Fatalf("expected first missing key as scroll target, got %v", se.Details["scroll_to"])
	}
}

func TestSubmitTwiceIsBenign(t *testing.T) {
	f := newFixture(t)
	app := f.newDraft(t)
	ctx := context.Background()

	first, err := f.service.Submit(ctx, app.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	second, err := f.service.Submit(ctx, app.ID)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if second.Status != application.StatusSubmitted {
		t.Fatalf("status = %s", second.Status)
	}
	if !second.SubmittedAt.Equal(first.SubmittedAt) {
		t.Fatal("second submit must not change SubmittedAt")
	}
}

func TestReviewLifecycle(t *testing.T) {
	f := newFixture(t)
	app := f.newDraft(t)
	ctx := context.Background()

	if _, err := f.service.Submit(ctx, app.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.service.StartReview(ctx, app.ID); err != nil {
		t.Fatalf("StartReview: %v", err)
	}
	decided, err := f.service.Decide(ctx, app.ID, application.StatusAccepted)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != application.StatusAccepted {
		t.Fatalf("status = %s", decided.Status)
	}

	if _, err := f.service.Decide(ctx, app.ID, application.StatusRejected); err == nil {
		t.Fatal("expected error deciding a terminal application")
	}

	notes, err := f.store.ListNotifications(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	var found bool
	for _, n := range notes {
		if n.Kind == notification.KindStatus {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a status notification for the applicant")
	}
}

func TestRevertReturnsToDraftWithBanner(t *testing.T) {
	f := newFixture(t)
	app := f.newDraft(t)
	ctx := context.Background()

	if _, err := f.service.Submit(ctx, app.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	reverted, err := f.service.Revert(ctx, app.ID)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted.Status != application.StatusDraft {
		t.Fatalf("status = %s", reverted.Status)
	}
	if !reverted.SubmittedAt.IsZero() {
		t.Fatal("expected SubmittedAt cleared on reversion")
	}

	notes, err := f.store.ListNotifications(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	var banner *notification.Notification
	for i, n := range notes {
		if n.Kind == notification.KindReverted {
			banner = &notes[i]
		}
	}
	if banner == nil {
		t.Fatal("expected a reversion notification")
	}
	if banner.ExpiresAt.IsZero() {
		t.Fatal("expected the reversion banner to be time-limited")
	}
	if banner.Expired(time.Now().UTC()) {
		t.Fatal("banner must still be active immediately after reversion")
	}
	if !banner.Expired(time.Now().UTC().Add(11 * time.Second)) {
		t.Fatal("banner must lapse after its window")
	}
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	f := newFixture(t)
	app := f.newDraft(t)
	ctx := context.Background()

	cancelled, err := f.service.Cancel(ctx, app.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != application.StatusCancelled {
		t.Fatalf("status = %s", cancelled.Status)
	}

	if _, err := f.service.Cancel(ctx, app.ID); err == nil {
		t.Fatal("expected error cancelling twice")
	}
}
