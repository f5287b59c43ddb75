package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/Gather-Network/conference_layer/internal/app/domain/application"
	"github.com/Gather-Network/conference_layer/internal/app/domain/event"
	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return New(db), mock, func() { db.Close() }
}

func TestCreateUserAssignsID(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec(`INSERT INTO conf_users`).
		WithArgs(sqlmock.AnyArg(), "dana@example.com", "Dana", "USER", "hash", "dana_tg", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := store.CreateUser(context.Background(), user.User{
		Email:          "dana@example.com",
		Name:           "Dana",
		Role:           user.RoleUser,
		PasswordHash:   "hash",
		TelegramHandle: "dana_tg",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery(`SELECT .+ FROM conf_users`).
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetUserByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateApplicationPreservesOwnership(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "event_id", "status", "submitted_at", "created_at", "updated_at"}).
		AddRow("app-1", "user-1", "event-1", "DRAFT", nil, createdAt, createdAt)

	mock.ExpectQuery(`SELECT .+ FROM conf_applications`).
		WithArgs("app-1").
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE conf_applications`).
		WithArgs("app-1", "SUBMITTED", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := store.UpdateApplication(context.Background(), application.Application{
		ID:          "app-1",
		UserID:      "someone-else",
		EventID:     "another-event",
		Status:      application.StatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("UpdateApplication: %v", err)
	}
	if updated.UserID != "user-1" || updated.EventID != "event-1" {
		t.Fatalf("ownership fields must not change: %+v", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateEventMissingRow(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "slug", "name", "kind", "audience", "opens_at", "closes_at", "active", "created_at", "updated_at"}).
		AddRow("event-1", "conf-2025", "Conf 2025", "CONFERENCE", "ATTENDEE", nil, nil, true, now, now)

	mock.ExpectQuery(`SELECT .+ FROM conf_events`).
		WithArgs("event-1").
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE conf_events`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateEvent(context.Background(), event.Event{ID: "event-1", Name: "Renamed"})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpsertResponseReturnsStoredIdentity(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO conf_responses`).
		WithArgs(sqlmock.AnyArg(), "app-1", "q-1", "motivation", "new value", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("resp-1", createdAt))

	resp, err := store.UpsertResponse(context.Background(), application.Response{
		ApplicationID: "app-1",
		QuestionID:    "q-1",
		QuestionKey:   "motivation",
		Value:         "new value",
	})
	if err != nil {
		t.Fatalf("UpsertResponse: %v", err)
	}
	if resp.ID != "resp-1" {
		t.Fatalf("expected stored id resp-1, got %q", resp.ID)
	}
	if !resp.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected original created_at preserved, got %v", resp.CreatedAt)
	}
}

func TestListQuestionsDecodesOptions(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "event_id", "key", "prompt_en", "prompt_ru", "type", "required", "options", "display_order", "created_at", "updated_at"}).
		AddRow("q-1", "event-1", "format", "Talk format", "Формат доклада", "SELECT", true, []byte(`["LIGHTNING","FULL"]`), 1, now, now)

	mock.ExpectQuery(`SELECT .+ FROM conf_questions`).
		WithArgs("event-1").
		WillReturnRows(rows)

	questions, err := store.ListQuestions(context.Background(), "event-1")
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if len(questions[0].Options) != 2 || questions[0].Options[0] != "LIGHTNING" {
		t.Fatalf("options not decoded: %+v", questions[0].Options)
	}
}
