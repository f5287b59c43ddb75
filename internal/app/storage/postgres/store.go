package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Gather-Network/conference_layer/internal/app/domain/application"
	"github.com/Gather-Network/conference_layer/internal/app/domain/event"
	"github.com/Gather-Network/conference_layer/internal/app/domain/notification"
	"github.com/Gather-Network/conference_layer/internal/app/domain/praise"
	"github.com/Gather-Network/conference_layer/internal/app/domain/project"
	"github.com/Gather-Network/conference_layer/internal/app/domain/schedule"
	"github.com/Gather-Network/conference_layer/internal/app/domain/upload"
	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.EventStore = (*Store)(nil)
var _ storage.QuestionStore = (*Store)(nil)
var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.PraiseStore = (*Store)(nil)
var _ storage.ScheduleStore = (*Store)(nil)
var _ storage.ProjectStore = (*Store)(nil)
var _ storage.NotificationStore = (*Store)(nil)
var _ storage.UploadStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conf_users (id, email, name, role, password_hash, telegram_handle, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.TelegramHandle, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	existing, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return user.User{}, err
	}

	u.Email = existing.Email
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE conf_users
		SET name = $2, role = $3, password_hash = $4, telegram_handle = $5, updated_at = $6
		WHERE id = $1
	`, u.ID, u.Name, u.Role, u.PasswordHash, u.TelegramHandle, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash, telegram_handle, created_at, updated_at
		FROM conf_users
		WHERE id = $1
	`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash, telegram_handle, created_at, updated_at
		FROM conf_users
		WHERE email = lower($1)
	`, email))
}

func (s *Store) scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.TelegramHandle, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, role, password_hash, telegram_handle, created_at, updated_at
		FROM conf_users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.TelegramHandle, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// --- EventStore -------------------------------------------------------------

func (s *Store) CreateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conf_events (id, slug, name, kind, audience, opens_at, closes_at, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ev.ID, ev.Slug, ev.Name, ev.Kind, ev.Audience, toNullTime(ev.OpensAt), toNullTime(ev.ClosesAt), ev.Active, ev.CreatedAt, ev.UpdatedAt)
	if err != nil {
		return event.Event{}, err
	}
	return ev, nil
}

func (s *Store) UpdateEvent(ctx context.Context, ev event.Event) (event.Event, error) {
	existing, err := s.GetEvent(ctx, ev.ID)
	if err != nil {
		return event.Event{}, err
	}

	ev.Slug = existing.Slug
	ev.CreatedAt = existing.CreatedAt
	ev.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE conf_events
		SET name = $2, kind = $3, audience = $4, opens_at = $5, closes_at = $6, active = $7, updated_at = $8
		WHERE id = $1
	`, ev.ID, ev.Name, ev.Kind, ev.Audience, toNullTime(ev.OpensAt), toNullTime(ev.ClosesAt), ev.Active, ev.UpdatedAt)
	if err != nil {
		return event.Event{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return event.Event{}, sql.ErrNoRows
	}
	return ev, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (event.Event, error) {
	return s.scanEvent(s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, kind, audience, opens_at, closes_at, active, created_at, updated_at
		FROM conf_events
		WHERE id = $1
	`, id))
}

func (s *Store) GetEventBySlug(ctx context.Context, slug string) (event.Event, error) {
	return s.scanEvent(s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, kind, audience, opens_at, closes_at, active, created_at, updated_at
		FROM conf_events
		WHERE slug = $1
	`, slug))
}

func (s *Store) scanEvent(row *sql.Row) (event.Event, error) {
	var (
		ev       event.Event
		opensAt  sql.NullTime
		closesAt sql.NullTime
	)
	if err := row.Scan(&ev.ID, &ev.Slug, &ev.Name, &ev.Kind, &ev.Audience, &opensAt, &closesAt, &ev.Active, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return event.Event{}, err
	}
	if opensAt.Valid {
		ev.OpensAt = opensAt.Time.UTC()
	}
	if closesAt.Valid {
		ev.ClosesAt = closesAt.Time.UTC()
	}
	return ev, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, name, kind, audience, opens_at, closes_at, active, created_at, updated_at
		FROM conf_events
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []event.Event
	for rows.Next() {
		var (
			ev       event.Event
			opensAt  sql.NullTime
			closesAt sql.NullTime
		)
		if err := rows.Scan(&ev.ID, &ev.Slug, &ev.Name, &ev.Kind, &ev.Audience, &opensAt, &closesAt, &ev.Active, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
			return nil, err
		}
		if opensAt.Valid {
			ev.OpensAt = opensAt.Time.UTC()
		}
		if closesAt.Valid {
			ev.ClosesAt = closesAt.Time.UTC()
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

// --- QuestionStore ----------------------------------------------------------

func (s *Store) CreateQuestion(ctx context.Context, q event.Question) (event.Question, error) {
	if q.EventID == "" {
		return event.Question{}, errors.New("event_id required")
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now

	optionsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return event.Question{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conf_questions (id, event_id, key, prompt_en, prompt_ru, type, required, options, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, q.ID, q.EventID, q.Key, q.PromptEN, q.PromptRU, q.Type, q.Required, optionsJSON, q.Order, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return event.Question{}, err
	}
	return q, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q event.Question) (event.Question, error) {
	existing, err := s.GetQuestion(ctx, q.ID)
	if err != nil {
		return event.Question{}, err
	}

	q.EventID = existing.EventID
	q.Key = existing.Key
	q.CreatedAt = existing.CreatedAt
	q.UpdatedAt = time.Now().UTC()

	optionsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return event.Question{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE conf_questions
		SET prompt_en = $2, prompt_ru = $3, type = $4, required = $5, options = $6, display_order = $7, updated_at = $8
		WHERE id = $1
	`, q.ID, q.PromptEN, q.PromptRU, q.Type, q.Required, optionsJSON, q.Order, q.UpdatedAt)
	if err != nil {
		return event.Question{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return event.Question{}, sql.ErrNoRows
	}
	return q, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM conf_questions WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (event.Question, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, key, prompt_en, prompt_ru, type, required, options, display_order, created_at, updated_at
		FROM conf_questions
		WHERE id = $1
	`, id)

	var (
		q          event.Question
		optionsRaw []byte
	)
	if err := row.Scan(&q.ID, &q.EventID, &q.Key, &q.PromptEN, &q.PromptRU, &q.Type, &q.Required, &optionsRaw, &q.Order, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return event.Question{}, err
	}
	if len(optionsRaw) > 0 {
		_ = json.Unmarshal(optionsRaw, &q.Options)
	}
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context, eventID string) ([]event.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, key, prompt_en, prompt_ru, type, required, options, display_order, created_at, updated_at
		FROM conf_questions
		WHERE event_id = $1
		ORDER BY display_order, key
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []event.Question
	for rows.Next() {
		var (
			q          event.Question
			optionsRaw []byte
		)
		if err := rows.Scan(&q.ID, &q.EventID, &q.Key, &q.PromptEN, &q.PromptRU, &q.Type, &q.Required, &optionsRaw, &q.Order, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		if len(optionsRaw) > 0 {
			_ = json.Unmarshal(optionsRaw, &q.Options)
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

// --- ApplicationStore ---------------------------------------------------------

func (s *Store) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	if app.UserID == "" || app.EventID == "" {
		return application.Application{}, errors.New("user_id and event_id required")
	}
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conf_applications (id, user_id, event_id, status, submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, app.ID, app.UserID, app.EventID, app.Status, toNullTime(app.SubmittedAt), app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return application.Application{}, err
	}
	return app, nil
}

func (s *Store) UpdateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	existing, err := s.GetApplication(ctx, app.ID)
	if err != nil {
		return application.Application{}, err
	}

	app.UserID = existing.UserID
	app.EventID = existing.EventID
	app.CreatedAt = existing.CreatedAt
	app.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE conf_applications
		SET status = $2, submitted_at = $3, updated_at = $4
		WHERE id = $1
	`, app.ID, app.Status, toNullTime(app.SubmittedAt), app.UpdatedAt)
	if err != nil {
		return application.Application{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return application.Application{}, sql.ErrNoRows
	}
	return app, nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (application.Application, error) {
	return s.scanApplication(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, status, submitted_at, created_at, updated_at
		FROM conf_applications
		WHERE id = $1
	`, id))
}

func (s *Store) GetApplicationByUserEvent(ctx context.Context, userID, eventID string) (application.Application, error) {
	return s.scanApplication(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, event_id, status, submitted_at, created_at, updated_at
		FROM conf_applications
		WHERE user_id = $1 AND event_id = $2
	`, userID, eventID))
}

func (s *Store) scanApplication(row *sql.Row) (application.Application, error) {
	var (
		app         application.Application
		submittedAt sql.NullTime
	)
	if err := row.Scan(&app.ID, &app.UserID, &app.EventID, &app.Status, &submittedAt, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return application.Application{}, err
	}
	if submittedAt.Valid {
		app.SubmittedAt = submittedAt.Time.UTC()
	}
	return app, nil
}

func (s *Store) ListApplicationsByEvent(ctx context.Context, eventID string, status application.Status) ([]application.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, event_id, status, submitted_at, created_at, updated_at
		FROM conf_applications
		WHERE event_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at
	`, eventID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func (s *Store) ListApplicationsByUser(ctx context.Context, userID string) ([]application.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, event_id, status, submitted_at, created_at, updated_at
		FROM conf_applications
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]application.Application, error) {
	var result []application.Application
	for rows.Next() {
		var (
			app         application.Application
			submittedAt sql.NullTime
		)
		if err := rows.Scan(&app.ID, &app.UserID, &app.EventID, &app.Status, &submittedAt, &app.CreatedAt, &app.UpdatedAt); err != nil {
			return nil, err
		}
		if submittedAt.Valid {
			app.SubmittedAt = submittedAt.Time.UTC()
		}
		result = append(result, app)
	}
	return result, rows.Err()
}

func (s *Store) UpsertResponse(ctx context.Context, resp application.Response) (application.Response, error) {
	if resp.ApplicationID == "" || resp.QuestionKey == "" {
		return application.Response{}, errors.New("application_id and question_key required")
	}
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	resp.CreatedAt = now
	resp.UpdatedAt = now

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO conf_responses (id, application_id, question_id, question_key, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (application_id, question_key)
		DO UPDATE SET value = EXCLUDED.value, question_id = EXCLUDED.question_id, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`, resp.ID, resp.ApplicationID, resp.QuestionID, resp.QuestionKey, resp.Value, resp.CreatedAt, resp.UpdatedAt)
	if err := row.Scan(&resp.ID, &resp.CreatedAt); err != nil {
		return application.Response{}, err
	}
	return resp, nil
}

func (s *Store) GetResponse(ctx context.Context, applicationID, questionKey string) (application.Response, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, application_id, question_id, question_key, value, created_at, updated_at
		FROM conf_responses
		WHERE application_id = $1 AND question_key = $2
	`, applicationID, questionKey)

	var resp application.Response
	if err := row.Scan(&resp.ID, &resp.ApplicationID, &resp.QuestionID, &resp.QuestionKey, &resp.Value, &resp.CreatedAt, &resp.UpdatedAt); err != nil {
		return application.Response{}, err
	}
	return resp, nil
}

func (s *Store) ListResponses(ctx context.Context, applicationID string) ([]application.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, question_id, question_key, value, created_at, updated_at
		FROM conf_responses
		WHERE application_id = $1
		ORDER BY question_key
	`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []application.Response
	for rows.Next() {
		var resp application.Response
		if err := rows.Scan(&resp.ID, &resp.ApplicationID, &resp.QuestionID, &resp.QuestionKey, &resp.Value, &resp.CreatedAt, &resp.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, rows.Err()
}

// --- PraiseStore --------------------------------------------------------------

func (s *Store) CreatePraise(ctx context.Context, p praise.Praise) (praise.Praise, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conf_praise (id, event_id, giver_id, recipient_id, category, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.EventID, p.GiverID, p.RecipientID, p.Category, p.Message, p.CreatedAt)
	if err != nil {
		return praise.Praise{}, err
	}
	return p, nil
}

func (s *Store) ListPraise(ctx context.Context, eventID, recipientID string) ([]praise.Praise, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, giver_id, recipient_id, category, message, created_at
		FROM conf_praise
		WHERE ($1 = '' OR event_id = $1) AND ($2 = '' OR recipient_id = $2)
		ORDER BY created_at DESC
	`, eventID, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []praise.Praise
	for rows.Next() {
		var p praise.Praise
		if err := rows.Scan(&p.ID, &p.EventID, &p.GiverID, &p.RecipientID, &p.Category, &p.Message, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) Leaderboard(ctx context.Context, eventID string, limit int) ([]praise.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT recipient_id, COUNT(*) AS total
		FROM conf_praise
		WHERE $1 = '' OR event_id = $1
		GROUP BY recipient_id
		ORDER BY total DESC, recipient_id
		LIMIT $2
	`, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []praise.LeaderboardEntry
	for rows.Next() {
		var entry praise.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// --- ScheduleStore ------------------------------------------------------------

func (s *Store) CreateSession(ctx context.Context, sess schedule.Session) (schedule.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conf_sessions (id, event_id, title, speaker_id, room, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sess.ID, sess.EventID, sess.Title, sess.SpeakerID, sess.Room, sess.StartsAt, sess.EndsAt, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return schedule.Session{}, err
	}
	return sess, nil
}

func (s *Store) UpdateSession(ctx context.Context, sess schedule.Session) (schedule.Session, error) {
	existing, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		return schedule.Session{}, err
	}

	sess.EventID = existing.EventID
	sess.CreatedAt = existing.CreatedAt
	sess.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE conf_sessions
		SET title = $2, speaker_id = $3, room = $4, starts_at = $5, ends_at = $6, updated_at = $7
		WHERE id = $1
	`, sess.ID, sess.Title, sess.SpeakerID, sess.Room, sess.StartsAt, sess.EndsAt, sess.UpdatedAt)
	if err != nil {
		return schedule.Session{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return schedule.Session{}, sql.ErrNoRows
	}
	return sess, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (schedule.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, title, speaker_id, room, starts_at, ends_at, created_at, updated_at
		FROM conf_sessions
		WHERE id = $1
	`, id)

	var sess schedule.Session
	if err := row.Scan(&sess.ID, &sess.EventID, &sess.Title, &sess.SpeakerID, &sess.Room, &sess.StartsAt, &sess.EndsAt, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return schedule.Session{}, err
	}
	return sess, nil
}

func (s *Store) ListSessions(ctx context.Context, eventID string) ([]schedule.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, title, speaker_id, room, starts_at, ends_at, created_at, updated_at
		FROM conf_sessions
		WHERE event_id = $1
		ORDER BY starts_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []schedule.Session
	for rows.Next() {
		var sess schedule.Session
		if err := rows.Scan(&sess.ID, &sess.EventID, &sess.Title, &sess.SpeakerID, &sess.Room, &sess.StartsAt, &sess.EndsAt, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	return result, rows.Err()
}

// --- ProjectStore -------------------------------------------------------------

func (s *Store) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conf_projects (id, event_id, owner_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.EventID, p.OwnerID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, p project.Project) (project.Project, error) {
	existing, err := s.GetProject(ctx, p.ID)
	if err != nil {
		return project.Project{}, err
	}

	p.EventID = existing.EventID
	p.OwnerID = existing.OwnerID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE conf_projects
		SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.UpdatedAt)
	if err != nil {
		return project.Project{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return project.Project{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (project.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, owner_id, name, description, created_at, updated_at
		FROM conf_projects
		WHERE id = $1
	`, id)

	var p project.Project
	if err := row.Scan(&p.ID, &p.EventID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, eventID string) ([]project.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, owner_id, name, description, created_at, updated_at
		FROM conf_projects
		WHERE $1 = '' OR event_id = $1
		ORDER BY created_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []project.Project
	for rows.Next() {
		var p project.Project
		if err := rows.Scan(&p.ID, &p.EventID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) CreateImpactMetric(ctx context.Context, m project.ImpactMetric) (project.ImpactMetric, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	if m.RecordedAt.IsZero() {
		m.RecordedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conf_impact_metrics (id, project_id, name, value, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.ProjectID, m.Name, m.Value, m.RecordedAt, m.CreatedAt)
	if err != nil {
		return project.ImpactMetric{}, err
	}
	return m, nil
}

func (s *Store) ListImpactMetrics(ctx context.Context, projectID string) ([]project.ImpactMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, value, recorded_at, created_at
		FROM conf_impact_metrics
		WHERE project_id = $1
		ORDER BY recorded_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []project.ImpactMetric
	for rows.Next() {
		var m project.ImpactMetric
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Value, &m.RecordedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// --- NotificationStore ----------------------------------------------------------

func (s *Store) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conf_notifications (id, user_id, kind, message, read, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, n.Kind, n.Message, n.Read, toNullTime(n.ExpiresAt), n.CreatedAt)
	if err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]notification.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, kind, message, read, expires_at, created_at
		FROM conf_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []notification.Notification
	for rows.Next() {
		var (
			n         notification.Notification
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.Read, &expiresAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			n.ExpiresAt = expiresAt.Time.UTC()
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE conf_notifications SET read = TRUE WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- UploadStore ----------------------------------------------------------------

func (s *Store) CreateUpload(ctx context.Context, u upload.Upload) (upload.Upload, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conf_uploads (id, owner_id, filename, content_type, size, path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.OwnerID, u.Filename, u.ContentType, u.Size, u.Path, u.CreatedAt)
	if err != nil {
		return upload.Upload{}, err
	}
	return u, nil
}

func (s *Store) GetUpload(ctx context.Context, id string) (upload.Upload, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, filename, content_type, size, path, created_at
		FROM conf_uploads
		WHERE id = $1
	`, id)

	var u upload.Upload
	if err := row.Scan(&u.ID, &u.OwnerID, &u.Filename, &u.ContentType, &u.Size, &u.Path, &u.CreatedAt); err != nil {
		return upload.Upload{}, err
	}
	return u, nil
}

func (s *Store) ListUploads(ctx context.Context, ownerID string) ([]upload.Upload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, filename, content_type, size, path, created_at
		FROM conf_uploads
		WHERE $1 = '' OR owner_id = $1
		ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []upload.Upload
	for rows.Next() {
		var u upload.Upload
		if err := rows.Scan(&u.ID, &u.OwnerID, &u.Filename, &u.ContentType, &u.Size, &u.Path, &u.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
