package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

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

// Store is an in-memory implementation of the storage interfaces. It is
// safe for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu            sync.RWMutex
	nextID        int64
	users         map[string]user.User
	usersByEmail  map[string]string
	events        map[string]event.Event
	eventsBySlug  map[string]string
	questions     map[string]event.Question
	applications  map[string]application.Application
	responses     map[string]map[string]application.Response // applicationID -> questionKey
	praises       map[string][]praise.Praise                 // eventID
	sessions      map[string]schedule.Session
	projects      map[string]project.Project
	impactMetrics map[string][]project.ImpactMetric // projectID
	notifications map[string]notification.Notification
	uploads       map[string]upload.Upload
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

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:        1,
		users:         make(map[string]user.User),
		usersByEmail:  make(map[string]string),
		events:        make(map[string]event.Event),
		eventsBySlug:  make(map[string]string),
		questions:     make(map[string]event.Question),
		applications:  make(map[string]application.Application),
		responses:     make(map[string]map[string]application.Response),
		praises:       make(map[string][]praise.Praise),
		sessions:      make(map[string]schedule.Session),
		projects:      make(map[string]project.Project),
		impactMetrics: make(map[string][]project.ImpactMetric),
		notifications: make(map[string]notification.Notification),
		uploads:       make(map[string]upload.Upload),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return user.User{}, fmt.Errorf("user with email %s already exists", u.Email)
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", u.ID)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %s not found: %w", u.ID, sql.ErrNoRows)
	}

	u.Email = original.Email
	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s not found: %w", id, sql.ErrNoRows)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return user.User{}, fmt.Errorf("user with email %s not found: %w", email, sql.ErrNoRows)
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// EventStore implementation -----------------------------------------------

func (s *Store) CreateEvent(_ context.Context, ev event.Event) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.eventsBySlug[ev.Slug]; exists {
		return event.Event{}, fmt.Errorf("event with slug %s already exists", ev.Slug)
	}
	if ev.ID == "" {
		ev.ID = s.nextIDLocked()
	} else if _, exists := s.events[ev.ID]; exists {
		return event.Event{}, fmt.Errorf("event %s already exists", ev.ID)
	}

	now := time.Now().UTC()
	ev.CreatedAt = now
	ev.UpdatedAt = now

	s.events[ev.ID] = ev
	s.eventsBySlug[ev.Slug] = ev.ID
	return ev, nil
}

func (s *Store) UpdateEvent(_ context.Context, ev event.Event) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.events[ev.ID]
	if !ok {
		return event.Event{}, fmt.Errorf("event %s not found: %w", ev.ID, sql.ErrNoRows)
	}

	ev.Slug = original.Slug
	ev.CreatedAt = original.CreatedAt
	ev.UpdatedAt = time.Now().UTC()
	s.events[ev.ID] = ev
	return ev, nil
}

func (s *Store) GetEvent(_ context.Context, id string) (event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[id]
	if !ok {
		return event.Event{}, fmt.Errorf("event %s not found: %w", id, sql.ErrNoRows)
	}
	return ev, nil
}

func (s *Store) GetEventBySlug(_ context.Context, slug string) (event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.eventsBySlug[slug]
	if !ok {
		return event.Event{}, fmt.Errorf("event with slug %s not found: %w", slug, sql.ErrNoRows)
	}
	return s.events[id], nil
}

func (s *Store) ListEvents(_ context.Context) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]event.Event, 0, len(s.events))
	for _, ev := range s.events {
		result = append(result, ev)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// QuestionStore implementation --------------------------------------------

func (s *Store) CreateQuestion(_ context.Context, q event.Question) (event.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.questions {
		if existing.EventID == q.EventID && existing.Key == q.Key {
			return event.Question{}, fmt.Errorf("question with key %s already exists for event %s", q.Key, q.EventID)
		}
	}
	if q.ID == "" {
		q.ID = s.nextIDLocked()
	}

	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now
	q.Options = cloneStrings(q.Options)

	s.questions[q.ID] = q
	return cloneQuestion(q), nil
}

func (s *Store) UpdateQuestion(_ context.Context, q event.Question) (event.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.questions[q.ID]
	if !ok {
		return event.Question{}, fmt.Errorf("question %s not found: %w", q.ID, sql.ErrNoRows)
	}

	q.EventID = original.EventID
	q.Key = original.Key
	q.CreatedAt = original.CreatedAt
	q.UpdatedAt = time.Now().UTC()
	q.Options = cloneStrings(q.Options)

	s.questions[q.ID] = q
	return cloneQuestion(q), nil
}

func (s *Store) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return fmt.Errorf("question %s not found: %w", id, sql.ErrNoRows)
	}
	delete(s.questions, id)
	return nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (event.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.questions[id]
	if !ok {
		return event.Question{}, fmt.Errorf("question %s not found: %w", id, sql.ErrNoRows)
	}
	return cloneQuestion(q), nil
}

func (s *Store) ListQuestions(_ context.Context, eventID string) ([]event.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []event.Question
	for _, q := range s.questions {
		if q.EventID == eventID {
			result = append(result, cloneQuestion(q))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Key < result[j].Key
	})
	return result, nil
}

// ApplicationStore implementation -----------------------------------------

func (s *Store) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.applications {
		if existing.UserID == app.UserID && existing.EventID == app.EventID {
			return application.Application{}, fmt.Errorf("application for user %s and event %s already exists", app.UserID, app.EventID)
		}
	}
	if app.ID == "" {
		app.ID = s.nextIDLocked()
	}

	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	s.applications[app.ID] = app
	return app, nil
}

func (s *Store) UpdateApplication(_ context.Context, app application.Application) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.applications[app.ID]
	if !ok {
		return application.Application{}, fmt.Errorf("application %s not found: %w", app.ID, sql.ErrNoRows)
	}

	app.UserID = original.UserID
	app.EventID = original.EventID
	app.CreatedAt = original.CreatedAt
	app.UpdatedAt = time.Now().UTC()
	s.applications[app.ID] = app
	return app, nil
}

func (s *Store) GetApplication(_ context.Context, id string) (application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return application.Application{}, fmt.Errorf("application %s not found: %w", id, sql.ErrNoRows)
	}
	return app, nil
}

func (s *Store) GetApplicationByUserEvent(_ context.Context, userID, eventID string) (application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, app := range s.applications {
		if app.UserID == userID && app.EventID == eventID {
			return app, nil
		}
	}
	return application.Application{}, fmt.Errorf("application for user %s and event %s not found: %w", userID, eventID, sql.ErrNoRows)
}

func (s *Store) ListApplicationsByEvent(_ context.Context, eventID string, status application.Status) ([]application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []application.Application
	for _, app := range s.applications {
		if app.EventID != eventID {
			continue
		}
		if status != "" && app.Status != status {
			continue
		}
		result = append(result, app)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) ListApplicationsByUser(_ context.Context, userID string) ([]application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []application.Application
	for _, app := range s.applications {
		if app.UserID == userID {
			result = append(result, app)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) UpsertResponse(_ context.Context, resp application.Response) (application.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[resp.ApplicationID]; !ok {
		return application.Response{}, fmt.Errorf("application %s not found: %w", resp.ApplicationID, sql.ErrNoRows)
	}

	byKey, ok := s.responses[resp.ApplicationID]
	if !ok {
		byKey = make(map[string]application.Response)
		s.responses[resp.ApplicationID] = byKey
	}

	now := time.Now().UTC()
	if existing, ok := byKey[resp.QuestionKey]; ok {
		resp.ID = existing.ID
		resp.CreatedAt = existing.CreatedAt
	} else {
		if resp.ID == "" {
			resp.ID = s.nextIDLocked()
		}
		resp.CreatedAt = now
	}
	resp.UpdatedAt = now

	byKey[resp.QuestionKey] = resp
	return resp, nil
}

func (s *Store) GetResponse(_ context.Context, applicationID, questionKey string) (application.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if byKey, ok := s.responses[applicationID]; ok {
		if resp, ok := byKey[questionKey]; ok {
			return resp, nil
		}
	}
	return application.Response{}, fmt.Errorf("response for application %s key %s not found: %w", applicationID, questionKey, sql.ErrNoRows)
}

func (s *Store) ListResponses(_ context.Context, applicationID string) ([]application.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byKey, ok := s.responses[applicationID]
	if !ok {
		return nil, nil
	}
	result := make([]application.Response, 0, len(byKey))
	for _, resp := range byKey {
		result = append(result, resp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].QuestionKey < result[j].QuestionKey })
	return result, nil
}

// PraiseStore implementation ----------------------------------------------

func (s *Store) CreatePraise(_ context.Context, p praise.Praise) (praise.Praise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	p.CreatedAt = time.Now().UTC()
	s.praises[p.EventID] = append(s.praises[p.EventID], p)
	return p, nil
}

func (s *Store) ListPraise(_ context.Context, eventID, recipientID string) ([]praise.Praise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []praise.Praise
	for evID, list := range s.praises {
		if eventID != "" && evID != eventID {
			continue
		}
		for _, p := range list {
			if recipientID != "" && p.RecipientID != recipientID {
				continue
			}
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) Leaderboard(_ context.Context, eventID string, limit int) ([]praise.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for evID, list := range s.praises {
		if eventID != "" && evID != eventID {
			continue
		}
		for _, p := range list {
			counts[p.RecipientID]++
		}
	}

	result := make([]praise.LeaderboardEntry, 0, len(counts))
	for userID, count := range counts {
		result = append(result, praise.LeaderboardEntry{UserID: userID, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].UserID < result[j].UserID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ScheduleStore implementation --------------------------------------------

func (s *Store) CreateSession(_ context.Context, sess schedule.Session) (schedule.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) UpdateSession(_ context.Context, sess schedule.Session) (schedule.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.sessions[sess.ID]
	if !ok {
		return schedule.Session{}, fmt.Errorf("session %s not found: %w", sess.ID, sql.ErrNoRows)
	}
	sess.EventID = original.EventID
	sess.CreatedAt = original.CreatedAt
	sess.UpdatedAt = time.Now().UTC()
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) GetSession(_ context.Context, id string) (schedule.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return schedule.Session{}, fmt.Errorf("session %s not found: %w", id, sql.ErrNoRows)
	}
	return sess, nil
}

func (s *Store) ListSessions(_ context.Context, eventID string) ([]schedule.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []schedule.Session
	for _, sess := range s.sessions {
		if sess.EventID == eventID {
			result = append(result, sess)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result, nil
}

// ProjectStore implementation ---------------------------------------------

func (s *Store) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.projects[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProject(_ context.Context, p project.Project) (project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.projects[p.ID]
	if !ok {
		return project.Project{}, fmt.Errorf("project %s not found: %w", p.ID, sql.ErrNoRows)
	}
	p.EventID = original.EventID
	p.OwnerID = original.OwnerID
	p.CreatedAt = original.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.projects[p.ID] = p
	return p, nil
}

func (s *Store) GetProject(_ context.Context, id string) (project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return project.Project{}, fmt.Errorf("project %s not found: %w", id, sql.ErrNoRows)
	}
	return p, nil
}

func (s *Store) ListProjects(_ context.Context, eventID string) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []project.Project
	for _, p := range s.projects {
		if eventID == "" || p.EventID == eventID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) CreateImpactMetric(_ context.Context, m project.ImpactMetric) (project.ImpactMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[m.ProjectID]; !ok {
		return project.ImpactMetric{}, fmt.Errorf("project %s not found: %w", m.ProjectID, sql.ErrNoRows)
	}
	if m.ID == "" {
		m.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	if m.RecordedAt.IsZero() {
		m.RecordedAt = now
	}
	s.impactMetrics[m.ProjectID] = append(s.impactMetrics[m.ProjectID], m)
	return m, nil
}

func (s *Store) ListImpactMetrics(_ context.Context, projectID string) ([]project.ImpactMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.impactMetrics[projectID]
	result := make([]project.ImpactMetric, len(list))
	copy(result, list)
	sort.Slice(result, func(i, j int) bool { return result[i].RecordedAt.Before(result[j].RecordedAt) })
	return result, nil
}

// NotificationStore implementation ----------------------------------------

func (s *Store) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = s.nextIDLocked()
	}
	n.CreatedAt = time.Now().UTC()
	s.notifications[n.ID] = n
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context, userID string) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []notification.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s not found: %w", id, sql.ErrNoRows)
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

// UploadStore implementation ----------------------------------------------

func (s *Store) CreateUpload(_ context.Context, u upload.Upload) (upload.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = s.nextIDLocked()
	}
	u.CreatedAt = time.Now().UTC()
	s.uploads[u.ID] = u
	return u, nil
}

func (s *Store) GetUpload(_ context.Context, id string) (upload.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.uploads[id]
	if !ok {
		return upload.Upload{}, fmt.Errorf("upload %s not found: %w", id, sql.ErrNoRows)
	}
	return u, nil
}

func (s *Store) ListUploads(_ context.Context, ownerID string) ([]upload.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []upload.Upload
	for _, u := range s.uploads {
		if ownerID == "" || u.OwnerID == ownerID {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneQuestion(q event.Question) event.Question {
	q.Options = cloneStrings(q.Options)
	return q
}
