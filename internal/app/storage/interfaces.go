package storage

import (
	"context"

	"github.com/Gather-Network/conference_layer/internal/app/domain/application"
	"github.com/Gather-Network/conference_layer/internal/app/domain/event"
	"github.com/Gather-Network/conference_layer/internal/app/domain/notification"
	"github.com/Gather-Network/conference_layer/internal/app/domain/praise"
	"github.com/Gather-Network/conference_layer/internal/app/domain/project"
	"github.com/Gather-Network/conference_layer/internal/app/domain/schedule"
	"github.com/Gather-Network/conference_layer/internal/app/domain/upload"
	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
)

// UserStore persists user profiles.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// EventStore persists events.
type EventStore interface {
	CreateEvent(ctx context.Context, ev event.Event) (event.Event, error)
	UpdateEvent(ctx context.Context, ev event.Event) (event.Event, error)
	GetEvent(ctx context.Context, id string) (event.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (event.Event, error)
	ListEvents(ctx context.Context) ([]event.Event, error)
}

// QuestionStore persists an event's form questions.
type QuestionStore interface {
	CreateQuestion(ctx context.Context, q event.Question) (event.Question, error)
	UpdateQuestion(ctx context.Context, q event.Question) (event.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	GetQuestion(ctx context.Context, id string) (event.Question, error)
	// ListQuestions returns the event's questions in display order.
	ListQuestions(ctx context.Context, eventID string) ([]event.Question, error)
}

// ApplicationStore persists applications and their responses.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app application.Application) (application.Application, error)
	UpdateApplication(ctx context.Context, app application.Application) (application.Application, error)
	GetApplication(ctx context.Context, id string) (application.Application, error)
	GetApplicationByUserEvent(ctx context.Context, userID, eventID string) (application.Application, error)
	ListApplicationsByEvent(ctx context.Context, eventID string, status application.Status) ([]application.Application, error)
	ListApplicationsByUser(ctx context.Context, userID string) ([]application.Application, error)

	// UpsertResponse stores the latest value for one (application,
	// question) pair; last write wins per field.
	UpsertResponse(ctx context.Context, resp application.Response) (application.Response, error)
	GetResponse(ctx context.Context, applicationID, questionKey string) (application.Response, error)
	ListResponses(ctx context.Context, applicationID string) ([]application.Response, error)
}

// PraiseStore persists praise records.
type PraiseStore interface {
	CreatePraise(ctx context.Context, p praise.Praise) (praise.Praise, error)
	ListPraise(ctx context.Context, eventID, recipientID string) ([]praise.Praise, error)
	Leaderboard(ctx context.Context, eventID string, limit int) ([]praise.LeaderboardEntry, error)
}

// ScheduleStore persists event sessions.
type ScheduleStore interface {
	CreateSession(ctx context.Context, s schedule.Session) (schedule.Session, error)
	UpdateSession(ctx context.Context, s schedule.Session) (schedule.Session, error)
	GetSession(ctx context.Context, id string) (schedule.Session, error)
	// ListSessions returns an event's sessions ordered by start time.
	ListSessions(ctx context.Context, eventID string) ([]schedule.Session, error)
}

// ProjectStore persists projects and their impact metrics.
type ProjectStore interface {
	CreateProject(ctx context.Context, p project.Project) (project.Project, error)
	UpdateProject(ctx context.Context, p project.Project) (project.Project, error)
	GetProject(ctx context.Context, id string) (project.Project, error)
	ListProjects(ctx context.Context, eventID string) ([]project.Project, error)

	CreateImpactMetric(ctx context.Context, m project.ImpactMetric) (project.ImpactMetric, error)
	ListImpactMetrics(ctx context.Context, projectID string) ([]project.ImpactMetric, error)
}

// NotificationStore persists per-user notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]notification.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// UploadStore persists upload metadata.
type UploadStore interface {
	CreateUpload(ctx context.Context, u upload.Upload) (upload.Upload, error)
	GetUpload(ctx context.Context, id string) (upload.Upload, error)
	ListUploads(ctx context.Context, ownerID string) ([]upload.Upload, error)
}
