// Package app assembles the stores, services, background runners and HTTP
// handler into one runnable application.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"github.com/Gather-Network/conference_layer/internal/app/httpapi"
	"github.com/Gather-Network/conference_layer/internal/app/metrics"
	"github.com/Gather-Network/conference_layer/internal/app/services/applications"
	"github.com/Gather-Network/conference_layer/internal/app/services/events"
	"github.com/Gather-Network/conference_layer/internal/app/services/formsync"
	"github.com/Gather-Network/conference_layer/internal/app/services/notifications"
	praisesvc "github.com/Gather-Network/conference_layer/internal/app/services/praise"
	"github.com/Gather-Network/conference_layer/internal/app/services/profiles"
	projectsvc "github.com/Gather-Network/conference_layer/internal/app/services/projects"
	"github.com/Gather-Network/conference_layer/internal/app/services/reports"
	schedulesvc "github.com/Gather-Network/conference_layer/internal/app/services/schedule"
	"github.com/Gather-Network/conference_layer/internal/app/services/uploads"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/internal/app/storage/memory"
	"github.com/Gather-Network/conference_layer/internal/app/system"
	"github.com/Gather-Network/conference_layer/internal/config"
	"github.com/Gather-Network/conference_layer/internal/logging"
	"github.com/Gather-Network/conference_layer/internal/middleware"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// Stores groups the persistence interfaces the application needs. Any nil
// field falls back to a shared in-memory store.
type Stores struct {
	Users         storage.UserStore
	Events        storage.EventStore
	Questions     storage.QuestionStore
	Applications  storage.ApplicationStore
	Praise        storage.PraiseStore
	Schedule      storage.ScheduleStore
	Projects      storage.ProjectStore
	Notifications storage.NotificationStore
	Uploads       storage.UploadStore
}

func (s *Stores) fillDefaults() {
	mem := memory.New()
	if s.Users == nil {
		s.Users = mem
	}
	if s.Events == nil {
		s.Events = mem
	}
	if s.Questions == nil {
		s.Questions = mem
	}
	if s.Applications == nil {
		s.Applications = mem
	}
	if s.Praise == nil {
		s.Praise = mem
	}
	if s.Schedule == nil {
		s.Schedule = mem
	}
	if s.Projects == nil {
		s.Projects = mem
	}
	if s.Notifications == nil {
		s.Notifications = mem
	}
	if s.Uploads == nil {
		s.Uploads = mem
	}
}

// Application owns the wired services and runners.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	manager *system.Manager
	router  *mux.Router
	audit   *httpapi.Auditor
}

// New wires the application. redisClient may be nil to run without the
// report cache.
func New(cfg *config.Config, stores Stores, redisClient *redis.Client, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	stores.fillDefaults()

	met := metrics.New()

	profileSvc := profiles.New(stores.Users, cfg.Auth.JWTSecret, cfg.TokenTTL(), logger.NewDefault("profiles"))
	eventSvc := events.New(stores.Events, stores.Questions, logger.NewDefault("events"))
	appSvc := applications.New(stores.Applications, stores.Events, stores.Questions,
		stores.Notifications, met, logger.NewDefault("applications"))
	syncMgr := formsync.NewManager(appSvc, stores.Notifications, met, logger.NewDefault("formsync"))
	hub := praisesvc.NewHub(logger.NewDefault("praise-hub"))
	praiseSvc := praisesvc.New(stores.Praise, stores.Users, stores.Notifications, hub, met, logger.NewDefault("praise"))
	scheduleSvc := schedulesvc.New(stores.Schedule, stores.Events, logger.NewDefault("schedule"))
	projectSvc := projectsvc.New(stores.Projects, stores.Events, logger.NewDefault("projects"))
	reportSvc := reports.New(stores.Events, stores.Applications, stores.Praise,
		stores.Schedule, stores.Projects, redisClient, logger.NewDefault("reports"))
	notifySvc := notifications.New(stores.Notifications, logger.NewDefault("notifications"))
	uploadSvc := uploads.New(stores.Uploads, cfg.Uploads.Dir, logger.NewDefault("uploads"))

	var audit *httpapi.Auditor
	if cfg.AuditLogPath != "" {
		var err error
		audit, err = httpapi.NewAuditor(cfg.AuditLogPath, logger.NewDefault("audit"))
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
	}

	auth := middleware.NewAuth(cfg.Auth.JWTSecret, logging.NewLogger(logger.NewDefault("auth")))
	handler := httpapi.NewHandler(httpapi.Services{
		Profiles:      profileSvc,
		Events:        eventSvc,
		Applications:  appSvc,
		Formsync:      syncMgr,
		Praise:        praiseSvc,
		PraiseHub:     hub,
		Schedule:      scheduleSvc,
		Projects:      projectSvc,
		Reports:       reportSvc,
		Notifications: notifySvc,
		Uploads:       uploadSvc,
	}, auth, audit, logger.NewDefault("httpapi"))

	router := mux.NewRouter()
	router.Use(
		middleware.Tracing(logging.NewLogger(logger.NewDefault("http")), met),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.NewRateLimiter(float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst).Middleware,
	)
	router.Handle("/metrics", met.Handler()).Methods(http.MethodGet)
	handler.Register(router)

	manager := system.NewManager(logger.NewDefault("system"))
	manager.Register(syncMgr)
	manager.Register(reports.NewRefresher(reportSvc, cfg.Reports.RefreshSchedule, logger.NewDefault("reports-refresher")))

	return &Application{
		cfg:     cfg,
		log:     log,
		metrics: met,
		manager: manager,
		router:  router,
		audit:   audit,
	}, nil
}

// Router returns the fully assembled HTTP handler.
func (a *Application) Router() http.Handler { return a.router }

// Start launches the background runners.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop halts the background runners and closes the audit sink.
func (a *Application) Stop(ctx context.Context) error {
	err := a.manager.Stop(ctx)
	if a.audit != nil {
		if cerr := a.audit.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
