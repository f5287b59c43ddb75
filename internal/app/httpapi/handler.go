// Package httpapi exposes the JSON API: auth, events and forms, application
// editing and review, praise, schedule, projects, reports, notifications and
// uploads.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/application"
	"github.com/Gather-Network/conference_layer/internal/app/domain/event"
	"github.com/Gather-Network/conference_layer/internal/app/domain/praise"
	"github.com/Gather-Network/conference_layer/internal/app/domain/project"
	"github.com/Gather-Network/conference_layer/internal/app/domain/schedule"
	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
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
	"github.com/Gather-Network/conference_layer/internal/httputil"
	"github.com/Gather-Network/conference_layer/internal/logging"
	"github.com/Gather-Network/conference_layer/internal/middleware"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Handler routes API requests to the services.
type Handler struct {
	profiles      *profiles.Service
	events        *events.Service
	applications  *applications.Service
	formsync      *formsync.Manager
	praise        *praisesvc.Service
	hub           *praisesvc.Hub
	schedule      *schedulesvc.Service
	projects      *projectsvc.Service
	reports       *reports.Service
	notifications *notifications.Service
	uploads       *uploads.Service
	auth          *middleware.Auth
	audit         *Auditor
	log           *logger.Logger
}

// Services bundles the handler's dependencies.
type Services struct {
	Profiles      *profiles.Service
	Events        *events.Service
	Applications  *applications.Service
	Formsync      *formsync.Manager
	Praise        *praisesvc.Service
	PraiseHub     *praisesvc.Hub
	Schedule      *schedulesvc.Service
	Projects      *projectsvc.Service
	Reports       *reports.Service
	Notifications *notifications.Service
	Uploads       *uploads.Service
}

// NewHandler creates the API handler. audit may be nil.
func NewHandler(svcs Services, auth *middleware.Auth, audit *Auditor, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	return &Handler{
		profiles:      svcs.Profiles,
		events:        svcs.Events,
		applications:  svcs.Applications,
		formsync:      svcs.Formsync,
		praise:        svcs.Praise,
		hub:           svcs.PraiseHub,
		schedule:      svcs.Schedule,
		projects:      svcs.Projects,
		reports:       svcs.Reports,
		notifications: svcs.Notifications,
		uploads:       svcs.Uploads,
		auth:          auth,
		audit:         audit,
		log:           log,
	}
}

// Register mounts every route on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/auth/signup", h.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodPost)

	r.HandleFunc("/events", h.handleListEvents).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}", h.handleGetEvent).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}/questions", h.handleListQuestions).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}/schedule", h.handleListSessions).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}/leaderboard", h.handleLeaderboard).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(h.auth.Middleware)

	authed.HandleFunc("/me", h.handleGetMe).Methods(http.MethodGet)
	authed.HandleFunc("/me", h.handleUpdateMe).Methods(http.MethodPut)

	authed.HandleFunc("/events/{id}/applications", h.handleCreateApplication).Methods(http.MethodPost)
	authed.HandleFunc("/applications", h.handleListMyApplications).Methods(http.MethodGet)
	authed.HandleFunc("/applications/{id}", h.handleGetApplication).Methods(http.MethodGet)
	authed.HandleFunc("/applications/{id}/responses", h.handleListResponses).Methods(http.MethodGet)
	authed.HandleFunc("/applications/{id}/responses/{key}", h.handleSaveResponse).Methods(http.MethodPut)
	authed.HandleFunc("/applications/{id}/completion", h.handleCompletion).Methods(http.MethodGet)
	authed.HandleFunc("/applications/{id}/submit", h.handleSubmit).Methods(http.MethodPost)
	authed.HandleFunc("/applications/{id}/cancel", h.handleCancel).Methods(http.MethodPost)

	authed.HandleFunc("/applications/{id}/session", h.handleOpenSession).Methods(http.MethodPost)
	authed.HandleFunc("/applications/{id}/session", h.handleCloseSession).Methods(http.MethodDelete)
	authed.HandleFunc("/applications/{id}/session/banner", h.handleSessionBanner).Methods(http.MethodGet)
	authed.HandleFunc("/applications/{id}/session/{key}", h.handleSessionEdit).Methods(http.MethodPut)
	authed.HandleFunc("/applications/{id}/session/{key}/flush", h.handleSessionFlush).Methods(http.MethodPost)

	authed.HandleFunc("/praise", h.handleGivePraise).Methods(http.MethodPost)
	authed.HandleFunc("/praise", h.handlePraiseFeed).Methods(http.MethodGet)
	authed.HandleFunc("/ws/praise", h.handlePraiseSocket).Methods(http.MethodGet)

	authed.HandleFunc("/projects", h.handleCreateProject).Methods(http.MethodPost)
	authed.HandleFunc("/projects", h.handleListProjects).Methods(http.MethodGet)
	authed.HandleFunc("/projects/{id}", h.handleGetProject).Methods(http.MethodGet)
	authed.HandleFunc("/projects/{id}", h.handleUpdateProject).Methods(http.MethodPut)
	authed.HandleFunc("/projects/{id}/metrics", h.handleRecordMetric).Methods(http.MethodPost)
	authed.HandleFunc("/projects/{id}/metrics", h.handleListMetrics).Methods(http.MethodGet)

	authed.HandleFunc("/notifications", h.handleListNotifications).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/{id}/read", h.handleMarkNotificationRead).Methods(http.MethodPost)

	authed.HandleFunc("/uploads", h.handleUpload).Methods(http.MethodPost)
	authed.HandleFunc("/uploads/{id}", h.handleGetUpload).Methods(http.MethodGet)

	admin := r.NewRoute().Subrouter()
	admin.Use(h.auth.Middleware, h.auth.RequireAdmin)

	admin.HandleFunc("/events", h.handleCreateEvent).Methods(http.MethodPost)
	admin.HandleFunc("/events/{id}", h.handleUpdateEvent).Methods(http.MethodPut)
	admin.HandleFunc("/events/{id}/questions", h.handleAddQuestion).Methods(http.MethodPost)
	admin.HandleFunc("/questions/{id}", h.handleUpdateQuestion).Methods(http.MethodPut)
	admin.HandleFunc("/questions/{id}", h.handleDeleteQuestion).Methods(http.MethodDelete)
	admin.HandleFunc("/events/{id}/applications", h.handleListEventApplications).Methods(http.MethodGet)
	admin.HandleFunc("/events/{id}/report", h.handleEventReport).Methods(http.MethodGet)
	admin.HandleFunc("/events/{id}/schedule", h.handleAddSession).Methods(http.MethodPost)
	admin.HandleFunc("/sessions/{id}", h.handleUpdateSession).Methods(http.MethodPut)
	admin.HandleFunc("/applications/{id}/review", h.handleStartReview).Methods(http.MethodPost)
	admin.HandleFunc("/applications/{id}/decision", h.handleDecide).Methods(http.MethodPost)
	admin.HandleFunc("/applications/{id}/revert", h.handleRevert).Methods(http.MethodPost)
}

// --- helpers ------------------------------------------------------------

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if se := apperr.GetServiceError(err); se != nil {
		httputil.WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
		return
	}
	h.log.WithError(err).Error("request failed")
	httputil.WriteErrorResponse(w, r, http.StatusInternalServerError, string(apperr.CodeInternal), "internal error", nil)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// ownedApplication loads an application and checks the caller owns it or is
// an admin.
func (h *Handler) ownedApplication(r *http.Request, id string) (application.Application, error) {
	app, err := h.applications.Get(r.Context(), id)
	if err != nil {
		return application.Application{}, err
	}
	callerID := logging.GetUserID(r.Context())
	if app.UserID != callerID && logging.GetRole(r.Context()) != string(user.RoleAdmin) {
		return application.Application{}, apperr.Forbidden("application belongs to another user")
	}
	return app, nil
}

func (h *Handler) auditAction(r *http.Request, action, resource string) {
	if h.audit != nil {
		h.audit.Record(r.Context(), action, resource)
	}
}

// --- health and auth ------------------------------------------------------

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.profiles.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, userView(created, h.profiles))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, u, err := h.profiles.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  userView(u, h.profiles),
	})
}

func userView(u user.User, p *profiles.Service) map[string]interface{} {
	return map[string]interface{}{
		"id":              u.ID,
		"email":           u.Email,
		"name":            u.Name,
		"role":            u.Role,
		"telegram_handle": u.TelegramHandle,
		"telegram_link":   p.TelegramLink(u),
	}
}

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.profiles.Get(r.Context(), logging.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userView(u, h.profiles))
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		TelegramHandle string `json:"telegram_handle"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.profiles.UpdateProfile(r.Context(), logging.GetUserID(r.Context()), req.Name, req.TelegramHandle)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userView(updated, h.profiles))
}

// --- events and questions ---------------------------------------------------

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.events.ListEvents(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ev, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		// A slug works as an alternate lookup key.
		if bySlug, slugErr := h.events.GetEventBySlug(r.Context(), id); slugErr == nil {
			httputil.WriteJSON(w, http.StatusOK, bySlug)
			return
		}
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req event.Event
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "event.create", created.ID)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req event.Event
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.ID = mux.Vars(r)["id"]
	updated, err := h.events.UpdateEvent(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "event.update", updated.ID)
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	list, err := h.events.ListQuestions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req event.Question
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.EventID = mux.Vars(r)["id"]
	created, err := h.events.AddQuestion(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "question.create", created.ID)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req event.Question
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.ID = mux.Vars(r)["id"]
	updated, err := h.events.UpdateQuestion(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "question.update", updated.ID)
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.events.RemoveQuestion(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "question.delete", id)
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// --- applications -----------------------------------------------------------

func (h *Handler) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	created, err := h.applications.Create(r.Context(), logging.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListMyApplications(w http.ResponseWriter, r *http.Request) {
	list, err := h.applications.ListByUser(r.Context(), logging.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.ownedApplication(r, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleListEventApplications(w http.ResponseWriter, r *http.Request) {
	status := application.Status(r.URL.Query().Get("status"))
	list, err := h.applications.ListByEvent(r.Context(), mux.Vars(r)["id"], status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleListResponses(w http.ResponseWriter, r *http.Request) {
	app, err := h.ownedApplication(r, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.applications.ListResponses(r.Context(), app.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleSaveResponse(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	app, err := h.ownedApplication(r, vars["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req applications.AnswerInput
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.applications.SaveResponse(r.Context(), app.ID, vars["key"], req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCompletion(w http.ResponseWriter, r *http.Request) {
	app, err := h.ownedApplication(r, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.applications.Completion(r.Context(), app.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	app, err := h.ownedApplication(r, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.formsync != nil {
		if s, ok := h.formsync.Session(app.ID); ok {
			s.FlushAll()
		}
	}
	submitted, err := h.applications.Submit(r.Context(), app.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, submitted)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	app, err := h.ownedApplication(r, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cancelled, err := h.applications.Cancel(r.Context(), app.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cancelled)
}

func (h *Handler) handleStartReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	app, err := h.applications.StartReview(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "application.review", id)
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Outcome application.Status `json:"outcome"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	app, err := h.applications.Decide(r.Context(), id, req.Outcome)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "application.decide:"+string(req.Outcome), id)
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) handleRevert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	app, err := h.applications.Revert(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "application.revert", id)
	httputil.WriteJSON(w, http.StatusOK, app)
}

// --- editing sessions ---------------------------------------------------------

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	app, err := h.ownedApplication(r, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.formsync.Open(r.Context(), app.ID, app.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"application_id": app.ID})
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	app, err := h.ownedApplication(r, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.formsync.CloseSession(app.ID)
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) sessionFor(r *http.Request) (*formsync.Syncer, error) {
	app, err := h.ownedApplication(r, mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	s, ok := h.formsync.Session(app.ID)
	if !ok {
		return nil, apperr.NotFound("no open editing session")
	}
	return s, nil
}

func (h *Handler) handleSessionEdit(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessionFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req applications.AnswerInput
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	key := mux.Vars(r)["key"]
	s.SetField(key, req)
	httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"question_key": key,
		"dirty":        true,
	})
}

func (h *Handler) handleSessionFlush(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessionFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	key := mux.Vars(r)["key"]
	s.FlushField(key)
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"question_key": key,
		"dirty":        s.Dirty(key),
	})
}

func (h *Handler) handleSessionBanner(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessionFor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{
		"revert_notice": s.RevertNoticeActive(time.Now()),
	})
}

// --- praise ---------------------------------------------------------------

func (h *Handler) handleGivePraise(w http.ResponseWriter, r *http.Request) {
	var req praise.Praise
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.GiverID = logging.GetUserID(r.Context())
	created, err := h.praise.Give(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handlePraiseFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.praise.Feed(r.Context(), q.Get("event_id"), q.Get("recipient_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	board, err := h.praise.Leaderboard(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, board)
}

// --- schedule ---------------------------------------------------------------

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.schedule.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleAddSession(w http.ResponseWriter, r *http.Request) {
	var req schedule.Session
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.EventID = mux.Vars(r)["id"]
	created, err := h.schedule.AddSession(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "session.create", created.ID)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var req schedule.Session
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.ID = mux.Vars(r)["id"]
	updated, err := h.schedule.UpdateSession(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.auditAction(r, "session.update", updated.ID)
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// --- projects ---------------------------------------------------------------

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req project.Project
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.OwnerID = logging.GetUserID(r.Context())
	created, err := h.projects.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.List(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ownedProject(r *http.Request, id string) (project.Project, error) {
	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		return project.Project{}, err
	}
	callerID := logging.GetUserID(r.Context())
	if p.OwnerID != callerID && logging.GetRole(r.Context()) != string(user.RoleAdmin) {
		return project.Project{}, apperr.Forbidden("project belongs to another user")
	}
	return p, nil
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	existing, err := h.ownedProject(r, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req project.Project
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.ID = existing.ID
	updated, err := h.projects.Update(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleRecordMetric(w http.ResponseWriter, r *http.Request) {
	existing, err := h.ownedProject(r, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req project.ImpactMetric
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.ProjectID = existing.ID
	created, err := h.projects.RecordMetric(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.Metrics(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// --- reports, notifications, uploads ----------------------------------------

func (h *Handler) handleEventReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.EventReport(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.List(r.Context(), logging.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploads.MaxSize); err != nil {
		h.writeError(w, r, apperr.BadRequest("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, apperr.BadRequest("missing file field"))
		return
	}
	defer file.Close()

	created, err := h.uploads.Store(r.Context(), logging.GetUserID(r.Context()),
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	meta, reader, err := h.uploads.Open(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer reader.Close()
	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", meta.Size))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}
