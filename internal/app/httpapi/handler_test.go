package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

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
	"github.com/Gather-Network/conference_layer/internal/app/storage/memory"
	"github.com/Gather-Network/conference_layer/internal/middleware"
)

const testSecret = "handler-test-secret"

type testAPI struct {
	store  *memory.Store
	server *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.New()

	profileSvc := profiles.New(store, testSecret, time.Hour, nil)
	eventSvc := events.New(store, store, nil)
	appSvc := applications.New(store, store, store, store, nil, nil)
	syncMgr := formsync.NewManager(appSvc, store, nil, nil, formsync.WithDebounce(10*time.Millisecond))
	hub := praisesvc.NewHub(nil)
	praiseSvc := praisesvc.New(store, store, store, hub, nil, nil)
	scheduleSvc := schedulesvc.New(store, store, nil)
	projectSvc := projectsvc.New(store, store, nil)
	reportSvc := reports.New(store, store, store, store, store, nil, nil)
	notifySvc := notifications.New(store, nil)
	uploadSvc := uploads.New(store, t.TempDir(), nil)

	handler := NewHandler(Services{
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
	}, middleware.NewAuth(testSecret, nil), nil, nil)

	router := mux.NewRouter()
	handler.Register(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testAPI{store: store, server: server}
}

func (a *testAPI) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

// signup registers a user and returns its id and token.
func (a *testAPI) signup(t *testing.T, email, name string, admin bool) (string, string) {
	t.Helper()
	resp, body := a.request(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": email, "name": name, "password": "correct horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: %d %s", resp.StatusCode, body)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode signup: %v", err)
	}

	if admin {
		u, err := a.store.GetUser(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		u.Role = user.RoleAdmin
		if _, err := a.store.UpdateUser(context.Background(), u); err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}
	}

	resp, body = a.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "correct horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %s", resp.StatusCode, body)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return created.ID, login.Token
}

func TestApplicationLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.signup(t, "admin@example.com", "Admin", true)
	_, userToken := api.signup(t, "dana@example.com", "Dana", false)

	// Admin builds the event and its form.
	resp, body := api.request(t, http.MethodPost, "/events", adminToken, map[string]interface{}{
		"slug": "conf-2025", "name": "Conf 2025", "kind": "CONFERENCE", "audience": "ATTENDEE", "active": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event: %d %s", resp.StatusCode, body)
	}
	var ev struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}

	resp, body = api.request(t, http.MethodPost, "/events/"+ev.ID+"/questions", adminToken, map[string]interface{}{
		"key": "motivation", "prompt_en": "Why do you want to attend?", "type": "TEXTAREA", "required": true, "order": 1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add question: %d %s", resp.StatusCode, body)
	}

	// A regular user may not create events.
	resp, _ = api.request(t, http.MethodPost, "/events", userToken, map[string]interface{}{
		"slug": "rogue", "name": "Rogue", "kind": "MEETUP", "audience": "ATTENDEE",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin create event: %d", resp.StatusCode)
	}

	// Applicant opens a draft.
	resp, body = api.request(t, http.MethodPost, "/events/"+ev.ID+"/applications", userToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create application: %d %s", resp.StatusCode, body)
	}
	var app struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &app); err != nil {
		t.Fatalf("decode application: %v", err)
	}

	// Submitting with the required question unanswered fails and names it.
	resp, body = api.request(t, http.MethodPost, "/applications/"+app.ID+"/submit", userToken, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("premature submit: %d %s", resp.StatusCode, body)
	}
	var failure struct {
		Details struct {
			Missing  []string `json:"missing"`
			ScrollTo string   `json:"scroll_to"`
		} `json:"details"`
	}
	if err := json.Unmarshal(body, &failure); err != nil {
		t.Fatalf("decode failure: %v", err)
	}
	if len(failure.Details.Missing) != 1 || failure.Details.Missing[0] != "motivation" {
		t.Fatalf("missing = %v", failure.Details.Missing)
	}
	if failure.Details.ScrollTo != "motivation" {
		t.Fatalf("scroll_to = %q", failure.Details.ScrollTo)
	}

	// Answer and submit.
	resp, body = api.request(t, http.MethodPut, "/applications/"+app.ID+"/responses/motivation", userToken,
		map[string]string{"value": "I love conferences"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save response: %d %s", resp.StatusCode, body)
	}

	resp, body = api.request(t, http.MethodGet, "/applications/"+app.ID+"/completion", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("completion: %d %s", resp.StatusCode, body)
	}
	var completion struct {
		Percent int `json:"percent"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		t.Fatalf("decode completion: %v", err)
	}
	if completion.Percent != 100 {
		t.Fatalf("percent = %d", completion.Percent)
	}

	resp, body = api.request(t, http.MethodPost, "/applications/"+app.ID+"/submit", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: %d %s", resp.StatusCode, body)
	}

	// Admin review: start, revert, re-submit, accept.
	resp, body = api.request(t, http.MethodPost, "/applications/"+app.ID+"/revert", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("revert: %d %s", resp.StatusCode, body)
	}
	resp, body = api.request(t, http.MethodPost, "/applications/"+app.ID+"/submit", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resubmit: %d %s", resp.StatusCode, body)
	}
	resp, body = api.request(t, http.MethodPost, "/applications/"+app.ID+"/review", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("review: %d %s", resp.StatusCode, body)
	}
	resp, body = api.request(t, http.MethodPost, "/applications/"+app.ID+"/decision", adminToken,
		map[string]string{"outcome": "ACCEPTED"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("decision: %d %s", resp.StatusCode, body)
	}
	var decided struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &decided); err != nil {
		t.Fatalf("decode decision: %v", err)
	}
	if decided.Status != "ACCEPTED" {
		t.Fatalf("status = %s", decided.Status)
	}

	// The applicant saw a reversion and a status notification.
	resp, body = api.request(t, http.MethodGet, "/notifications", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications: %d %s", resp.StatusCode, body)
	}
	var notes []struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(body, &notes); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	kinds := make(map[string]bool)
	for _, n := range notes {
		kinds[n.Kind] = true
	}
	if !kinds["STATUS"] {
		t.Fatalf("expected a STATUS notification, got %v", kinds)
	}
}

func TestApplicationOwnershipEnforced(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.signup(t, "admin@example.com", "Admin", true)
	_, aliceToken := api.signup(t, "alice@example.com", "Alice", false)
	_, eveToken := api.signup(t, "eve@example.com", "Eve", false)

	resp, body := api.request(t, http.MethodPost, "/events", adminToken, map[string]interface{}{
		"slug": "conf-2025", "name": "Conf 2025", "kind": "CONFERENCE", "audience": "ATTENDEE", "active": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event: %d %s", resp.StatusCode, body)
	}
	var ev struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &ev)

	resp, body = api.request(t, http.MethodPost, "/events/"+ev.ID+"/applications", aliceToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create application: %d %s", resp.StatusCode, body)
	}
	var app struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &app)

	resp, _ = api.request(t, http.MethodGet, "/applications/"+app.ID, eveToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign read: %d", resp.StatusCode)
	}
	resp, _ = api.request(t, http.MethodGet, "/applications/"+app.ID, aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner read: %d", resp.StatusCode)
	}
	resp, _ = api.request(t, http.MethodGet, "/applications/"+app.ID, adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin read: %d", resp.StatusCode)
	}
}

func TestEditingSessionOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.signup(t, "admin@example.com", "Admin", true)
	_, userToken := api.signup(t, "dana@example.com", "Dana", false)

	resp, body := api.request(t, http.MethodPost, "/events", adminToken, map[string]interface{}{
		"slug": "conf-2025", "name": "Conf 2025", "kind": "CONFERENCE", "audience": "ATTENDEE", "active": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event: %d %s", resp.StatusCode, body)
	}
	var ev struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &ev)

	resp, body = api.request(t, http.MethodPost, "/events/"+ev.ID+"/questions", adminToken, map[string]interface{}{
		"key": "name", "prompt_en": "Full name", "type": "TEXT", "order": 1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add question: %d %s", resp.StatusCode, body)
	}

	resp, body = api.request(t, http.MethodPost, "/events/"+ev.ID+"/applications", userToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create application: %d %s", resp.StatusCode, body)
	}
	var app struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &app)

	resp, _ = api.request(t, http.MethodPost, "/applications/"+app.ID+"/session", userToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open session: %d", resp.StatusCode)
	}

	resp, _ = api.request(t, http.MethodPut, "/applications/"+app.ID+"/session/name", userToken,
		map[string]string{"value": "Dana"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("session edit: %d", resp.StatusCode)
	}

	resp, body = api.request(t, http.MethodPost, "/applications/"+app.ID+"/session/name/flush", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session flush: %d %s", resp.StatusCode, body)
	}
	var flushed struct {
		Dirty bool `json:"dirty"`
	}
	if err := json.Unmarshal(body, &flushed); err != nil {
		t.Fatalf("decode flush: %v", err)
	}
	if flushed.Dirty {
		t.Fatal("field must be clean after flush")
	}

	// The saved value is visible through the responses listing.
	resp, body = api.request(t, http.MethodGet, "/applications/"+app.ID+"/responses", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list responses: %d %s", resp.StatusCode, body)
	}
	var responses []struct {
		QuestionKey string `json:"question_key"`
		Value       string `json:"value"`
	}
	if err := json.Unmarshal(body, &responses); err != nil {
		t.Fatalf("decode responses: %v", err)
	}
	if len(responses) != 1 || responses[0].Value != "Dana" {
		t.Fatalf("responses = %+v", responses)
	}

	resp, _ = api.request(t, http.MethodDelete, "/applications/"+app.ID+"/session", userToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("close session: %d", resp.StatusCode)
	}
}
