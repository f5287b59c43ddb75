package reports

import (
	"context"
	"testing"

	"github.com/Gather-Network/conference_layer/internal/app/domain/application"
	"github.com/Gather-Network/conference_layer/internal/app/domain/event"
	"github.com/Gather-Network/conference_layer/internal/app/domain/praise"
	"github.com/Gather-Network/conference_layer/internal/app/domain/project"
	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
	"github.com/Gather-Network/conference_layer/internal/app/storage/memory"
)

func TestEventReportAggregates(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	ev, err := store.CreateEvent(ctx, event.Event{
		Slug: "conf-2025", Name: "Conf 2025",
		Kind: event.KindConference, Audience: event.AudienceAttendee, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	alice, _ := store.CreateUser(ctx, user.User{Email: "alice@example.com", Name: "Alice", Role: user.RoleUser})
	bob, _ := store.CreateUser(ctx, user.User{Email: "bob@example.com", Name: "Bob", Role: user.RoleUser})

	if _, err := store.CreateApplication(ctx, application.Application{
		UserID: alice.ID, EventID: ev.ID, Status: application.StatusDraft,
	}); err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if _, err := store.CreateApplication(ctx, application.Application{
		UserID: bob.ID, EventID: ev.ID, Status: application.StatusSubmitted,
	}); err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if _, err := store.CreatePraise(ctx, praise.Praise{
		EventID: ev.ID, GiverID: alice.ID, RecipientID: bob.ID, Category: praise.CategoryTalk,
	}); err != nil {
		t.Fatalf("CreatePraise: %v", err)
	}
	proj, err := store.CreateProject(ctx, project.Project{
		EventID: ev.ID, OwnerID: alice.ID, Name: "Community Atlas",
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	for _, value := range []float64{3, 7} {
		if _, err := store.CreateImpactMetric(ctx, project.ImpactMetric{
			ProjectID: proj.ID, Name: "workshops", Value: value,
		}); err != nil {
			t.Fatalf("CreateImpactMetric: %v", err)
		}
	}

	service := New(store, store, store, store, store, nil, nil)
	report, err := service.EventReport(ctx, ev.ID)
	if err != nil {
		t.Fatalf("EventReport: %v", err)
	}

	if report.Applications != 2 {
		t.Fatalf("applications = %d", report.Applications)
	}
	if report.ApplicationsByState["DRAFT"] != 1 || report.ApplicationsByState["SUBMITTED"] != 1 {
		t.Fatalf("by state = %v", report.ApplicationsByState)
	}
	if report.PraiseCount != 1 {
		t.Fatalf("praise = %d", report.PraiseCount)
	}
	if report.ProjectCount != 1 {
		t.Fatalf("projects = %d", report.ProjectCount)
	}
	if got := report.MetricTotals["workshops"]; got != 10 {
		t.Fatalf("workshops total = %v", got)
	}
	if report.GeneratedAt.IsZero() {
		t.Fatal("expected a generation timestamp")
	}
}

func TestEventReportUnknownEvent(t *testing.T) {
	store := memory.New()
	service := New(store, store, store, store, store, nil, nil)

	if _, err := service.EventReport(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown event")
	}
}
