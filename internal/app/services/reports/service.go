// Package reports aggregates per-event statistics for the admin dashboards.
// Reports are cached in Redis when a client is configured and recomputed on
// a cron schedule by the refresher.
package reports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Gather-Network/conference_layer/internal/app/domain/application"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

const (
	cacheKeyPrefix = "conference_layer:report:"
	cacheTTL       = 5 * time.Minute
)

// EventReport is the aggregate view of one event.
type EventReport struct {
	EventID             string             `json:"event_id"`
	Applications        int                `json:"applications"`
	ApplicationsByState map[string]int     `json:"applications_by_state"`
	PraiseCount         int                `json:"praise_count"`
	SessionCount        int                `json:"session_count"`
	ProjectCount        int                `json:"project_count"`
	MetricTotals        map[string]float64 `json:"metric_totals,omitempty"`
	GeneratedAt         time.Time          `json:"generated_at"`
}

// Service computes event reports.
type Service struct {
	events   storage.EventStore
	apps     storage.ApplicationStore
	praises  storage.PraiseStore
	sessions storage.ScheduleStore
	projects storage.ProjectStore
	cache    *redis.Client
	log      *logger.Logger
	now      func() time.Time
}

// New creates the reports service. cache may be nil to disable caching.
func New(events storage.EventStore, apps storage.ApplicationStore, praises storage.PraiseStore,
	sessions storage.ScheduleStore, projects storage.ProjectStore, cache *redis.Client, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reports")
	}
	return &Service{
		events:   events,
		apps:     apps,
		praises:  praises,
		sessions: sessions,
		projects: projects,
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
}

// EventReport returns the aggregate report for one event, served from cache
// when fresh.
func (s *Service) EventReport(ctx context.Context, eventID string) (EventReport, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKeyPrefix+eventID).Bytes(); err == nil {
			var report EventReport
			if json.Unmarshal(cached, &report) == nil {
				return report, nil
			}
		}
	}
	return s.compute(ctx, eventID)
}

// compute builds a report from the stores and primes the cache.
func (s *Service) compute(ctx context.Context, eventID string) (EventReport, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return EventReport{}, err
	}

	apps, err := s.apps.ListApplicationsByEvent(ctx, eventID, "")
	if err != nil {
		return EventReport{}, err
	}
	praises, err := s.praises.ListPraise(ctx, eventID, "")
	if err != nil {
		return EventReport{}, err
	}
	sessions, err := s.sessions.ListSessions(ctx, eventID)
	if err != nil {
		return EventReport{}, err
	}
	projects, err := s.projects.ListProjects(ctx, eventID)
	if err != nil {
		return EventReport{}, err
	}

	report := EventReport{
		EventID:             eventID,
		Applications:        len(apps),
		ApplicationsByState: make(map[string]int),
		PraiseCount:         len(praises),
		SessionCount:        len(sessions),
		ProjectCount:        len(projects),
		GeneratedAt:         s.now().UTC(),
	}
	for _, app := range apps {
		report.ApplicationsByState[string(app.Status)]++
	}
	for _, p := range projects {
		metrics, err := s.projects.ListImpactMetrics(ctx, p.ID)
		if err != nil {
			return EventReport{}, err
		}
		for _, m := range metrics {
			if report.MetricTotals == nil {
				report.MetricTotals = make(map[string]float64)
			}
			report.MetricTotals[m.Name] += m.Value
		}
	}
	for _, status := range []application.Status{
		application.StatusDraft, application.StatusSubmitted, application.StatusUnderReview,
	} {
		if _, ok := report.ApplicationsByState[string(status)]; !ok {
			report.ApplicationsByState[string(status)] = 0
		}
	}

	if s.cache != nil {
		encoded, err := json.Marshal(report)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKeyPrefix+eventID, encoded, cacheTTL).Err(); err != nil {
				s.log.WithError(err).Warn("failed to cache report")
			}
		}
	}
	return report, nil
}

// RefreshAll recomputes the report for every event.
func (s *Service) RefreshAll(ctx context.Context) error {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if _, err := s.compute(ctx, ev.ID); err != nil {
			s.log.WithError(err).WithField("event_id", ev.ID).Warn("report refresh failed")
		}
	}
	return nil
}
