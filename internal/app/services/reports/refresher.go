package reports

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// defaultSchedule keeps dashboard reports at most five minutes stale.
const defaultSchedule = "@every 5m"

// Refresher recomputes every event report on a cron schedule.
type Refresher struct {
	service  *Service
	schedule string
	log      *logger.Logger
	cron     *cron.Cron
}

// NewRefresher creates a refresher; an empty schedule uses the default.
func NewRefresher(service *Service, schedule string, log *logger.Logger) *Refresher {
	if log == nil {
		log = logger.NewDefault("reports-refresher")
	}
	if schedule == "" {
		schedule = defaultSchedule
	}
	return &Refresher{service: service, schedule: schedule, log: log}
}

// Name implements system.Service.
func (r *Refresher) Name() string { return "reports-refresher" }

// Start schedules the periodic refresh and primes the cache once.
func (r *Refresher) Start(ctx context.Context) error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.schedule, r.refreshOnce); err != nil {
		return err
	}
	r.cron.Start()
	go r.refreshOnce()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	return nil
}

func (r *Refresher) refreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := r.service.RefreshAll(ctx); err != nil {
		r.log.WithError(err).Warn("report refresh cycle failed")
	}
}
