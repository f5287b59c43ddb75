// Package projects manages residency projects and their impact metrics.
package projects

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	apperr "github.com/Gather-Network/conference_layer/internal/errors"

	"github.com/Gather-Network/conference_layer/internal/app/domain/project"
	"github.com/Gather-Network/conference_layer/internal/app/storage"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// Service manages projects.
type Service struct {
	projects storage.ProjectStore
	events   storage.EventStore
	log      *logger.Logger
}

// New creates the projects service.
func New(projects storage.ProjectStore, events storage.EventStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("projects")
	}
	return &Service{projects: projects, events: events, log: log}
}

// Create validates and stores a new project.
func (s *Service) Create(ctx context.Context, p project.Project) (project.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return project.Project{}, apperr.Validation("name is required")
	}
	if p.OwnerID == "" {
		return project.Project{}, apperr.Validation("owner_id is required")
	}
	if _, err := s.events.GetEvent(ctx, p.EventID); errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, apperr.NotFound("event not found")
	} else if err != nil {
		return project.Project{}, err
	}

	created, err := s.projects.CreateProject(ctx, p)
	if err != nil {
		return project.Project{}, err
	}
	s.log.WithField("project_id", created.ID).Info("project created")
	return created, nil
}

// Update changes a project's name and description. Only the owner or an
// admin may update; the handler enforces that.
func (s *Service) Update(ctx context.Context, p project.Project) (project.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return project.Project{}, apperr.Validation("name is required")
	}

	updated, err := s.projects.UpdateProject(ctx, p)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, apperr.NotFound("project not found")
	}
	if err != nil {
		return project.Project{}, err
	}
	s.log.WithField("project_id", updated.ID).Info("project updated")
	return updated, nil
}

// Get returns one project by id.
func (s *Service) Get(ctx context.Context, id string) (project.Project, error) {
	p, err := s.projects.GetProject(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, apperr.NotFound("project not found")
	}
	return p, err
}

// List returns projects, optionally filtered by event.
func (s *Service) List(ctx context.Context, eventID string) ([]project.Project, error) {
	return s.projects.ListProjects(ctx, eventID)
}

// RecordMetric appends one impact metric observation to a project.
func (s *Service) RecordMetric(ctx context.Context, m project.ImpactMetric) (project.ImpactMetric, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return project.ImpactMetric{}, apperr.Validation("metric name is required")
	}
	if _, err := s.Get(ctx, m.ProjectID); err != nil {
		return project.ImpactMetric{}, err
	}

	created, err := s.projects.CreateImpactMetric(ctx, m)
	if err != nil {
		return project.ImpactMetric{}, err
	}
	s.log.WithField("project_id", m.ProjectID).WithField("metric", m.Name).Info("impact metric recorded")
	return created, nil
}

// Metrics returns a project's impact observations in recorded order.
func (s *Service) Metrics(ctx context.Context, projectID string) ([]project.ImpactMetric, error) {
	return s.projects.ListImpactMetrics(ctx, projectID)
}
