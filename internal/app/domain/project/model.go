// Package project defines residency projects and their impact metrics.
package project

import "time"

// Project is a residency or conference project tracked on the impact
// dashboards.
type Project struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ImpactMetric is one observation of a named metric for a project.
type ImpactMetric struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Name       string    `json:"name"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}
