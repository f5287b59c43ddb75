// Package schedule defines event session slots.
package schedule

import "time"

// Session is one scheduled talk or activity within an event.
type Session struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	SpeakerID string    `json:"speaker_id,omitempty"`
	Room      string    `json:"room,omitempty"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overlaps reports whether two sessions collide in time.
func (s Session) Overlaps(other Session) bool {
	return s.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(s.EndsAt)
}
