// Package notification defines the per-user notification records that back
// client toasts and banners.
package notification

import "time"

// Kind classifies a notification.
type Kind string

const (
	KindComplete   Kind = "COMPLETE"    // application reached 100% completion
	KindReverted   Kind = "REVERTED"    // SUBMITTED -> DRAFT reversion detected
	KindStatus     Kind = "STATUS"      // review outcome changed
	KindSaveFailed Kind = "SAVE_FAILED" // an autosave did not reach the store
	KindPraise     Kind = "PRAISE"      // praise received
)

// Notification is one message for one user. ExpiresAt is set for
// time-limited banners such as the reversion notice and is zero otherwise.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether a time-limited banner has lapsed at t.
func (n Notification) Expired(t time.Time) bool {
	return !n.ExpiresAt.IsZero() && t.After(n.ExpiresAt)
}
