// Package praise defines the kudos records exchanged between participants.
package praise

import "time"

// Category tags what the praise is for.
type Category string

const (
	CategoryTalk       Category = "TALK"
	CategoryHelp       Category = "HELP"
	CategoryOrganizing Category = "ORGANIZING"
	CategoryOther      Category = "OTHER"
)

// Valid reports whether the category is known.
func (c Category) Valid() bool {
	switch c {
	case CategoryTalk, CategoryHelp, CategoryOrganizing, CategoryOther:
		return true
	}
	return false
}

// Praise is one kudos from one participant to another.
type Praise struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	GiverID     string    `json:"giver_id"`
	RecipientID string    `json:"recipient_id"`
	Category    Category  `json:"category"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeaderboardEntry aggregates praise received per user.
type LeaderboardEntry struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}
