// Package application defines application records, their responses and the
// status transition rules enforced by the review workflow.
package application

import "time"

// Status is the lifecycle state of an application.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusAccepted    Status = "ACCEPTED"
	StatusRejected    Status = "REJECTED"
	StatusWaitlisted  Status = "WAITLISTED"
	StatusCancelled   Status = "CANCELLED"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusAccepted,
		StatusRejected, StatusWaitlisted, StatusCancelled:
		return true
	}
	return false
}

// Editable reports whether responses may still be changed.
func (s Status) Editable() bool {
	return s == StatusDraft
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

// transitions lists every allowed status edge. DRAFT -> SUBMITTED is the
// applicant's submit; SUBMITTED -> DRAFT is the server-side reversion the
// clients must detect. CANCELLED is reachable from any non-terminal state
// and is handled separately in CanTransition.
var transitions = map[Status][]Status{
	StatusDraft:       {StatusSubmitted},
	StatusSubmitted:   {StatusDraft, StatusUnderReview},
	StatusUnderReview: {StatusAccepted, StatusRejected, StatusWaitlisted},
	StatusWaitlisted:  {StatusAccepted, StatusRejected},
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return !from.Terminal()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Application is one user's submission record for one event.
type Application struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	EventID     string    `json:"event_id"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Response links an application to a question and holds the serialized
// answer: a JSON-encoded array for MULTISELECT, "true"/"false" for
// CHECKBOX, the raw string otherwise.
type Response struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	QuestionID    string    `json:"question_id"`
	QuestionKey   string    `json:"question_key"`
	Value         string    `json:"value"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Completion summarizes required-question progress for one application.
type Completion struct {
	Required int `json:"required"`
	Answered int `json:"answered"`
	Percent  int `json:"percent"`
}
