// Package event defines conference events and their application question
// catalogues.
package event

import (
	"strings"
	"time"
)

// Kind classifies an event.
type Kind string

const (
	KindConference Kind = "CONFERENCE"
	KindResidency  Kind = "RESIDENCY"
	KindMeetup     Kind = "MEETUP"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	switch k {
	case KindConference, KindResidency, KindMeetup:
		return true
	}
	return false
}

// Audience identifies which applicant track an event form targets.
type Audience string

const (
	AudienceAttendee Audience = "ATTENDEE"
	AudienceSpeaker  Audience = "SPEAKER"
	AudienceSponsor  Audience = "SPONSOR"
)

// Valid reports whether the audience is known.
func (a Audience) Valid() bool {
	switch a {
	case AudienceAttendee, AudienceSpeaker, AudienceSponsor:
		return true
	}
	return false
}

// Event is a conference, residency or meetup accepting applications.
type Event struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Audience  Audience  `json:"audience"`
	OpensAt   time.Time `json:"opens_at,omitempty"`
	ClosesAt  time.Time `json:"closes_at,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcceptingApplications reports whether the event window is open at t.
func (e Event) AcceptingApplications(t time.Time) bool {
	if !e.Active {
		return false
	}
	if !e.OpensAt.IsZero() && t.Before(e.OpensAt) {
		return false
	}
	if !e.ClosesAt.IsZero() && t.After(e.ClosesAt) {
		return false
	}
	return true
}

// QuestionType enumerates the supported answer widgets.
type QuestionType string

const (
	TypeText        QuestionType = "TEXT"
	TypeTextarea    QuestionType = "TEXTAREA"
	TypeEmail       QuestionType = "EMAIL"
	TypePhone       QuestionType = "PHONE"
	TypeURL         QuestionType = "URL"
	TypeSelect      QuestionType = "SELECT"
	TypeMultiselect QuestionType = "MULTISELECT"
	TypeCheckbox    QuestionType = "CHECKBOX"
	TypeNumber      QuestionType = "NUMBER"
)

// Valid reports whether the type is one of the supported widgets.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeEmail, TypePhone, TypeURL,
		TypeSelect, TypeMultiselect, TypeCheckbox, TypeNumber:
		return true
	}
	return false
}

// HasOptions reports whether the type carries an option list.
func (t QuestionType) HasOptions() bool {
	return t == TypeSelect || t == TypeMultiselect
}

// Question is one entry of an event's application form.
type Question struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	Key       string       `json:"key"`
	PromptEN  string       `json:"prompt_en"`
	PromptRU  string       `json:"prompt_ru,omitempty"`
	Type      QuestionType `json:"type"`
	Required  bool         `json:"required"`
	Options   []string     `json:"options,omitempty"`
	Order     int          `json:"order"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Conditional reports whether the question is only required when another
// answer triggers it. Detection is a substring heuristic over the prompt
// text inherited from the original form builder; prompts that mention
// "specify", "other" or "if you answered" are treated as follow-ups.
func (q Question) Conditional() bool {
	for _, prompt := range []string{q.PromptEN, q.PromptRU} {
		lower := strings.ToLower(prompt)
		if strings.Contains(lower, "specify") ||
			strings.Contains(lower, "other") ||
			strings.Contains(lower, "if you answered") {
			return true
		}
	}
	return false
}
