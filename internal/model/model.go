// Package model defines the core domain types for the events and logistics system.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used on the wire and in SQLite.
const DateLayout = "2006-01-02"

// Role is the part a participant plays in the events it joins.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleOrganizer Role = "organizer"
	RoleServer    Role = "server"
	RoleHost      Role = "host"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleOrganizer, RoleServer, RoleHost:
		return true
	}
	return false
}

// Event is a scheduled occurrence with a date range and an aggregate cost.
type Event struct {
	ID           int64         `json:"id"`
	Description  string        `json:"description"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Cost         float64       `json:"cost"`
	Participants []Participant `json:"participants,omitempty"`
	Logistics    []Logistics   `json:"logistics,omitempty"`
}

type eventAlias Event

// MarshalJSON writes the event dates as YYYY-MM-DD.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		eventAlias
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}{eventAlias(e), FormatDate(e.StartDate), FormatDate(e.EndDate)})
}

// UnmarshalJSON reads YYYY-MM-DD event dates; empty dates stay zero.
func (e *Event) UnmarshalJSON(data []byte) error {
	aux := struct {
		*eventAlias
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}{eventAlias: (*eventAlias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if aux.StartDate != "" {
		if e.StartDate, err = ParseDate(aux.StartDate); err != nil {
			return fmt.Errorf("start_date: %w", err)
		}
	}
	if aux.EndDate != "" {
		if e.EndDate, err = ParseDate(aux.EndDate); err != nil {
			return fmt.Errorf("end_date: %w", err)
		}
	}
	return nil
}

// HasParticipant reports whether a participant with the given ID is attached.
func (e *Event) HasParticipant(id int64) bool {
	for _, p := range e.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// ReservedCost sums the price of every reserved logistics entry in items.
func ReservedCost(items []Logistics) float64 {
	var total float64
	for _, l := range items {
		if l.Reserved {
			total += l.Price
		}
	}
	return total
}

// Participant is a person who can take part in several events.
type Participant struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// Logistics is a cost-bearing resource tied to exactly one event.
type Logistics struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Reserved    bool    `json:"reserved"`
	Price       float64 `json:"price"`
	EventID     int64   `json:"event_id"`
}

// EventRequest is the payload for creating or updating an event.
// ID, Participants and Logistics are accepted so a retrieved event can be
// sent back as is; they are ignored.
type EventRequest struct {
	ID           int64           `json:"id,omitempty"`
	Description  string          `json:"description"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Cost         float64         `json:"cost"`
	Participants json.RawMessage `json:"participants,omitempty"`
	Logistics    json.RawMessage `json:"logistics,omitempty"`
}

// ToEvent parses the request dates and builds an Event without an ID.
func (r EventRequest) ToEvent() (*Event, error) {
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}
	end, err := ParseDate(r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("end_date: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end_date must not be before start_date")
	}
	return &Event{
		Description: strings.TrimSpace(r.Description),
		StartDate:   start,
		EndDate:     end,
		Cost:        r.Cost,
	}, nil
}

// ParticipantRequest is the payload for registering a participant.
type ParticipantRequest struct {
	Reference string `json:"reference"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// AssignParticipantsRequest lists the participant references to attach to an event.
type AssignParticipantsRequest struct {
	References []string `json:"references"`
}

// LogisticsRequest is the payload for attaching logistics to an event by description.
type LogisticsRequest struct {
	Description      string  `json:"description"`
	Reserved         bool    `json:"reserved"`
	Price            float64 `json:"price"`
	EventDescription string  `json:"event_description"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FormatDate renders t as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
