// Package repository implements the persistence gateway for events,
// participants and logistics. Every store is a plain interface with a
// PostgreSQL (pgx) and a SQLite implementation behind it.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/events-logistics/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint,
// such as a participant reference already in use.
var ErrConflict = errors.New("conflict")

// EventStore persists events and their participant links.
//
// Save is an upsert by identifier: ID 0 inserts and assigns an ID, any other
// ID inserts or overwrites that row. The participant links are replaced by
// the event's Participants in the same transaction.
type EventStore interface {
	FindByID(ctx context.Context, id int64) (*model.Event, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Save(ctx context.Context, event *model.Event) (*model.Event, error)
	DeleteByID(ctx context.Context, id int64) error
	FindByDescription(ctx context.Context, description string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	FindByParticipantRole(ctx context.Context, participantID int64, role model.Role) ([]model.Event, error)
}

// ParticipantStore persists participants.
type ParticipantStore interface {
	FindByID(ctx context.Context, id int64) (*model.Participant, error)
	FindByReference(ctx context.Context, reference string) (*model.Participant, error)
	Save(ctx context.Context, participant *model.Participant) (*model.Participant, error)
}

// LogisticsStore persists logistics entries.
type LogisticsStore interface {
	Save(ctx context.Context, logistics *model.Logistics) (*model.Logistics, error)
	FindByEvent(ctx context.Context, eventID int64) ([]model.Logistics, error)
	// FindByEventDatesBetween returns logistics whose event starts or ends
	// within [from, to], bounds included.
	FindByEventDatesBetween(ctx context.Context, from, to time.Time) ([]model.Logistics, error)
}

// Stores groups one implementation of each gateway.
type Stores struct {
	Events       EventStore
	Participants ParticipantStore
	Logistics    LogisticsStore
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
