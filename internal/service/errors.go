package service

import (
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/events-logistics/internal/repository"
)

// ErrInvalidRange is returned when a date range ends before it starts.
var ErrInvalidRange = errors.New("date range start is after its end")

// ErrInvalidParticipant is returned when a participant carries an unknown role.
var ErrInvalidParticipant = errors.New("invalid participant")

// ErrInvalidEvent is returned when an operation is handed no event.
var ErrInvalidEvent = errors.New("invalid event")

// NotFoundError reports a lookup that matched nothing. It satisfies
// errors.Is(err, repository.ErrNotFound).
type NotFoundError struct {
	Entity string // "Event", "Participant"
	Field  string // "ID", "description", "reference"
	Value  any
}

func (e *NotFoundError) Error() string {
	if e.Field == "ID" {
		return fmt.Sprintf("%s with ID %v does not exist.", e.Entity, e.Value)
	}
	return fmt.Sprintf("%s with %s %q does not exist.", e.Entity, e.Field, e.Value)
}

func (e *NotFoundError) Is(target error) bool {
	return target == repository.ErrNotFound
}

func eventNotFound(id int64) error {
	return &NotFoundError{Entity: "Event", Field: "ID", Value: id}
}

func participantNotFound(id int64) error {
	return &NotFoundError{Entity: "Participant", Field: "ID", Value: id}
}

// notFoundOr converts repository.ErrNotFound into nf and wraps anything else.
func notFoundOr(err error, nf error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return nf
	}
	return fmt.Errorf("%s: %w", op, err)
}
