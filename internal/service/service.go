// Package service implements the event business operations, mediating
// between HTTP handlers and the persistence gateway.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/events-logistics/internal/model"
	"github.com/Shivanand-hulikatti/events-logistics/internal/repository"
	"github.com/google/uuid"
)

// EventService orchestrates event, participant and logistics operations.
// It keeps no state of its own; every call is a read then a write against
// the stores.
type EventService struct {
	events       repository.EventStore
	participants repository.ParticipantStore
	logistics    repository.LogisticsStore
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events repository.EventStore,
	participants repository.ParticipantStore,
	logistics repository.LogisticsStore,
) *EventService {
	return &EventService{events: events, participants: participants, logistics: logistics}
}

// AddEvent persists a new event and returns the stored record.
func (s *EventService) AddEvent(ctx context.Context, event *model.Event) (*model.Event, error) {
	saved, err := s.events.Save(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("add event: %w", err)
	}
	return saved, nil
}

// DeleteEvent removes the event with id, failing with NotFoundError when absent.
func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	exists, err := s.events.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if !exists {
		return eventNotFound(id)
	}
	if err := s.events.DeleteByID(ctx, id); err != nil {
		return notFoundOr(err, eventNotFound(id), "delete event")
	}
	return nil
}

// UpdateEvent copies description, dates and cost from update onto the stored
// event and saves the stored record. Participants and logistics are kept.
func (s *EventService) UpdateEvent(ctx context.Context, id int64, update *model.Event) (*model.Event, error) {
	existing, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, eventNotFound(id), "update event")
	}

	existing.Description = update.Description
	existing.StartDate = update.StartDate
	existing.EndDate = update.EndDate
	existing.Cost = update.Cost

	saved, err := s.events.Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return saved, nil
}

// RetrieveEvent returns the event with id, failing with NotFoundError when absent.
func (s *EventService) RetrieveEvent(ctx context.Context, id int64) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, eventNotFound(id), "retrieve event")
	}
	return event, nil
}

// ListEvents returns every event ordered by start date.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// AddParticipant persists a new participant. A missing reference is replaced
// by a random UUID and a missing role defaults to guest.
func (s *EventService) AddParticipant(ctx context.Context, participant *model.Participant) (*model.Participant, error) {
	p := *participant
	p.Reference = strings.TrimSpace(p.Reference)
	if p.Reference == "" {
		p.Reference = uuid.NewString()
	}
	if p.Role == "" {
		p.Role = model.RoleGuest
	}
	if !p.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidParticipant, p.Role)
	}

	saved, err := s.participants.Save(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("add participant: %w", err)
	}
	return saved, nil
}

// AssignParticipant attaches the participant with participantID to event and
// saves the event.
func (s *EventService) AssignParticipant(ctx context.Context, event *model.Event, participantID int64) (*model.Event, error) {
	if event == nil {
		return nil, fmt.Errorf("assign participant: %w", ErrInvalidEvent)
	}
	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		return nil, notFoundOr(err, participantNotFound(participantID), "assign participant")
	}
	if !event.HasParticipant(participant.ID) {
		event.Participants = append(event.Participants, *participant)
	}

	saved, err := s.events.Save(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("assign participant: %w", err)
	}
	return saved, nil
}

// AssignParticipants resolves every participant embedded in event against the
// store, by reference when one is set and by ID otherwise, then saves the
// event. Nothing is saved if any participant is unknown.
func (s *EventService) AssignParticipants(ctx context.Context, event *model.Event) (*model.Event, error) {
	if event == nil {
		return nil, fmt.Errorf("assign participants: %w", ErrInvalidEvent)
	}
	resolved := make([]model.Participant, 0, len(event.Participants))
	seen := make(map[int64]bool, len(event.Participants))
	for _, embedded := range event.Participants {
		p, err := s.resolveParticipant(ctx, embedded)
		if err != nil {
			return nil, err
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		resolved = append(resolved, *p)
	}
	event.Participants = resolved

	saved, err := s.events.Save(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("assign participants: %w", err)
	}
	return saved, nil
}

func (s *EventService) resolveParticipant(ctx context.Context, embedded model.Participant) (*model.Participant, error) {
	if ref := strings.TrimSpace(embedded.Reference); ref != "" {
		p, err := s.participants.FindByReference(ctx, ref)
		if err != nil {
			nf := &NotFoundError{Entity: "Participant", Field: "reference", Value: ref}
			return nil, notFoundOr(err, nf, "resolve participant")
		}
		return p, nil
	}
	p, err := s.participants.FindByID(ctx, embedded.ID)
	if err != nil {
		return nil, notFoundOr(err, participantNotFound(embedded.ID), "resolve participant")
	}
	return p, nil
}

// AssignLogistics attaches logistics to the event whose description matches
// eventDescription and saves it.
func (s *EventService) AssignLogistics(ctx context.Context, logistics *model.Logistics, eventDescription string) (*model.Logistics, error) {
	event, err := s.events.FindByDescription(ctx, eventDescription)
	if err != nil {
		nf := &NotFoundError{Entity: "Event", Field: "description", Value: eventDescription}
		return nil, notFoundOr(err, nf, "assign logistics")
	}

	logistics.EventID = event.ID
	saved, err := s.logistics.Save(ctx, logistics)
	if err != nil {
		return nil, fmt.Errorf("assign logistics: %w", err)
	}
	return saved, nil
}

// LogisticsBetween returns the logistics of events starting or ending within
// [from, to]. The result is never nil.
func (s *EventService) LogisticsBetween(ctx context.Context, from, to time.Time) ([]model.Logistics, error) {
	if from.After(to) {
		return nil, ErrInvalidRange
	}
	items, err := s.logistics.FindByEventDatesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("logistics between dates: %w", err)
	}
	if items == nil {
		items = []model.Logistics{}
	}
	return items, nil
}

// CalculateCost sets the event's cost to the total price of its reserved
// logistics and saves it. FindByID loads the logistics with the event.
func (s *EventService) CalculateCost(ctx context.Context, eventID int64) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, eventNotFound(eventID), "calculate cost")
	}

	event.Cost = model.ReservedCost(event.Logistics)

	saved, err := s.events.Save(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("calculate cost of event %d: %w", event.ID, err)
	}
	return saved, nil
}

// CalculateOrganizerCosts recalculates the cost of every event the
// participant organises and returns the updated events.
func (s *EventService) CalculateOrganizerCosts(ctx context.Context, participantID int64) ([]model.Event, error) {
	if _, err := s.participants.FindByID(ctx, participantID); err != nil {
		return nil, notFoundOr(err, participantNotFound(participantID), "calculate organizer costs")
	}

	events, err := s.events.FindByParticipantRole(ctx, participantID, model.RoleOrganizer)
	if err != nil {
		return nil, fmt.Errorf("calculate organizer costs: %w", err)
	}

	// Reload each event so Save keeps its participant links.
	updated := make([]model.Event, 0, len(events))
	for _, e := range events {
		saved, err := s.CalculateCost(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		updated = append(updated, *saved)
	}
	return updated, nil
}
