package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/events-logistics/internal/model"
	"github.com/Shivanand-hulikatti/events-logistics/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	events       *mockEventStore
	participants *mockParticipantStore
	logistics    *mockLogisticsStore
	svc          *EventService
}

func newFixture() *fixture {
	f := &fixture{
		events:       &mockEventStore{},
		participants: &mockParticipantStore{},
		logistics:    &mockLogisticsStore{},
	}
	f.svc = NewEventService(f.events, f.participants, f.logistics)
	return f
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleEvent() *model.Event {
	return &model.Event{
		ID:          1,
		Description: "Sample Event",
		StartDate:   date(2024, 1, 1),
		EndDate:     date(2024, 1, 2),
		Cost:        1000.0,
	}
}

var ctx = context.Background()

func TestAddEvent(t *testing.T) {
	f := newFixture()
	ev := sampleEvent()
	f.events.On("Save", mock.Anything, ev).Return(ev, nil)

	added, err := f.svc.AddEvent(ctx, ev)

	require.NoError(t, err)
	require.NotNil(t, added)
	assert.Equal(t, "Sample Event", added.Description)
	f.events.AssertNumberOfCalls(t, "Save", 1)
}

func TestAddEventPropagatesStoreError(t *testing.T) {
	f := newFixture()
	f.events.On("Save", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

	_, err := f.svc.AddEvent(ctx, sampleEvent())

	assert.ErrorContains(t, err, "add event: disk full")
}

func TestDeleteEvent(t *testing.T) {
	f := newFixture()
	f.events.On("ExistsByID", mock.Anything, int64(1)).Return(true, nil)
	f.events.On("DeleteByID", mock.Anything, int64(1)).Return(nil)

	require.NoError(t, f.svc.DeleteEvent(ctx, 1))

	f.events.AssertNumberOfCalls(t, "DeleteByID", 1)
	f.events.AssertCalled(t, "DeleteByID", mock.Anything, int64(1))
}

func TestDeleteEventNonExistent(t *testing.T) {
	f := newFixture()
	f.events.On("ExistsByID", mock.Anything, int64(1)).Return(false, nil)

	err := f.svc.DeleteEvent(ctx, 1)

	require.Error(t, err)
	assert.Equal(t, "Event with ID 1 does not exist.", err.Error())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
	f.events.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestUpdateEvent(t *testing.T) {
	f := newFixture()
	existing := sampleEvent()
	update := &model.Event{
		Description: "Updated Event",
		StartDate:   date(2024, 1, 5),
		EndDate:     date(2024, 1, 6),
		Cost:        2000.0,
	}
	f.events.On("FindByID", mock.Anything, int64(1)).Return(existing, nil)
	f.events.On("Save", mock.Anything, existing).Return(echo{}, nil)

	result, err := f.svc.UpdateEvent(ctx, 1, update)

	require.NoError(t, err)
	assert.Equal(t, "Updated Event", result.Description)
	assert.Equal(t, date(2024, 1, 5), result.StartDate)
	assert.Equal(t, date(2024, 1, 6), result.EndDate)
	assert.Equal(t, 2000.0, result.Cost)
	assert.Equal(t, int64(1), result.ID)
	f.events.AssertNumberOfCalls(t, "FindByID", 1)
	f.events.AssertNumberOfCalls(t, "Save", 1)
	// The stored record, not the update value, is what gets saved.
	f.events.AssertCalled(t, "Save", mock.Anything, existing)
}

func TestUpdateEventNonExistent(t *testing.T) {
	f := newFixture()
	f.events.On("FindByID", mock.Anything, int64(7)).Return(nil, repository.ErrNotFound)

	_, err := f.svc.UpdateEvent(ctx, 7, sampleEvent())

	assert.EqualError(t, err, "Event with ID 7 does not exist.")
	f.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRetrieveEvent(t *testing.T) {
	f := newFixture()
	stored := sampleEvent()
	f.events.On("FindByID", mock.Anything, int64(1)).Return(stored, nil)

	got, err := f.svc.RetrieveEvent(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, sampleEvent(), got)
	f.events.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestRetrieveNonExistentEvent(t *testing.T) {
	f := newFixture()
	f.events.On("FindByID", mock.Anything, int64(1)).Return(nil, repository.ErrNotFound)

	_, err := f.svc.RetrieveEvent(ctx, 1)

	assert.EqualError(t, err, "Event with ID 1 does not exist.")
	f.events.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestRetrieveEventWrapsOtherErrors(t *testing.T) {
	f := newFixture()
	f.events.On("FindByID", mock.Anything, int64(1)).Return(nil, errors.New("connection reset"))

	_, err := f.svc.RetrieveEvent(ctx, 1)

	assert.EqualError(t, err, "retrieve event: connection reset")
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}

func TestAddParticipantDefaults(t *testing.T) {
	f := newFixture()
	f.participants.On("Save", mock.Anything, mock.Anything).Return(echo{}, nil)

	p, err := f.svc.AddParticipant(ctx, &model.Participant{FirstName: "Amel"})

	require.NoError(t, err)
	assert.Equal(t, model.RoleGuest, p.Role)
	assert.Len(t, p.Reference, 36)
	f.participants.AssertNumberOfCalls(t, "Save", 1)
}

func TestAddParticipantKeepsReference(t *testing.T) {
	f := newFixture()
	f.participants.On("Save", mock.Anything, mock.Anything).Return(echo{}, nil)

	p, err := f.svc.AddParticipant(ctx, &model.Participant{Reference: " TAX-9 ", Role: model.RoleOrganizer})

	require.NoError(t, err)
	assert.Equal(t, "TAX-9", p.Reference)
	assert.Equal(t, model.RoleOrganizer, p.Role)
}

func TestAddParticipantRejectsUnknownRole(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddParticipant(ctx, &model.Participant{Role: "juggler"})

	assert.ErrorIs(t, err, ErrInvalidParticipant)
	f.participants.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAssignParticipant(t *testing.T) {
	f := newFixture()
	ev := sampleEvent()
	p := &model.Participant{ID: 5, Reference: "R5"}
	f.participants.On("FindByID", mock.Anything, int64(5)).Return(p, nil)
	f.events.On("Save", mock.Anything, ev).Return(echo{}, nil)

	saved, err := f.svc.AssignParticipant(ctx, ev, 5)
	require.NoError(t, err)
	require.Len(t, saved.Participants, 1)
	assert.Equal(t, int64(5), saved.Participants[0].ID)

	// A second assignment does not duplicate the link.
	saved, err = f.svc.AssignParticipant(ctx, ev, 5)
	require.NoError(t, err)
	assert.Len(t, saved.Participants, 1)
	f.events.AssertNumberOfCalls(t, "Save", 2)
}

func TestAssignParticipantUnknown(t *testing.T) {
	f := newFixture()
	f.participants.On("FindByID", mock.Anything, int64(5)).Return(nil, repository.ErrNotFound)

	_, err := f.svc.AssignParticipant(ctx, sampleEvent(), 5)

	assert.EqualError(t, err, "Participant with ID 5 does not exist.")
	f.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAssignParticipantsNilEvent(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AssignParticipant(ctx, nil, 5)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = f.svc.AssignParticipants(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	f.participants.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAddParticipantConflict(t *testing.T) {
	f := newFixture()
	f.participants.On("Save", mock.Anything, mock.Anything).
		Return(nil, repository.ErrConflict)

	_, err := f.svc.AddParticipant(ctx, &model.Participant{Reference: "TAX-1"})

	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestAssignParticipantsByReference(t *testing.T) {
	f := newFixture()
	ev := sampleEvent()
	ev.Participants = []model.Participant{{Reference: "TAX-1"}, {ID: 8}, {Reference: "TAX-1"}}
	f.participants.On("FindByReference", mock.Anything, "TAX-1").
		Return(&model.Participant{ID: 3, Reference: "TAX-1", FirstName: "Ahmed"}, nil)
	f.participants.On("FindByID", mock.Anything, int64(8)).
		Return(&model.Participant{ID: 8, Reference: "TAX-8"}, nil)
	f.events.On("Save", mock.Anything, ev).Return(echo{}, nil)

	saved, err := f.svc.AssignParticipants(ctx, ev)

	require.NoError(t, err)
	require.Len(t, saved.Participants, 2)
	assert.Equal(t, "Ahmed", saved.Participants[0].FirstName)
	assert.Equal(t, int64(8), saved.Participants[1].ID)
	f.events.AssertNumberOfCalls(t, "Save", 1)
}

func TestAssignParticipantsUnknownReference(t *testing.T) {
	f := newFixture()
	ev := sampleEvent()
	ev.Participants = []model.Participant{{Reference: "TAX-404"}}
	f.participants.On("FindByReference", mock.Anything, "TAX-404").Return(nil, repository.ErrNotFound)

	_, err := f.svc.AssignParticipants(ctx, ev)

	assert.EqualError(t, err, `Participant with reference "TAX-404" does not exist.`)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	f.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAssignLogistics(t *testing.T) {
	f := newFixture()
	l := &model.Logistics{Description: "chairs", Reserved: true, Price: 150}
	f.events.On("FindByDescription", mock.Anything, "Sample Event").Return(sampleEvent(), nil)
	f.logistics.On("Save", mock.Anything, l).Return(echo{}, nil)

	saved, err := f.svc.AssignLogistics(ctx, l, "Sample Event")

	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.EventID)
	f.logistics.AssertNumberOfCalls(t, "Save", 1)
}

func TestAssignLogisticsUnknownEvent(t *testing.T) {
	f := newFixture()
	f.events.On("FindByDescription", mock.Anything, "Ghost").Return(nil, repository.ErrNotFound)

	saved, err := f.svc.AssignLogistics(ctx, &model.Logistics{}, "Ghost")

	assert.Nil(t, saved)
	assert.EqualError(t, err, `Event with description "Ghost" does not exist.`)
	f.logistics.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLogisticsBetween(t *testing.T) {
	f := newFixture()
	from, to := date(2024, 1, 1), date(2024, 1, 31)
	want := []model.Logistics{{ID: 1, Description: "stage", EventID: 1}}
	f.logistics.On("FindByEventDatesBetween", mock.Anything, from, to).Return(want, nil)

	got, err := f.svc.LogisticsBetween(ctx, from, to)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLogisticsBetweenEmptyIsNotNil(t *testing.T) {
	f := newFixture()
	day := date(2024, 6, 1)
	f.logistics.On("FindByEventDatesBetween", mock.Anything, day, day).Return(nil, nil)

	got, err := f.svc.LogisticsBetween(ctx, day, day)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLogisticsBetweenInvertedRange(t *testing.T) {
	f := newFixture()

	_, err := f.svc.LogisticsBetween(ctx, date(2024, 2, 1), date(2024, 1, 1))

	assert.ErrorIs(t, err, ErrInvalidRange)
	f.logistics.AssertNotCalled(t, "FindByEventDatesBetween", mock.Anything, mock.Anything, mock.Anything)
}

func TestCalculateCostSumsReservedOnly(t *testing.T) {
	f := newFixture()
	ev := sampleEvent()
	ev.Logistics = []model.Logistics{
		{ID: 1, Reserved: true, Price: 250},
		{ID: 2, Reserved: false, Price: 10000},
		{ID: 3, Reserved: true, Price: 125.5},
	}
	f.events.On("FindByID", mock.Anything, int64(1)).Return(ev, nil)
	f.events.On("Save", mock.Anything, ev).Return(echo{}, nil)

	saved, err := f.svc.CalculateCost(ctx, 1)

	require.NoError(t, err)
	assert.InDelta(t, 375.5, saved.Cost, 1e-9)
	assert.Len(t, saved.Logistics, 3)
	f.events.AssertNumberOfCalls(t, "Save", 1)
	// The logistics loaded with the event are summed; no second read.
	f.logistics.AssertNotCalled(t, "FindByEvent", mock.Anything, mock.Anything)
}

func TestCalculateCostUnknownEvent(t *testing.T) {
	f := newFixture()
	f.events.On("FindByID", mock.Anything, int64(2)).Return(nil, repository.ErrNotFound)

	_, err := f.svc.CalculateCost(ctx, 2)

	assert.EqualError(t, err, "Event with ID 2 does not exist.")
	f.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCalculateOrganizerCosts(t *testing.T) {
	f := newFixture()
	f.participants.On("FindByID", mock.Anything, int64(4)).
		Return(&model.Participant{ID: 4, Role: model.RoleOrganizer}, nil)
	f.events.On("FindByParticipantRole", mock.Anything, int64(4), model.RoleOrganizer).
		Return([]model.Event{{ID: 1}, {ID: 2}}, nil)

	first := sampleEvent()
	first.Logistics = []model.Logistics{{Reserved: true, Price: 40}}
	second := &model.Event{ID: 2, Description: "Second"}
	f.events.On("FindByID", mock.Anything, int64(1)).Return(first, nil)
	f.events.On("FindByID", mock.Anything, int64(2)).Return(second, nil)
	f.events.On("Save", mock.Anything, mock.Anything).Return(echo{}, nil)

	updated, err := f.svc.CalculateOrganizerCosts(ctx, 4)

	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, 40.0, updated[0].Cost)
	assert.Zero(t, updated[1].Cost)
	f.events.AssertNumberOfCalls(t, "Save", 2)
}

func TestCalculateOrganizerCostsUnknownParticipant(t *testing.T) {
	f := newFixture()
	f.participants.On("FindByID", mock.Anything, int64(4)).Return(nil, repository.ErrNotFound)

	_, err := f.svc.CalculateOrganizerCosts(ctx, 4)

	assert.EqualError(t, err, "Participant with ID 4 does not exist.")
	f.events.AssertNotCalled(t, "FindByParticipantRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestListEvents(t *testing.T) {
	f := newFixture()
	f.events.On("List", mock.Anything).Return([]model.Event{*sampleEvent()}, nil)

	events, err := f.svc.ListEvents(ctx)

	require.NoError(t, err)
	assert.Len(t, events, 1)
}
