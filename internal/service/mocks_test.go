package service

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/events-logistics/internal/model"
	"github.com/stretchr/testify/mock"
)

// echo makes Save mocks return the value they were called with.
type echo struct{}

type mockEventStore struct{ mock.Mock }

func (m *mockEventStore) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEventStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockEventStore) Save(ctx context.Context, event *model.Event) (*model.Event, error) {
	args := m.Called(ctx, event)
	if _, ok := args.Get(0).(echo); ok {
		saved := *event
		return &saved, args.Error(1)
	}
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEventStore) DeleteByID(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEventStore) FindByDescription(ctx context.Context, description string) (*model.Event, error) {
	args := m.Called(ctx, description)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEventStore) List(ctx context.Context) ([]model.Event, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]model.Event)
	return events, args.Error(1)
}

func (m *mockEventStore) FindByParticipantRole(ctx context.Context, participantID int64, role model.Role) ([]model.Event, error) {
	args := m.Called(ctx, participantID, role)
	events, _ := args.Get(0).([]model.Event)
	return events, args.Error(1)
}

type mockParticipantStore struct{ mock.Mock }

func (m *mockParticipantStore) FindByID(ctx context.Context, id int64) (*model.Participant, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Participant)
	return p, args.Error(1)
}

func (m *mockParticipantStore) FindByReference(ctx context.Context, reference string) (*model.Participant, error) {
	args := m.Called(ctx, reference)
	p, _ := args.Get(0).(*model.Participant)
	return p, args.Error(1)
}

func (m *mockParticipantStore) Save(ctx context.Context, participant *model.Participant) (*model.Participant, error) {
	args := m.Called(ctx, participant)
	if _, ok := args.Get(0).(echo); ok {
		saved := *participant
		return &saved, args.Error(1)
	}
	p, _ := args.Get(0).(*model.Participant)
	return p, args.Error(1)
}

type mockLogisticsStore struct{ mock.Mock }

func (m *mockLogisticsStore) Save(ctx context.Context, logistics *model.Logistics) (*model.Logistics, error) {
	args := m.Called(ctx, logistics)
	if _, ok := args.Get(0).(echo); ok {
		saved := *logistics
		return &saved, args.Error(1)
	}
	l, _ := args.Get(0).(*model.Logistics)
	return l, args.Error(1)
}

func (m *mockLogisticsStore) FindByEvent(ctx context.Context, eventID int64) ([]model.Logistics, error) {
	args := m.Called(ctx, eventID)
	items, _ := args.Get(0).([]model.Logistics)
	return items, args.Error(1)
}

func (m *mockLogisticsStore) FindByEventDatesBetween(ctx context.Context, from, to time.Time) ([]model.Logistics, error) {
	args := m.Called(ctx, from, to)
	items, _ := args.Get(0).([]model.Logistics)
	return items, args.Error(1)
}
