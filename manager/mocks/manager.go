package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/trigger"
)

// MockService is a mock implementation of the manager.Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) GetParticipant(ctx context.Context, participantID string) (participant.Participant, error) {
	args := m.Called(ctx, participantID)

	return args.Get(0).(participant.Participant), args.Error(1)
}

func (m *MockService) ListParticipants(ctx context.Context, offset, limit uint64) (participant.ParticipantPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(participant.ParticipantPage), args.Error(1)
}

func (m *MockService) DeleteParticipant(ctx context.Context, participantID string) error {
	args := m.Called(ctx, participantID)

	return args.Error(0)
}

func (m *MockService) GetModel(ctx context.Context, version int) (manager.ModelVersion, error) {
	args := m.Called(ctx, version)

	return args.Get(0).(manager.ModelVersion), args.Error(1)
}

func (m *MockService) LatestModel(ctx context.Context) (manager.ModelVersion, error) {
	args := m.Called(ctx)

	return args.Get(0).(manager.ModelVersion), args.Error(1)
}

func (m *MockService) ListModels(ctx context.Context, offset, limit uint64) (manager.ModelPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(manager.ModelPage), args.Error(1)
}

func (m *MockService) RunTrainingSession(ctx context.Context, spec manager.SessionSpec) (coordinator.Session, error) {
	args := m.Called(ctx, spec)

	return args.Get(0).(coordinator.Session), args.Error(1)
}

func (m *MockService) GetSession(ctx context.Context, sessionID string) (coordinator.Session, error) {
	args := m.Called(ctx, sessionID)

	return args.Get(0).(coordinator.Session), args.Error(1)
}

func (m *MockService) ListSessions(ctx context.Context, offset, limit uint64) (manager.SessionPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(manager.SessionPage), args.Error(1)
}

func (m *MockService) CheckDrift(ctx context.Context, spec manager.DriftCheckSpec) (trigger.Decision, error) {
	args := m.Called(ctx, spec)

	return args.Get(0).(trigger.Decision), args.Error(1)
}

func (m *MockService) ListDecisions(ctx context.Context, offset, limit uint64) (manager.DecisionPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(manager.DecisionPage), args.Error(1)
}

func (m *MockService) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
