package manager

import (
	"context"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/trigger"
)

type Service interface {
	GetParticipant(ctx context.Context, participantID string) (participant.Participant, error)
	ListParticipants(ctx context.Context, offset, limit uint64) (participant.ParticipantPage, error)
	DeleteParticipant(ctx context.Context, participantID string) error

	GetModel(ctx context.Context, version int) (ModelVersion, error)
	LatestModel(ctx context.Context) (ModelVersion, error)
	ListModels(ctx context.Context, offset, limit uint64) (ModelPage, error)

	RunTrainingSession(ctx context.Context, spec SessionSpec) (coordinator.Session, error)
	GetSession(ctx context.Context, sessionID string) (coordinator.Session, error)
	ListSessions(ctx context.Context, offset, limit uint64) (SessionPage, error)

	CheckDrift(ctx context.Context, spec DriftCheckSpec) (trigger.Decision, error)
	ListDecisions(ctx context.Context, offset, limit uint64) (DecisionPage, error)

	Subscribe(ctx context.Context) error
}
