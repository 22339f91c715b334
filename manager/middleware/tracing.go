package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/trigger"
)

var _ manager.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    manager.Service
}

func Tracing(tracer trace.Tracer, svc manager.Service) manager.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) GetParticipant(ctx context.Context, participantID string) (participant.Participant, error) {
	ctx, span := tm.tracer.Start(ctx, "get-participant", trace.WithAttributes(
		attribute.String("id", participantID),
	))
	defer span.End()

	return tm.svc.GetParticipant(ctx, participantID)
}

func (tm *tracing) ListParticipants(ctx context.Context, offset, limit uint64) (participant.ParticipantPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-participants", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListParticipants(ctx, offset, limit)
}

func (tm *tracing) DeleteParticipant(ctx context.Context, participantID string) error {
	ctx, span := tm.tracer.Start(ctx, "delete-participant", trace.WithAttributes(
		attribute.String("id", participantID),
	))
	defer span.End()

	return tm.svc.DeleteParticipant(ctx, participantID)
}

func (tm *tracing) GetModel(ctx context.Context, version int) (manager.ModelVersion, error) {
	ctx, span := tm.tracer.Start(ctx, "get-model", trace.WithAttributes(
		attribute.Int("version", version),
	))
	defer span.End()

	return tm.svc.GetModel(ctx, version)
}

func (tm *tracing) LatestModel(ctx context.Context) (manager.ModelVersion, error) {
	ctx, span := tm.tracer.Start(ctx, "latest-model")
	defer span.End()

	return tm.svc.LatestModel(ctx)
}

func (tm *tracing) ListModels(ctx context.Context, offset, limit uint64) (manager.ModelPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-models", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListModels(ctx, offset, limit)
}

func (tm *tracing) RunTrainingSession(ctx context.Context, spec manager.SessionSpec) (coordinator.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "run-training-session", trace.WithAttributes(
		attribute.Int("rounds", spec.Rounds),
		attribute.String("date", spec.Date),
	))
	defer span.End()

	return tm.svc.RunTrainingSession(ctx, spec)
}

func (tm *tracing) GetSession(ctx context.Context, sessionID string) (coordinator.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "get-session", trace.WithAttributes(
		attribute.String("id", sessionID),
	))
	defer span.End()

	return tm.svc.GetSession(ctx, sessionID)
}

func (tm *tracing) ListSessions(ctx context.Context, offset, limit uint64) (manager.SessionPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-sessions", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListSessions(ctx, offset, limit)
}

func (tm *tracing) CheckDrift(ctx context.Context, spec manager.DriftCheckSpec) (trigger.Decision, error) {
	ctx, span := tm.tracer.Start(ctx, "check-drift", trace.WithAttributes(
		attribute.String("reference_date", spec.ReferenceDate),
		attribute.String("current_date", spec.CurrentDate),
		attribute.String("node_id", spec.NodeID),
	))
	defer span.End()

	return tm.svc.CheckDrift(ctx, spec)
}

func (tm *tracing) ListDecisions(ctx context.Context, offset, limit uint64) (manager.DecisionPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-decisions", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListDecisions(ctx, offset, limit)
}

func (tm *tracing) Subscribe(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "subscribe")
	defer span.End()

	return tm.svc.Subscribe(ctx)
}
