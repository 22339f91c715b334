package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/trigger"
)

var _ manager.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     manager.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc manager.Service) manager.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) GetParticipant(ctx context.Context, participantID string) (participant.Participant, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-participant").Add(1)
		mm.latency.With("method", "get-participant").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetParticipant(ctx, participantID)
}

func (mm *metricsMiddleware) ListParticipants(ctx context.Context, offset, limit uint64) (participant.ParticipantPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-participants").Add(1)
		mm.latency.With("method", "list-participants").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListParticipants(ctx, offset, limit)
}

func (mm *metricsMiddleware) DeleteParticipant(ctx context.Context, participantID string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "delete-participant").Add(1)
		mm.latency.With("method", "delete-participant").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.DeleteParticipant(ctx, participantID)
}

func (mm *metricsMiddleware) GetModel(ctx context.Context, version int) (manager.ModelVersion, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-model").Add(1)
		mm.latency.With("method", "get-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetModel(ctx, version)
}

func (mm *metricsMiddleware) LatestModel(ctx context.Context) (manager.ModelVersion, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "latest-model").Add(1)
		mm.latency.With("method", "latest-model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.LatestModel(ctx)
}

func (mm *metricsMiddleware) ListModels(ctx context.Context, offset, limit uint64) (manager.ModelPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-models").Add(1)
		mm.latency.With("method", "list-models").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListModels(ctx, offset, limit)
}

func (mm *metricsMiddleware) RunTrainingSession(ctx context.Context, spec manager.SessionSpec) (coordinator.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "run-training-session").Add(1)
		mm.latency.With("method", "run-training-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RunTrainingSession(ctx, spec)
}

func (mm *metricsMiddleware) GetSession(ctx context.Context, sessionID string) (coordinator.Session, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-session").Add(1)
		mm.latency.With("method", "get-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetSession(ctx, sessionID)
}

func (mm *metricsMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (manager.SessionPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-sessions").Add(1)
		mm.latency.With("method", "list-sessions").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListSessions(ctx, offset, limit)
}

func (mm *metricsMiddleware) CheckDrift(ctx context.Context, spec manager.DriftCheckSpec) (trigger.Decision, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "check-drift").Add(1)
		mm.latency.With("method", "check-drift").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.CheckDrift(ctx, spec)
}

func (mm *metricsMiddleware) ListDecisions(ctx context.Context, offset, limit uint64) (manager.DecisionPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-decisions").Add(1)
		mm.latency.With("method", "list-decisions").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListDecisions(ctx, offset, limit)
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "subscribe").Add(1)
		mm.latency.With("method", "subscribe").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Subscribe(ctx)
}
