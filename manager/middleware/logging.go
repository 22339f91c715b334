package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/manager"
	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/trigger"
)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    manager.Service
}

func Logging(logger *slog.Logger, svc manager.Service) manager.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) GetParticipant(ctx context.Context, participantID string) (resp participant.Participant, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("participant",
				slog.String("id", participantID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get participant failed", args...)

			return
		}
		lm.logger.Info("Get participant completed successfully", args...)
	}(time.Now())

	return lm.svc.GetParticipant(ctx, participantID)
}

func (lm *loggingMiddleware) ListParticipants(ctx context.Context, offset, limit uint64) (resp participant.ParticipantPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List participants failed", args...)

			return
		}
		lm.logger.Info("List participants completed successfully", args...)
	}(time.Now())

	return lm.svc.ListParticipants(ctx, offset, limit)
}

func (lm *loggingMiddleware) DeleteParticipant(ctx context.Context, participantID string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("participant",
				slog.String("id", participantID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Delete participant failed", args...)

			return
		}
		lm.logger.Info("Delete participant completed successfully", args...)
	}(time.Now())

	return lm.svc.DeleteParticipant(ctx, participantID)
}

func (lm *loggingMiddleware) GetModel(ctx context.Context, version int) (resp manager.ModelVersion, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.Int("version", version),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get model failed", args...)

			return
		}
		lm.logger.Info("Get model completed successfully", args...)
	}(time.Now())

	return lm.svc.GetModel(ctx, version)
}

func (lm *loggingMiddleware) LatestModel(ctx context.Context) (resp manager.ModelVersion, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get latest model failed", args...)

			return
		}
		args = append(args, slog.Int("version", resp.Version))
		lm.logger.Info("Get latest model completed successfully", args...)
	}(time.Now())

	return lm.svc.LatestModel(ctx)
}

func (lm *loggingMiddleware) ListModels(ctx context.Context, offset, limit uint64) (resp manager.ModelPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List models failed", args...)

			return
		}
		lm.logger.Info("List models completed successfully", args...)
	}(time.Now())

	return lm.svc.ListModels(ctx, offset, limit)
}

func (lm *loggingMiddleware) RunTrainingSession(ctx context.Context, spec manager.SessionSpec) (resp coordinator.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.Int("rounds", spec.Rounds),
				slog.String("date", spec.Date),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Run training session failed", args...)

			return
		}
		args = append(args,
			slog.String("session_id", resp.ID),
			slog.Int("completed_rounds", resp.CompletedRounds),
		)
		lm.logger.Info("Run training session completed successfully", args...)
	}(time.Now())

	return lm.svc.RunTrainingSession(ctx, spec)
}

func (lm *loggingMiddleware) GetSession(ctx context.Context, sessionID string) (resp coordinator.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", sessionID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get session failed", args...)

			return
		}
		lm.logger.Info("Get session completed successfully", args...)
	}(time.Now())

	return lm.svc.GetSession(ctx, sessionID)
}

func (lm *loggingMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (resp manager.SessionPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List sessions failed", args...)

			return
		}
		lm.logger.Info("List sessions completed successfully", args...)
	}(time.Now())

	return lm.svc.ListSessions(ctx, offset, limit)
}

func (lm *loggingMiddleware) CheckDrift(ctx context.Context, spec manager.DriftCheckSpec) (resp trigger.Decision, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("drift",
				slog.String("reference_date", spec.ReferenceDate),
				slog.String("current_date", spec.CurrentDate),
				slog.String("node_id", spec.NodeID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Check drift failed", args...)

			return
		}
		args = append(args,
			slog.String("outcome", string(resp.Outcome)),
			slog.Float64("score", resp.Score),
		)
		lm.logger.Info("Check drift completed successfully", args...)
	}(time.Now())

	return lm.svc.CheckDrift(ctx, spec)
}

func (lm *loggingMiddleware) ListDecisions(ctx context.Context, offset, limit uint64) (resp manager.DecisionPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List decisions failed", args...)

			return
		}
		lm.logger.Info("List decisions completed successfully", args...)
	}(time.Now())

	return lm.svc.ListDecisions(ctx, offset, limit)
}

func (lm *loggingMiddleware) Subscribe(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Subscribe failed", args...)

			return
		}
		lm.logger.Info("Subscribe completed successfully", args...)
	}(time.Now())

	return lm.svc.Subscribe(ctx)
}
