// Package coordinator runs federated training sessions: it fans a global
// model out to participants, collects their updates under a round deadline,
// and folds accepted updates back into the global model once per round.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fedwatch/fedwatch/pkg/fl"
)

const DefaultRoundTimeout = 60 * time.Second

type Config struct {
	Rounds          int
	MinParticipants int
	RoundTimeout    time.Duration
	Evaluate        bool
	Aggregator      fl.Aggregator
	Emitter         Emitter
	Logger          *slog.Logger
}

type Coordinator struct {
	cfg Config
}

func New(cfg Config) (*Coordinator, error) {
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", cfg.Rounds)
	}
	if cfg.MinParticipants <= 0 {
		return nil, fmt.Errorf("min participants must be positive, got %d", cfg.MinParticipants)
	}
	if cfg.RoundTimeout <= 0 {
		cfg.RoundTimeout = DefaultRoundTimeout
	}
	if cfg.Aggregator == nil {
		cfg.Aggregator = fl.NewFedAvgAggregator()
	}
	if cfg.Emitter == nil {
		cfg.Emitter = noopEmitter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Coordinator{cfg: cfg}, nil
}

type fitOutcome struct {
	participantID string
	result        fl.FitResult
	err           error
}

// RunSession runs the configured number of rounds starting from global and
// returns the session record. An aborted round leaves the global untouched
// and the session continues; cancellation stops the session between rounds
// and discards any round still in flight.
func (c *Coordinator) RunSession(ctx context.Context, global fl.ParameterSet, pool []Participant) (Session, error) {
	if err := global.Validate(); err != nil {
		return Session{}, fmt.Errorf("invalid initial model: %w", err)
	}

	session := Session{
		ID:        uuid.NewString(),
		Global:    global,
		StartedAt: time.Now().UTC(),
	}
	logger := c.cfg.Logger.With(slog.String("session_id", session.ID))

	for round := 1; round <= c.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			session.CompletedAt = time.Now().UTC()

			return session, err
		}

		log, updated, err := c.runRound(ctx, round, session.Global, pool, logger)
		if err != nil {
			session.CompletedAt = time.Now().UTC()

			return session, err
		}

		session.Rounds = append(session.Rounds, log)
		if log.Outcome == RoundAborted {
			session.AbortedRounds++
			logger.Warn("round aborted",
				slog.Int("round", round),
				slog.Int("accepted", len(log.Used)),
				slog.Int("required", c.cfg.MinParticipants),
			)
			if err := c.cfg.Emitter.EmitRoundAborted(ctx, session.ID, log); err != nil {
				logger.Warn("failed to emit round aborted event", slog.Any("error", err))
			}

			continue
		}

		session.Global = updated
		session.CompletedRounds++
		logger.Info("round completed",
			slog.Int("round", round),
			slog.Int("invited", log.Invited),
			slog.Int("used", len(log.Used)),
			slog.Int("excluded", len(log.Excluded)),
		)
		if err := c.cfg.Emitter.EmitRoundCompleted(ctx, session.ID, log); err != nil {
			logger.Warn("failed to emit round completed event", slog.Any("error", err))
		}
	}

	session.CompletedAt = time.Now().UTC()
	if err := c.cfg.Emitter.EmitSessionCompleted(ctx, session); err != nil {
		logger.Warn("failed to emit session completed event", slog.Any("error", err))
	}

	return session, nil
}

func (c *Coordinator) runRound(
	ctx context.Context,
	round int,
	global fl.ParameterSet,
	pool []Participant,
	logger *slog.Logger,
) (RoundLog, fl.ParameterSet, error) {
	log := RoundLog{
		Round:     round,
		Invited:   len(pool),
		StartedAt: time.Now().UTC(),
	}

	roundCtx, cancel := context.WithTimeout(ctx, c.cfg.RoundTimeout)
	outcomes := c.fanOutFit(roundCtx, global, pool)
	cancel()

	// A cancelled parent discards the whole round: the global model is
	// never updated from a partially collected round.
	if err := ctx.Err(); err != nil {
		return RoundLog{}, nil, err
	}

	var accepted []fl.FitResult
	for _, o := range outcomes {
		if o.err != nil {
			reason := ExcludedError
			if errors.Is(o.err, context.DeadlineExceeded) {
				reason = ExcludedTimeout
			}
			log.Excluded = append(log.Excluded, Exclusion{
				ParticipantID: o.participantID,
				Reason:        reason,
				Detail:        o.err.Error(),
			})

			continue
		}

		result := o.result
		if result.ParticipantID == "" {
			result.ParticipantID = o.participantID
		}
		if result.ReceivedAt.IsZero() {
			result.ReceivedAt = time.Now().UTC()
		}

		switch verr := result.Parameters.Validate(); {
		case result.NumExamples <= 0:
			log.Excluded = append(log.Excluded, Exclusion{
				ParticipantID: o.participantID,
				Reason:        ExcludedInvalid,
				Detail:        fmt.Sprintf("reported %d examples", result.NumExamples),
			})
		case verr != nil:
			log.Excluded = append(log.Excluded, Exclusion{
				ParticipantID: o.participantID,
				Reason:        ExcludedInvalid,
				Detail:        verr.Error(),
			})
		case !global.Compatible(result.Parameters):
			log.Excluded = append(log.Excluded, Exclusion{
				ParticipantID: o.participantID,
				Reason:        ExcludedIncompatible,
			})
		default:
			accepted = append(accepted, result)
		}
	}

	used := make([]string, 0, len(accepted))
	for _, r := range accepted {
		used = append(used, r.ParticipantID)
	}
	log.Used = used

	if len(accepted) < c.cfg.MinParticipants {
		log.Outcome = RoundAborted
		log.CompletedAt = time.Now().UTC()

		return log, nil, nil
	}

	updated, err := c.cfg.Aggregator.Aggregate(accepted)
	if err != nil {
		return RoundLog{}, nil, fmt.Errorf("round %d aggregation: %w", round, err)
	}

	log.Outcome = RoundCompleted

	if c.cfg.Evaluate {
		loss, metrics := c.evaluateRound(ctx, updated, pool, logger.With(slog.Int("round", round)))
		log.EvalLoss = loss
		log.EvalMetrics = metrics
	}

	log.CompletedAt = time.Now().UTC()

	return log, updated, nil
}

// fanOutFit broadcasts the global model and collects updates until every
// participant responds or ctx expires. A participant still running at the
// deadline is recorded as timed out even if its Fit never observes the
// cancellation; the straggler goroutine drains into the buffered channel
// and its late result is discarded.
func (c *Coordinator) fanOutFit(ctx context.Context, global fl.ParameterSet, pool []Participant) []fitOutcome {
	type indexed struct {
		i       int
		outcome fitOutcome
	}

	results := make(chan indexed, len(pool))
	for i, p := range pool {
		go func(i int, p Participant) {
			result, err := p.Fit(ctx, global.Clone())
			results <- indexed{i: i, outcome: fitOutcome{participantID: p.ID(), result: result, err: err}}
		}(i, p)
	}

	outcomes := make([]fitOutcome, len(pool))
	responded := make([]bool, len(pool))
	for collected := 0; collected < len(pool); collected++ {
		select {
		case r := <-results:
			outcomes[r.i] = r.outcome
			responded[r.i] = true
		case <-ctx.Done():
			for i, p := range pool {
				if !responded[i] {
					outcomes[i] = fitOutcome{participantID: p.ID(), err: ctx.Err()}
				}
			}

			return outcomes
		}
	}

	return outcomes
}

// evaluateRound broadcasts the freshly aggregated model for evaluation.
// Failures are logged and skipped; they never fail the round.
func (c *Coordinator) evaluateRound(
	ctx context.Context,
	global fl.ParameterSet,
	pool []Participant,
	logger *slog.Logger,
) (float64, map[string]float64) {
	evalCtx, cancel := context.WithTimeout(ctx, c.cfg.RoundTimeout)
	defer cancel()

	type indexed struct {
		i      int
		result fl.EvalResult
		err    error
	}

	ch := make(chan indexed, len(pool))
	for i, p := range pool {
		go func(i int, p Participant) {
			result, err := p.Evaluate(evalCtx, global.Clone())
			ch <- indexed{i: i, result: result, err: err}
		}(i, p)
	}

	results := make([]fl.EvalResult, len(pool))
	errs := make([]error, len(pool))
	responded := make([]bool, len(pool))
collect:
	for collected := 0; collected < len(pool); collected++ {
		select {
		case r := <-ch:
			results[r.i] = r.result
			errs[r.i] = r.err
			responded[r.i] = true
		case <-evalCtx.Done():
			for i := range pool {
				if !responded[i] {
					errs[i] = evalCtx.Err()
				}
			}

			break collect
		}
	}

	var lossSum float64
	var weight int
	metricSums := make(map[string]float64)
	for i := range results {
		if errs[i] != nil {
			logger.Warn("evaluation failed",
				slog.String("participant_id", pool[i].ID()),
				slog.Any("error", errs[i]),
			)

			continue
		}
		if results[i].NumExamples <= 0 {
			continue
		}

		w := float64(results[i].NumExamples)
		lossSum += results[i].Loss * w
		weight += results[i].NumExamples
		for k, v := range results[i].Metrics {
			metricSums[k] += v * w
		}
	}

	if weight == 0 {
		return 0, nil
	}

	norm := float64(weight)
	metrics := make(map[string]float64, len(metricSums))
	for k, v := range metricSums {
		metrics[k] = v / norm
	}

	return lossSum / norm, metrics
}
