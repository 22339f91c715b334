package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fedwatch/fedwatch/client"
	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/drift"
	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/pkg/errors"
	"github.com/fedwatch/fedwatch/pkg/fl"
	"github.com/fedwatch/fedwatch/pkg/mqtt"
	"github.com/fedwatch/fedwatch/pkg/storage"
	"github.com/fedwatch/fedwatch/simulator"
	"github.com/fedwatch/fedwatch/trigger"
)

const (
	defOffset = 0
	defLimit  = 100

	dateLayout = "2006-01-02"
)

// Config carries the service defaults. Zero values are filled in by
// NewService.
type Config struct {
	DefaultRounds          int
	DefaultMinParticipants int
	DefaultRoundTimeout    time.Duration
	DriftThreshold         float64
	ReferenceDate          string
	NodeID                 string
	NumPatients            int
	NumSensors             int
	ParticipantTimeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultRounds <= 0 {
		c.DefaultRounds = 10
	}
	if c.DefaultMinParticipants <= 0 {
		c.DefaultMinParticipants = 2
	}
	if c.DefaultRoundTimeout <= 0 {
		c.DefaultRoundTimeout = coordinator.DefaultRoundTimeout
	}
	if c.DriftThreshold <= 0 {
		c.DriftThreshold = 0.5
	}
	if c.ReferenceDate == "" {
		c.ReferenceDate = "2024-01-14"
	}
	if c.NodeID == "" {
		c.NodeID = "hospital_01"
	}
	if c.NumPatients <= 0 {
		c.NumPatients = simulator.DefaultNumPatients
	}
	if c.NumSensors <= 0 {
		c.NumSensors = simulator.DefaultNumSensors
	}
	if c.ParticipantTimeout <= 0 {
		c.ParticipantTimeout = 30 * time.Second
	}

	return c
}

type service struct {
	cfg            Config
	participantsDB storage.Storage
	sessionsDB     storage.Storage
	decisionsDB    storage.Storage
	checkpoints    *fl.CheckpointStore
	publisher      mqtt.PubSub
	channelID      string
	emitter        coordinator.Emitter
	wear           *simulator.WearableSimulator
	env            *simulator.EnvironmentalSimulator
	logger         *slog.Logger

	// modelMu guards the registry; sessionMu serializes training sessions
	// so the global model advances one version at a time.
	modelMu   sync.Mutex
	models    []ModelVersion
	sessionMu sync.Mutex
	checkMu   sync.Mutex
}

func NewService(
	cfg Config,
	participantsDB, sessionsDB, decisionsDB storage.Storage,
	checkpoints *fl.CheckpointStore,
	publisher mqtt.PubSub,
	channelID string,
	logger *slog.Logger,
) (Service, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	svc := &service{
		cfg:            cfg,
		participantsDB: participantsDB,
		sessionsDB:     sessionsDB,
		decisionsDB:    decisionsDB,
		checkpoints:    checkpoints,
		publisher:      publisher,
		channelID:      channelID,
		wear:           simulator.NewWearableSimulator(cfg.NumPatients),
		env:            simulator.NewEnvironmentalSimulator(cfg.NumSensors),
		logger:         logger,
	}
	svc.emitter = newEventEmitter(publisher, channelID, logger)

	if err := svc.loadModels(); err != nil {
		return nil, err
	}

	return svc, nil
}

// loadModels restores the registry from checkpoints, seeding version 0
// when the store is empty.
func (svc *service) loadModels() error {
	svc.modelMu.Lock()
	defer svc.modelMu.Unlock()

	if svc.checkpoints != nil {
		versions, err := svc.checkpoints.ListModels()
		if err != nil {
			return fmt.Errorf("failed to list model checkpoints: %w", err)
		}
		for _, v := range versions {
			params, err := svc.checkpoints.LoadModel(v)
			if err != nil {
				return fmt.Errorf("failed to load model v%d: %w", v, err)
			}
			svc.models = append(svc.models, ModelVersion{Version: v, Parameters: params})
		}
	}

	if len(svc.models) == 0 {
		initial := ModelVersion{
			Version:    0,
			Parameters: client.InitialModel(),
			CreatedAt:  time.Now().UTC(),
		}
		svc.models = append(svc.models, initial)
		if svc.checkpoints != nil {
			if err := svc.checkpoints.SaveModel(0, initial.Parameters); err != nil {
				return fmt.Errorf("failed to checkpoint initial model: %w", err)
			}
		}
	}

	return nil
}

func (svc *service) GetParticipant(ctx context.Context, participantID string) (participant.Participant, error) {
	data, err := svc.participantsDB.Get(ctx, participantID)
	if err != nil {
		return participant.Participant{}, err
	}
	p, ok := data.(participant.Participant)
	if !ok {
		return participant.Participant{}, errors.ErrInvalidData
	}
	p.SetAlive()

	return p, nil
}

func (svc *service) ListParticipants(ctx context.Context, offset, limit uint64) (participant.ParticipantPage, error) {
	data, total, err := svc.participantsDB.List(ctx, offset, limit)
	if err != nil {
		return participant.ParticipantPage{}, err
	}
	participants := make([]participant.Participant, len(data))
	for i := range data {
		p, ok := data[i].(participant.Participant)
		if !ok {
			return participant.ParticipantPage{}, errors.ErrInvalidData
		}
		p.SetAlive()
		participants[i] = p
	}

	return participant.ParticipantPage{
		Offset:       offset,
		Limit:        limit,
		Total:        total,
		Participants: participants,
	}, nil
}

func (svc *service) DeleteParticipant(ctx context.Context, participantID string) error {
	return svc.participantsDB.Delete(ctx, participantID)
}

func (svc *service) GetModel(_ context.Context, version int) (ModelVersion, error) {
	svc.modelMu.Lock()
	defer svc.modelMu.Unlock()

	for _, m := range svc.models {
		if m.Version == version {
			return m, nil
		}
	}

	return ModelVersion{}, errors.ErrNotFound
}

func (svc *service) LatestModel(_ context.Context) (ModelVersion, error) {
	svc.modelMu.Lock()
	defer svc.modelMu.Unlock()

	if len(svc.models) == 0 {
		return ModelVersion{}, errors.ErrNotFound
	}

	latest := svc.models[0]
	for _, m := range svc.models[1:] {
		if m.Version > latest.Version {
			latest = m
		}
	}

	return latest, nil
}

func (svc *service) ListModels(_ context.Context, offset, limit uint64) (ModelPage, error) {
	svc.modelMu.Lock()
	defer svc.modelMu.Unlock()

	total := uint64(len(svc.models))
	if offset >= total {
		return ModelPage{Offset: offset, Limit: limit, Total: total}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	models := make([]ModelVersion, end-offset)
	copy(models, svc.models[offset:end])

	return ModelPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Models: models,
	}, nil
}

func (svc *service) RunTrainingSession(ctx context.Context, spec SessionSpec) (coordinator.Session, error) {
	svc.sessionMu.Lock()
	defer svc.sessionMu.Unlock()

	if spec.Rounds <= 0 {
		spec.Rounds = svc.cfg.DefaultRounds
	}
	if spec.MinParticipants <= 0 {
		spec.MinParticipants = svc.cfg.DefaultMinParticipants
	}
	timeout := svc.cfg.DefaultRoundTimeout
	if spec.TimeoutSeconds > 0 {
		timeout = time.Duration(spec.TimeoutSeconds) * time.Second
	}
	if spec.Date == "" {
		spec.Date = time.Now().UTC().Format(dateLayout)
	}

	pool, err := svc.buildPool(ctx, spec.Date)
	if err != nil {
		return coordinator.Session{}, err
	}
	if len(pool) < spec.MinParticipants {
		return coordinator.Session{}, fmt.Errorf("%w: %d alive, need %d",
			errors.ErrInsufficientParticipants, len(pool), spec.MinParticipants)
	}

	latest, err := svc.LatestModel(ctx)
	if err != nil {
		return coordinator.Session{}, err
	}

	c, err := coordinator.New(coordinator.Config{
		Rounds:          spec.Rounds,
		MinParticipants: spec.MinParticipants,
		RoundTimeout:    timeout,
		Evaluate:        spec.Evaluate,
		Emitter:         svc.emitter,
		Logger:          svc.logger,
	})
	if err != nil {
		return coordinator.Session{}, err
	}

	session, err := c.RunSession(ctx, latest.Parameters, pool)
	if err != nil {
		return session, err
	}

	if session.CompletedRounds > 0 {
		if err := svc.storeModel(session, latest.Version+1); err != nil {
			return session, err
		}
	}

	svc.storeSession(ctx, session)

	return session, nil
}

func (svc *service) storeModel(session coordinator.Session, version int) error {
	svc.modelMu.Lock()
	defer svc.modelMu.Unlock()

	svc.models = append(svc.models, ModelVersion{
		Version:    version,
		Parameters: session.Global,
		SessionID:  session.ID,
		CreatedAt:  time.Now().UTC(),
	})

	if svc.checkpoints != nil {
		if err := svc.checkpoints.SaveModel(version, session.Global); err != nil {
			return fmt.Errorf("failed to checkpoint model v%d: %w", version, err)
		}
	}

	return nil
}

func (svc *service) storeSession(ctx context.Context, session coordinator.Session) {
	key := session.StartedAt.Format(time.RFC3339Nano) + "-" + session.ID
	if err := svc.sessionsDB.Create(ctx, key, session); err != nil {
		svc.logger.Warn("failed to store session record",
			slog.String("session_id", session.ID),
			slog.Any("error", err),
		)
	}
	if svc.checkpoints != nil {
		if err := svc.checkpoints.SaveSession(session.ID, session); err != nil {
			svc.logger.Warn("failed to checkpoint session record",
				slog.String("session_id", session.ID),
				slog.Any("error", err),
			)
		}
	}
}

// buildPool assembles coordinator participants from the alive registry
// entries. Sites with an endpoint are reached over HTTP; the rest train
// in process on their node's simulated data.
func (svc *service) buildPool(ctx context.Context, date string) ([]coordinator.Participant, error) {
	page, err := svc.ListParticipants(ctx, defOffset, defLimit)
	if err != nil {
		return nil, err
	}

	var pool []coordinator.Participant
	for _, p := range page.Participants {
		if !p.Alive {
			continue
		}
		nodeID := p.NodeID
		if nodeID == "" {
			nodeID = p.ID
		}
		if p.Endpoint != "" {
			pool = append(pool, client.NewHTTP(p.ID, p.Endpoint, svc.cfg.ParticipantTimeout))
		} else {
			pool = append(pool, client.NewLocal(p.ID, nodeID, date, svc.wear, svc.env))
		}
	}

	return pool, nil
}

// GetSession scans the whole store page by page: session records are keyed
// by start time, so the ID is not a direct lookup key.
func (svc *service) GetSession(ctx context.Context, sessionID string) (coordinator.Session, error) {
	for offset := uint64(defOffset); ; offset += defLimit {
		data, total, err := svc.sessionsDB.List(ctx, offset, defLimit)
		if err != nil {
			return coordinator.Session{}, err
		}
		for i := range data {
			s, ok := data[i].(coordinator.Session)
			if !ok {
				return coordinator.Session{}, errors.ErrInvalidData
			}
			if s.ID == sessionID {
				return s, nil
			}
		}
		if len(data) == 0 || offset+uint64(len(data)) >= total {
			break
		}
	}

	return coordinator.Session{}, errors.ErrNotFound
}

func (svc *service) ListSessions(ctx context.Context, offset, limit uint64) (SessionPage, error) {
	data, total, err := svc.sessionsDB.List(ctx, offset, limit)
	if err != nil {
		return SessionPage{}, err
	}
	sessions := make([]coordinator.Session, len(data))
	for i := range data {
		s, ok := data[i].(coordinator.Session)
		if !ok {
			return SessionPage{}, errors.ErrInvalidData
		}
		sessions[i] = s
	}

	return SessionPage{
		Offset:   offset,
		Limit:    limit,
		Total:    total,
		Sessions: sessions,
	}, nil
}

func (svc *service) CheckDrift(ctx context.Context, spec DriftCheckSpec) (trigger.Decision, error) {
	if !svc.checkMu.TryLock() {
		return trigger.Decision{}, trigger.ErrCheckInProgress
	}
	defer svc.checkMu.Unlock()

	if spec.ReferenceDate == "" {
		spec.ReferenceDate = svc.cfg.ReferenceDate
	}
	if spec.CurrentDate == "" {
		spec.CurrentDate = time.Now().UTC().Format(dateLayout)
	}
	if spec.NodeID == "" {
		spec.NodeID = svc.cfg.NodeID
	}
	if spec.Threshold <= 0 {
		spec.Threshold = svc.cfg.DriftThreshold
	}

	reference, err := simulator.MergedDaily(svc.wear, svc.env, spec.ReferenceDate, spec.NodeID)
	if err != nil {
		return trigger.Decision{}, fmt.Errorf("failed to generate reference data: %w", err)
	}
	current, err := simulator.MergedDaily(svc.wear, svc.env, spec.CurrentDate, spec.NodeID)
	if err != nil {
		return trigger.Decision{}, fmt.Errorf("failed to generate current data: %w", err)
	}

	monitor, err := drift.NewMonitor(reference.Drop(simulator.LabelColumn))
	if err != nil {
		return trigger.Decision{}, err
	}

	retrainer := trigger.RetrainerFunc(func(ctx context.Context) error {
		session, err := svc.RunTrainingSession(ctx, SessionSpec{Date: spec.CurrentDate})
		if err != nil {
			return err
		}
		if session.CompletedRounds == 0 {
			return fmt.Errorf("%w: no round completed", errors.ErrInsufficientParticipants)
		}

		return nil
	})

	trig, err := trigger.New(monitor, retrainer,
		trigger.WithRecorder(recorderFunc(svc.recordDecision)),
		trigger.WithLogger(svc.logger),
	)
	if err != nil {
		return trigger.Decision{}, err
	}

	return trig.Check(ctx, current.Drop(simulator.LabelColumn), spec.Threshold, spec.TriggerRetraining)
}

type recorderFunc func(ctx context.Context, decision trigger.Decision) error

func (f recorderFunc) Record(ctx context.Context, decision trigger.Decision) error {
	return f(ctx, decision)
}

func (svc *service) recordDecision(ctx context.Context, decision trigger.Decision) error {
	key := decision.CheckedAt.Format(time.RFC3339Nano) + "-" + decision.ID
	if err := svc.decisionsDB.Create(ctx, key, decision); err != nil {
		return err
	}

	if svc.publisher != nil {
		topic := fmt.Sprintf("channels/%s/messages/events/drift/decision", svc.channelID)
		if err := svc.publisher.Publish(ctx, topic, decision); err != nil {
			svc.logger.Warn("failed to publish drift decision",
				slog.String("decision_id", decision.ID),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

func (svc *service) ListDecisions(ctx context.Context, offset, limit uint64) (DecisionPage, error) {
	data, total, err := svc.decisionsDB.List(ctx, offset, limit)
	if err != nil {
		return DecisionPage{}, err
	}
	decisions := make([]trigger.Decision, len(data))
	for i := range data {
		d, ok := data[i].(trigger.Decision)
		if !ok {
			return DecisionPage{}, errors.ErrInvalidData
		}
		decisions[i] = d
	}

	return DecisionPage{
		Offset:    offset,
		Limit:     limit,
		Total:     total,
		Decisions: decisions,
	}, nil
}

func (svc *service) Subscribe(ctx context.Context) error {
	if svc.publisher == nil {
		return nil
	}

	return Subscribe(ctx, svc.channelID, svc.publisher, svc.participantsDB, svc.logger)
}
