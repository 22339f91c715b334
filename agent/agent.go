package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fedwatch/fedwatch/client"
	"github.com/fedwatch/fedwatch/pkg/mqtt"
	"github.com/fedwatch/fedwatch/simulator"
)

const (
	defLivenessInterval = 10 * time.Second
	defNumPatients      = 500
	defNumSensors       = 20

	discoveryTopicTemplate = "channels/%s/messages/control/participant/create"
	aliveTopicTemplate     = "channels/%s/messages/control/participant/alive"
)

// Config describes one participant node agent. ID, NodeID and ChannelID are
// required; everything else has a default.
type Config struct {
	ID               string
	Name             string
	NodeID           string
	Endpoint         string
	ChannelID        string
	DataDate         string
	LivenessInterval time.Duration
	NumPatients      int
	NumSensors       int
	Epochs           int
	LearningRate     float64
}

// Agent hosts local training for one site. It announces itself to the
// manager over MQTT and serves fit and evaluate requests over HTTP.
type Agent struct {
	cfg    Config
	wear   *simulator.WearableSimulator
	env    *simulator.EnvironmentalSimulator
	pubsub mqtt.PubSub
	logger *slog.Logger
}

func New(cfg Config, pubsub mqtt.PubSub, logger *slog.Logger) (*Agent, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	if cfg.NodeID == "" {
		return nil, fmt.Errorf("agent node id is required")
	}
	if cfg.LivenessInterval <= 0 {
		cfg.LivenessInterval = defLivenessInterval
	}
	if cfg.NumPatients <= 0 {
		cfg.NumPatients = defNumPatients
	}
	if cfg.NumSensors <= 0 {
		cfg.NumSensors = defNumSensors
	}

	return &Agent{
		cfg:    cfg,
		wear:   simulator.NewWearableSimulator(cfg.NumPatients),
		env:    simulator.NewEnvironmentalSimulator(cfg.NumSensors),
		pubsub: pubsub,
		logger: logger,
	}, nil
}

// Announce publishes the discovery message so the manager registers this
// agent before the first session invites it.
func (a *Agent) Announce(ctx context.Context) error {
	if a.pubsub == nil {
		return nil
	}

	topic := fmt.Sprintf(discoveryTopicTemplate, a.cfg.ChannelID)
	payload := map[string]any{
		"participant_id": a.cfg.ID,
		"name":           a.cfg.Name,
		"node_id":        a.cfg.NodeID,
		"endpoint":       a.cfg.Endpoint,
	}

	return a.pubsub.Publish(ctx, topic, payload)
}

// StartLivenessUpdates blocks, publishing alive messages until ctx is done.
func (a *Agent) StartLivenessUpdates(ctx context.Context) {
	if a.pubsub == nil {
		return
	}

	ticker := time.NewTicker(a.cfg.LivenessInterval)
	defer ticker.Stop()

	topic := fmt.Sprintf(aliveTopicTemplate, a.cfg.ChannelID)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("stopping liveness updates")

			return
		case <-ticker.C:
			payload := map[string]any{
				"status":         "alive",
				"participant_id": a.cfg.ID,
			}

			if err := a.pubsub.Publish(ctx, topic, payload); err != nil {
				a.logger.Error("failed to publish liveness message", slog.Any("error", err))
			}

			a.logger.Debug("published liveness message", slog.String("topic", topic))
		}
	}
}

// participant builds the trainer for the agent's current data date. With no
// fixed date configured each request trains on today's data.
func (a *Agent) participant() *client.Local {
	date := a.cfg.DataDate
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	opts := []client.LocalOption{}
	if a.cfg.Epochs > 0 {
		opts = append(opts, client.WithEpochs(a.cfg.Epochs))
	}
	if a.cfg.LearningRate > 0 {
		opts = append(opts, client.WithLearningRate(a.cfg.LearningRate))
	}

	return client.NewLocal(a.cfg.ID, a.cfg.NodeID, date, a.wear, a.env, opts...)
}
