package manager

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/0x6flab/namegenerator"

	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/pkg/mqtt"
	"github.com/fedwatch/fedwatch/pkg/storage"
)

const aliveHistoryLimit = 10

var namegen = namegenerator.NewGenerator()

func Subscribe(ctx context.Context, channelID string, pubsub mqtt.PubSub, participantsDB storage.Storage, logger *slog.Logger) error {
	baseTopic := "channels/" + channelID + "/messages"
	topic := baseTopic + "/#"

	if err := pubsub.Subscribe(ctx, topic, Handle(ctx, baseTopic, participantsDB, logger)); err != nil {
		return err
	}

	return nil
}

func Handle(ctx context.Context, baseTopic string, participantsDB storage.Storage, logger *slog.Logger) mqtt.Handler {
	return func(topic string, msg map[string]any) error {
		switch topic {
		case baseTopic + "/control/participant/create":
			if err := createParticipant(ctx, msg, participantsDB); err != nil {
				return err
			}

			logger.InfoContext(ctx, "successfully registered participant")
		case baseTopic + "/control/participant/alive":
			return updateLiveness(ctx, msg, participantsDB)
		}

		return nil
	}
}

func createParticipant(ctx context.Context, msg map[string]any, participantsDB storage.Storage) error {
	participantID, ok := msg["participant_id"].(string)
	if !ok {
		return errors.New("invalid participant_id")
	}
	if participantID == "" {
		return errors.New("participant id is empty")
	}
	name, ok := msg["name"].(string)
	if !ok || name == "" {
		name = namegen.Generate()
	}
	nodeID, ok := msg["node_id"].(string)
	if !ok {
		nodeID = ""
	}
	endpoint, ok := msg["endpoint"].(string)
	if !ok {
		endpoint = ""
	}

	p := participant.Participant{
		ID:       participantID,
		Name:     name,
		NodeID:   nodeID,
		Endpoint: endpoint,
	}
	if err := participantsDB.Create(ctx, p.ID, p); err != nil {
		return err
	}

	return nil
}

func updateLiveness(ctx context.Context, msg map[string]any, participantsDB storage.Storage) error {
	participantID, ok := msg["participant_id"].(string)
	if !ok {
		return errors.New("invalid participant_id")
	}
	if participantID == "" {
		return errors.New("participant id is empty")
	}
	data, err := participantsDB.Get(ctx, participantID)
	if err != nil {
		return err
	}
	p, ok := data.(participant.Participant)
	if !ok {
		return errors.New("invalid participant data")
	}

	// The broker's last-will message reports the site as offline. Dropping
	// the heartbeat history takes the site out of the pool immediately
	// instead of after the liveness window runs out.
	if status, ok := msg["status"].(string); ok && status == "offline" {
		p.Alive = false
		p.AliveHistory = nil

		return participantsDB.Update(ctx, participantID, p)
	}

	p.Alive = true
	p.AliveHistory = append(p.AliveHistory, time.Now())
	if len(p.AliveHistory) > aliveHistoryLimit {
		p.AliveHistory = p.AliveHistory[1:]
	}
	if err := participantsDB.Update(ctx, participantID, p); err != nil {
		return err
	}

	return nil
}
