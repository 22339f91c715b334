package manager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/pkg/mqtt"
)

// eventEmitter publishes session lifecycle events on the manager's channel.
// With a nil publisher it degrades to a no-op so the service can run without
// a broker, as in tests and the CLI's local mode.
type eventEmitter struct {
	publisher mqtt.PubSub
	channelID string
	logger    *slog.Logger
}

func newEventEmitter(publisher mqtt.PubSub, channelID string, logger *slog.Logger) coordinator.Emitter {
	return &eventEmitter{
		publisher: publisher,
		channelID: channelID,
		logger:    logger,
	}
}

func (e *eventEmitter) EmitRoundCompleted(ctx context.Context, sessionID string, round coordinator.RoundLog) error {
	return e.publish(ctx, "events/session/round", map[string]any{
		"session_id": sessionID,
		"event":      "round_completed",
		"round":      round,
	})
}

func (e *eventEmitter) EmitRoundAborted(ctx context.Context, sessionID string, round coordinator.RoundLog) error {
	return e.publish(ctx, "events/session/round", map[string]any{
		"session_id": sessionID,
		"event":      "round_aborted",
		"round":      round,
	})
}

func (e *eventEmitter) EmitSessionCompleted(ctx context.Context, session coordinator.Session) error {
	return e.publish(ctx, "events/session/completed", map[string]any{
		"session_id": session.ID,
		"event":      "session_completed",
		"session":    session,
	})
}

func (e *eventEmitter) publish(ctx context.Context, subtopic string, payload map[string]any) error {
	if e.publisher == nil {
		return nil
	}

	topic := fmt.Sprintf("channels/%s/messages/%s", e.channelID, subtopic)
	if err := e.publisher.Publish(ctx, topic, payload); err != nil {
		return err
	}

	return nil
}
