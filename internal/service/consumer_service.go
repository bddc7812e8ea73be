// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"oral-coach-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// SessionNotifier pushes a frame to the live connections of a session.
// Satisfied by the websocket hub.
type SessionNotifier interface {
	SendToSession(sessionKey string, data []byte)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	notifier  SessionNotifier
	log       logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	notifier SessionNotifier,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		notifier:  notifier,
		log:       log,
	}
}

// Consume forwards session lifecycle events to the session's live voice
// connection, so a client hears about completion and scoring in-band.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Ack unconditionally: a session event is a best-effort notification,
	// retrying it after the session is gone helps nobody.
	defer msg.Ack()

	eventType := msg.Metadata.Get("event_type")

	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("Consumer", "Failed to unmarshal session event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
		return
	}

	sessionKey, _ := payload["session_key"].(string)
	if sessionKey == "" {
		cs.log.Warn("Consumer", "Session event without session_key", map[string]interface{}{
			"event": eventType,
		})
		return
	}

	frame, err := json.Marshal(map[string]interface{}{
		"type":  "session_event",
		"event": eventType,
		"data":  payload,
	})
	if err != nil {
		return
	}

	cs.log.Info("Consumer", "Forwarding session event", map[string]interface{}{
		"event":       eventType,
		"session_key": sessionKey,
	})
	cs.notifier.SendToSession(sessionKey, frame)
}
