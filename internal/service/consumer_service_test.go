package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"oral-coach-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type notifiedFrame struct {
	sessionKey string
	data       []byte
}

type capturingNotifier struct {
	frames chan notifiedFrame
}

func (n *capturingNotifier) SendToSession(sessionKey string, data []byte) {
	n.frames <- notifiedFrame{sessionKey: sessionKey, data: data}
}

func publishEventMessage(t *testing.T, bus *gochannel.GoChannel, topic, eventType string, payload []byte) {
	t.Helper()
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("event_type", eventType)
	assert.NoError(t, bus.Publish(topic, msg))
}

func TestConsumerForwardsSessionEventsToHub(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	notifier := &capturingNotifier{frames: make(chan notifiedFrame, 4)}
	consumer := NewConsumerService(bus, "oral_session_events", notifier, nopLogger{})
	assert.NoError(t, consumer.Consume(context.Background()))

	payload, _ := json.Marshal(map[string]interface{}{
		"session_key": "oral_1_aaaaaa",
		"composite":   70,
		"level":       "B",
	})
	publishEventMessage(t, bus, "oral_session_events", events.TypeSessionScored, payload)

	select {
	case frame := <-notifier.frames:
		assert.Equal(t, "oral_1_aaaaaa", frame.sessionKey)
		var decoded map[string]interface{}
		assert.NoError(t, json.Unmarshal(frame.data, &decoded))
		assert.Equal(t, "session_event", decoded["type"])
		assert.Equal(t, events.TypeSessionScored, decoded["event"])
		data, _ := decoded["data"].(map[string]interface{})
		assert.Equal(t, float64(70), data["composite"])
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the notifier")
	}
}

func TestConsumerSkipsUndeliverableEvents(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	notifier := &capturingNotifier{frames: make(chan notifiedFrame, 4)}
	consumer := NewConsumerService(bus, "oral_session_events", notifier, nopLogger{})
	assert.NoError(t, consumer.Consume(context.Background()))

	// Malformed payload and a payload with no session key are both acked
	// and dropped; the well-formed event behind them still gets through.
	publishEventMessage(t, bus, "oral_session_events", events.TypeSessionCompleted, []byte("{not json"))
	publishEventMessage(t, bus, "oral_session_events", events.TypeSessionCompleted, []byte(`{"user_id":"u-1"}`))

	payload, _ := json.Marshal(map[string]interface{}{"session_key": "oral_2_bbbbbb"})
	publishEventMessage(t, bus, "oral_session_events", events.TypeSessionAbandoned, payload)

	select {
	case frame := <-notifier.frames:
		assert.Equal(t, "oral_2_bbbbbb", frame.sessionKey)
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the notifier")
	}
	assert.Empty(t, notifier.frames)
}
