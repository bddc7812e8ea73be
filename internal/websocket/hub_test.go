package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func clientCount(h *Hub, sessionKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionKey])
}

func TestSendToSessionDeliversToLocalClient(t *testing.T) {
	h := NewHub(nil, nopLogger{})
	go h.Run()

	c := &Client{Hub: h, SessionKey: "oral_1_aaaaaa", Send: make(chan []byte, 4)}
	h.register <- c
	waitFor(t, func() bool { return clientCount(h, "oral_1_aaaaaa") == 1 })

	h.SendToSession("oral_1_aaaaaa", []byte("frame"))

	select {
	case got := <-c.Send:
		assert.Equal(t, []byte("frame"), got)
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
}

func TestSendToSessionStalledClientUnregistersOnce(t *testing.T) {
	h := NewHub(nil, nopLogger{})
	go h.Run()

	// Unbuffered Send stalls on the first frame.
	c := &Client{Hub: h, SessionKey: "oral_2_bbbbbb", Send: make(chan []byte)}
	h.register <- c
	waitFor(t, func() bool { return clientCount(h, "oral_2_bbbbbb") == 1 })

	h.SendToSession("oral_2_bbbbbb", []byte{0x01})
	waitFor(t, func() bool { return clientCount(h, "oral_2_bbbbbb") == 0 })

	// The unregister handler is the single closer of Send. A second close
	// anywhere would panic the hub goroutine and fail this test.
	_, open := <-c.Send
	assert.False(t, open)

	// Frames to the now-empty session are dropped quietly.
	h.SendToSession("oral_2_bbbbbb", []byte{0x02})
	assert.Equal(t, 0, clientCount(h, "oral_2_bbbbbb"))
}

func TestRelayedFramePreservesBinaryPayload(t *testing.T) {
	audio := []byte{0x00, 0x01, 0x7f, 0x80, 0xff}
	out, err := json.Marshal(relayedFrame{TargetSession: "oral_3_cccccc", Message: audio})
	assert.NoError(t, err)

	var in relayedFrame
	assert.NoError(t, json.Unmarshal(out, &in))
	assert.Equal(t, "oral_3_cccccc", in.TargetSession)
	assert.Equal(t, audio, in.Message)
}
