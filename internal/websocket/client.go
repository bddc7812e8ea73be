package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Audio frames dominate; 64 KiB fits ~2s of 16 kHz 16-bit mono.
	maxMessageSize = 64 * 1024
)

// Client is a middleman between one voice websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	SessionKey string
	UserID     uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	// Per-connection voice session glue.
	session *VoiceSession
}

// readPump pumps frames from the websocket connection into the voice
// session: binary frames are mic audio, text frames are JSON control.
func (c *Client) readPump() {
	defer func() {
		c.session.Close()
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Hub", "Unexpected websocket close", map[string]interface{}{
					"session_key": c.SessionKey,
					"error":       err.Error(),
				})
			}
			break
		}

		switch msgType {
		case websocket.BinaryMessage:
			c.session.OnAudioFrame(data)
		case websocket.TextMessage:
			c.session.OnControl(data)
		}
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// JSON control frames start with '{'; everything else is audio.
			frameType := websocket.BinaryMessage
			if len(message) > 0 && message[0] == '{' {
				frameType = websocket.TextMessage
			}
			if err := c.Conn.WriteMessage(frameType, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
