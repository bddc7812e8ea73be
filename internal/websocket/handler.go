package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"oral-coach-be/internal/pkg/logger"
	"oral-coach-be/internal/service"
	"oral-coach-be/internal/voice"
)

// ServeWs wires one accepted voice websocket connection into the hub and
// the practice pipeline. Blocks until the connection closes.
func ServeWs(
	hub *Hub,
	c *websocket.Conn,
	sessionKey string,
	userID uuid.UUID,
	language string,
	practice service.IPracticeService,
	coach service.ICoachService,
	vadCfg voice.VADConfig,
	log logger.ILogger,
) {
	client := &Client{
		Hub:        hub,
		Conn:       c,
		SessionKey: sessionKey,
		UserID:     userID,
		Send:       make(chan []byte, 256),
	}
	client.session = NewVoiceSession(client, practice, coach, vadCfg, language, log)
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
