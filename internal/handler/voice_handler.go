package handler

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"oral-coach-be/internal/pkg/logger"
	"oral-coach-be/internal/service"
	"oral-coach-be/internal/voice"
	internalWS "oral-coach-be/internal/websocket"
)

// VoiceHandler terminates the voice websocket endpoint: one connection
// per live oral session, authenticated on handshake.
type VoiceHandler struct {
	practice service.IPracticeService
	coach    service.ICoachService
	hub      *internalWS.Hub
	vadCfg   voice.VADConfig
	logger   logger.ILogger
}

func NewVoiceHandler(practice service.IPracticeService, coach service.ICoachService, hub *internalWS.Hub, vadCfg voice.VADConfig, log logger.ILogger) *VoiceHandler {
	return &VoiceHandler{
		practice: practice,
		coach:    coach,
		hub:      hub,
		vadCfg:   vadCfg,
		logger:   log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *VoiceHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on websocket handshakes, so the token
	// arrives as a query param; tooling may still use the header.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("VoiceHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	sessionKey := c.Params("key")
	session, err := h.practice.GetSession(userID, sessionKey)
	if err != nil {
		return err
	}
	language := session.State.Config.Language

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("VoiceHandler", "Starting voice session", map[string]interface{}{
				"session_key": sessionKey,
				"user_id":     userID,
			})
			internalWS.ServeWs(h.hub, conn, sessionKey, userID, language, h.practice, h.coach, h.vadCfg, h.logger)
			h.logger.Info("VoiceHandler", "Voice session ended", map[string]interface{}{
				"session_key": sessionKey,
				"user_id":     userID,
			})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the voice websocket route.
func (h *VoiceHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/oral/v1/ws/:key", h.ServeWs)
}
