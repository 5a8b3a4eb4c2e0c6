package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"journal-backend/internal/realtime"
)

// ChangesWSHandler 변경 알림 WebSocket 핸들러
type ChangesWSHandler struct {
	hub *realtime.Hub
}

// NewChangesWSHandler ChangesWSHandler 생성
func NewChangesWSHandler(hub *realtime.Hub) *ChangesWSHandler {
	return &ChangesWSHandler{hub: hub}
}

// Upgrade rejects plain HTTP requests. Runs after WebSocketAuthMiddleware.
func (h *ChangesWSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if userIDFrom(c) == "" {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	return c.Next()
}

// HandleWebSocket WebSocket 연결 처리
func (h *ChangesWSHandler) HandleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		c.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","message":"invalid session"}`))
		c.Close()
		return
	}
	h.hub.Serve(userID, c)
}
