package handler

import (
	ws "docchat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ActivityHandler exposes the live session-activity feed the history page
// subscribes to.
type ActivityHandler struct {
	hub *ws.Hub
}

func NewActivityHandler(hub *ws.Hub) *ActivityHandler {
	return &ActivityHandler{hub: hub}
}

func (h *ActivityHandler) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/activity", websocket.New(func(c *websocket.Conn) {
		ws.ServeWs(h.hub, c)
	}))
}
