package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Sessions reports whether an editor session is open.
type Sessions interface {
	Exists(id string) bool
}

func RegisterRoutes(r fiber.Router, hub *Hub, sessions Sessions, authMiddleware fiber.Handler) {
	upgrade := func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}
	known := func(c *fiber.Ctx) error {
		if sessions != nil && !sessions.Exists(c.Params("sessionID")) {
			return fiber.NewError(fiber.StatusNotFound, "editor session not found")
		}
		return c.Next()
	}

	r.Get("/ws/:sessionID", upgrade, authMiddleware, known, websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionID")
		client := hub.Register(sessionID)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		// the browser never sends anything meaningful; reading detects close
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
