package auth

import (
	"errors"

	"travelmate-web/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		resp, err := svc.Login(c.Context(), req)
		if err != nil {
			return upstreamError(err, fiber.StatusUnauthorized)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(resp)
	})

	r.Post("/signup", func(c *fiber.Ctx) error {
		var req SignupRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		resp, err := svc.Signup(c.Context(), req)
		if err != nil {
			return upstreamError(err, fiber.StatusBadRequest)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusCreated).Send(resp)
	})

	r.Post("/logout", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Logout(c.Context(), Token(c)); err != nil {
			return upstreamError(err, fiber.StatusBadGateway)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func upstreamError(err error, fallback int) error {
	switch {
	case errors.Is(err, errCredentials):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, upstream.ErrUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, "backend unavailable, try again")
	case upstream.StatusOf(err) != 0 && upstream.StatusOf(err) < 500:
		return fiber.NewError(fallback, err.Error())
	}
	return fiber.NewError(fiber.StatusBadGateway, err.Error())
}
