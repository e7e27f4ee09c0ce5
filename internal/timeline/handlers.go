package timeline

import (
	"errors"

	"travelmate-web/internal/auth"
	"travelmate-web/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:tripID/timeline", authMiddleware, func(c *fiber.Ctx) error {
		days, err := svc.List(c.Context(), auth.Token(c), c.Params("tripID"))
		if err != nil {
			return svc.httpError(err)
		}
		return c.JSON(days)
	})

	r.Post("/:tripID/timeline", authMiddleware, func(c *fiber.Ctx) error {
		var in Input
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		entry, err := svc.Create(c.Context(), auth.Token(c), c.Params("tripID"), in)
		if err != nil {
			return svc.httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	})

	r.Delete("/:tripID/timeline/:itemID", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), auth.Token(c), c.Params("tripID"), c.Params("itemID")); err != nil {
			return svc.httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func (s *Service) httpError(err error) error {
	switch {
	case errors.Is(err, ErrTimeOrder):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case s.validate.ValidationErrors(err) != nil:
		return fiber.NewError(fiber.StatusBadRequest, s.validate.Message(err))
	}
	return fiber.NewError(upstream.HTTPStatus(err), err.Error())
}
