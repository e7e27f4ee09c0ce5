package place

import (
	"travelmate-web/internal/auth"
	"travelmate-web/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:tripID/places", authMiddleware, func(c *fiber.Ctx) error {
		listing, err := svc.List(c.Context(), auth.Token(c), c.Params("tripID"))
		if err != nil {
			return fiber.NewError(upstream.HTTPStatus(err), err.Error())
		}
		return c.JSON(listing)
	})

	r.Delete("/:tripID/places/:placeID", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), auth.Token(c), c.Params("tripID"), c.Params("placeID")); err != nil {
			return fiber.NewError(upstream.HTTPStatus(err), err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
