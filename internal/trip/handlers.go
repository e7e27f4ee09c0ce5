package trip

import (
	"errors"
	"io"

	"travelmate-web/internal/auth"
	"travelmate-web/internal/placeimage"
	"travelmate-web/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		page, err := svc.List(c.Context(), auth.Token(c), Status(c.Query("status", string(StatusNew))), c.QueryInt("page", 1))
		if err != nil {
			return svc.httpError(err)
		}
		return c.JSON(page)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		in, image, err := readForm(c)
		if err != nil {
			return err
		}
		trip, err := svc.Create(c.Context(), auth.Token(c), in, image)
		if err != nil {
			return svc.httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(trip)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		trip, err := svc.Get(c.Context(), auth.Token(c), c.Params("id"))
		if err != nil {
			return svc.httpError(err)
		}
		return c.JSON(trip)
	})

	r.Patch("/:id", authMiddleware, func(c *fiber.Ctx) error {
		in, image, err := readForm(c)
		if err != nil {
			return err
		}
		trip, err := svc.Update(c.Context(), auth.Token(c), c.Params("id"), in, image)
		if err != nil {
			return svc.httpError(err)
		}
		return c.JSON(trip)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), auth.Token(c), c.Params("id")); err != nil {
			return svc.httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// readForm accepts JSON or multipart fields with an optional "image" file.
func readForm(c *fiber.Ctx) (Input, *placeimage.File, error) {
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return Input{}, nil, fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return in, nil, nil
	}
	if fh.Size > placeimage.MaxFileSize {
		return Input{}, nil, fiber.NewError(fiber.StatusBadRequest, ErrImage.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return Input{}, nil, fiber.NewError(fiber.StatusBadRequest, "cannot read image")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return Input{}, nil, fiber.NewError(fiber.StatusBadRequest, "cannot read image")
	}
	return in, &placeimage.File{Name: fh.Filename, Data: data}, nil
}

func (s *Service) httpError(err error) error {
	switch {
	case errors.Is(err, ErrPeriod), errors.Is(err, ErrImage):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case s.validate.ValidationErrors(err) != nil:
		return fiber.NewError(fiber.StatusBadRequest, s.validate.Message(err))
	}
	return fiber.NewError(upstream.HTTPStatus(err), err.Error())
}
