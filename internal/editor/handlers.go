package editor

import (
	"errors"
	"io"
	"strconv"

	"travelmate-web/internal/auth"
	"travelmate-web/internal/placeimage"
	"travelmate-web/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

type openRequest struct {
	TripID  string `json:"tripId"`
	PlaceID string `json:"placeId"`
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type stageResponse struct {
	View
	Rejected []Rejection `json:"rejected,omitempty"`
}

func RegisterRoutes(r fiber.Router, m *Manager, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/sessions", func(c *fiber.Ctx) error {
		var req openRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.TripID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "tripId is required")
		}
		s, err := m.Open(c.Context(), auth.Token(c), req.TripID, req.PlaceID)
		if err != nil {
			return m.httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(s.View())
	})

	r.Get("/sessions/:id", func(c *fiber.Ctx) error {
		s, err := m.Get(c.Params("id"))
		if err != nil {
			return m.httpError(err)
		}
		return c.JSON(s.View())
	})

	r.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if !m.Close(c.Params("id")) {
			return m.httpError(ErrSessionNotFound)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/sessions/:id/edit", func(c *fiber.Ctx) error {
		s, err := m.Get(c.Params("id"))
		if err != nil {
			return m.httpError(err)
		}
		view, err := s.Edit()
		if err != nil {
			return m.httpError(err)
		}
		return c.JSON(view)
	})

	r.Patch("/sessions/:id", func(c *fiber.Ctx) error {
		s, err := m.Get(c.Params("id"))
		if err != nil {
			return m.httpError(err)
		}
		var req FieldsUpdate
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		view, err := s.SetFields(req)
		if err != nil {
			return m.httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/sessions/:id/images", func(c *fiber.Ctx) error {
		s, err := m.Get(c.Params("id"))
		if err != nil {
			return m.httpError(err)
		}
		files, rejected, err := readFiles(c)
		if err != nil {
			return err
		}
		view, refused, err := s.Stage(files)
		if err != nil {
			return m.httpError(err)
		}
		rejected = append(rejected, refused...)
		if len(files) == len(refused) {
			return fiber.NewError(fiber.StatusBadRequest, rejected[0].Name+": "+rejected[0].Reason)
		}
		return c.JSON(stageResponse{View: view, Rejected: rejected})
	})

	r.Delete("/sessions/:id/images/:index", func(c *fiber.Ctx) error {
		s, err := m.Get(c.Params("id"))
		if err != nil {
			return m.httpError(err)
		}
		index, err := strconv.Atoi(c.Params("index"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid index")
		}
		view, err := s.RemoveAt(c.Context(), index)
		if err != nil {
			return m.httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/sessions/:id/images/reorder", func(c *fiber.Ctx) error {
		s, err := m.Get(c.Params("id"))
		if err != nil {
			return m.httpError(err)
		}
		var req reorderRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		view, err := s.Reorder(req.From, req.To)
		if err != nil {
			return m.httpError(err)
		}
		return c.JSON(view)
	})

	r.Post("/sessions/:id/save", func(c *fiber.Ctx) error {
		s, err := m.Get(c.Params("id"))
		if err != nil {
			return m.httpError(err)
		}
		result, err := s.Save(c.Context(), auth.Token(c))
		if err != nil {
			return m.httpError(err)
		}
		return c.JSON(result)
	})
}

// readFiles loads the "images" parts. Oversized parts are rejected
// without being read into memory.
func readFiles(c *fiber.Ctx) ([]placeimage.File, []Rejection, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "multipart form expected")
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, "no images in form")
	}

	var rejected []Rejection
	files := make([]placeimage.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > placeimage.MaxFileSize {
			rejected = append(rejected, Rejection{Name: fh.Filename, Reason: placeimage.ErrTooLarge.Error()})
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "cannot read "+fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "cannot read "+fh.Filename)
		}
		files = append(files, placeimage.File{Name: fh.Filename, Data: data})
	}
	return files, rejected, nil
}

func (m *Manager) httpError(err error) error {
	var saveErr *SaveError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrClosed):
		return fiber.NewError(fiber.StatusGone, err.Error())
	case errors.Is(err, ErrReadOnly), errors.Is(err, ErrSaveInProgress):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrDateLocked), errors.Is(err, placeimage.ErrIndex):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case m.validate.ValidationErrors(err) != nil:
		return fiber.NewError(fiber.StatusBadRequest, m.validate.Message(err))
	case upstream.IsUnauthorized(err):
		return fiber.NewError(fiber.StatusUnauthorized, "login required")
	case errors.As(err, &saveErr):
		return fiber.NewError(fiber.StatusBadGateway, "save failed, please try again")
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
