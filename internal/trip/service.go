package trip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"travelmate-web/internal/category"
	"travelmate-web/internal/placeimage"
	"travelmate-web/internal/upstream"
	"travelmate-web/internal/validation"

	"github.com/gabriel-vasile/mimetype"
)

type API interface {
	ListTrips(ctx context.Context, token string) ([]upstream.Trip, error)
	GetTrip(ctx context.Context, token, tripID string) (upstream.Trip, error)
	CreateTrip(ctx context.Context, token string, body io.Reader, contentType string) (upstream.Trip, error)
	UpdateTrip(ctx context.Context, token, tripID string, body io.Reader, contentType string) (upstream.Trip, error)
	DeleteTrip(ctx context.Context, token, tripID string) error
}

var (
	ErrPeriod = errors.New("endDate must not be before startDate")
	ErrImage  = errors.New("trip image must be an image up to 20MB")
)

type Service struct {
	api      API
	registry *category.Registry
	filter   *placeimage.Filter
	validate *validation.Validator
	now      func() time.Time
}

func NewService(api API, registry *category.Registry) *Service {
	return &Service{
		api:      api,
		registry: registry,
		filter:   placeimage.NewFilter(registry.AllDefaultIdentifiers()),
		validate: validation.New(),
		now:      time.Now,
	}
}

// List returns one page of the trips with the given status. Pages start at 1;
// a page past the end is empty but still reports the page count.
func (s *Service) List(ctx context.Context, token string, requested Status, page int) (Page, error) {
	status := StatusNew
	if strings.EqualFold(string(requested), string(StatusPast)) {
		status = StatusPast
	}
	if page < 1 {
		page = 1
	}

	trips, err := s.api.ListTrips(ctx, token)
	if err != nil {
		return Page{}, err
	}

	today := s.now().Format(dateLayout)
	var matching []Summary
	for _, t := range trips {
		sum := s.summary(t, today)
		if sum.Status == status {
			matching = append(matching, sum)
		}
	}

	out := Page{
		Status:    status,
		Trips:     []Summary{},
		Page:      page,
		PageCount: (len(matching) + PageSize - 1) / PageSize,
		Total:     len(matching),
	}
	if start := (page - 1) * PageSize; start < len(matching) {
		end := min(start+PageSize, len(matching))
		out.Trips = matching[start:end]
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, token, tripID string) (Summary, error) {
	t, err := s.api.GetTrip(ctx, token, tripID)
	if err != nil {
		return Summary{}, err
	}
	return s.summary(t, s.now().Format(dateLayout)), nil
}

// Create submits a new trip. Without an image the logo is sent as its cover.
func (s *Service) Create(ctx context.Context, token string, in Input, image *placeimage.File) (Summary, error) {
	if in.Type == "" {
		in.Type = "domestic"
	}
	if err := s.check(in); err != nil {
		return Summary{}, err
	}
	body, contentType, err := encode(in, image, s.registry.Logo())
	if err != nil {
		return Summary{}, err
	}
	t, err := s.api.CreateTrip(ctx, token, body, contentType)
	if err != nil {
		return Summary{}, err
	}
	return s.summary(t, s.now().Format(dateLayout)), nil
}

// Update replaces the trip fields; the cover only changes when image is set.
func (s *Service) Update(ctx context.Context, token, tripID string, in Input, image *placeimage.File) (Summary, error) {
	if err := s.check(in); err != nil {
		return Summary{}, err
	}
	body, contentType, err := encode(in, image, "")
	if err != nil {
		return Summary{}, err
	}
	t, err := s.api.UpdateTrip(ctx, token, tripID, body, contentType)
	if err != nil {
		return Summary{}, err
	}
	return s.summary(t, s.now().Format(dateLayout)), nil
}

func (s *Service) Delete(ctx context.Context, token, tripID string) error {
	return s.api.DeleteTrip(ctx, token, tripID)
}

func (s *Service) check(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	if in.EndDate < in.StartDate {
		return ErrPeriod
	}
	return nil
}

func (s *Service) summary(t upstream.Trip, today string) Summary {
	thumb := t.ImageURL
	if !s.filter.IsAuthentic(thumb, nil) {
		thumb = s.registry.Logo()
	}
	return Summary{
		ID:          t.ID,
		Title:       t.Title,
		Destination: t.Destination,
		Type:        t.Type,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Period:      period(t.StartDate, t.EndDate),
		Memo:        t.Memo,
		Status:      statusOf(t, today),
		Thumbnail:   thumb,
	}
}

// statusOf trusts the backend status and otherwise derives it from the end
// date: a trip ending today is still new.
func statusOf(t upstream.Trip, today string) Status {
	switch {
	case strings.EqualFold(t.Status, string(StatusPast)):
		return StatusPast
	case strings.EqualFold(t.Status, string(StatusNew)):
		return StatusNew
	}
	end := t.EndDate
	if len(end) > len(dateLayout) {
		end = end[:len(dateLayout)]
	}
	if end != "" && end < today {
		return StatusPast
	}
	return StatusNew
}

// period renders "25.01.22.-25.01.25.".
func period(start, end string) string {
	s, okS := parseDate(truncateDate(start))
	e, okE := parseDate(truncateDate(end))
	if !okS || !okE {
		return ""
	}
	return s.Format("06.01.02.") + "-" + e.Format("06.01.02.")
}

func truncateDate(s string) string {
	if len(s) > len(dateLayout) {
		return s[:len(dateLayout)]
	}
	return s
}

// encode writes the trip as a "data" JSON part plus either an "image" file
// part or an "imageUrl" field.
func encode(in Input, image *placeimage.File, fallbackURL string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, "", err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="data"; filename="blob"`)
	h.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", err
	}

	switch {
	case image != nil:
		mt := mimetype.Detect(image.Data)
		if len(image.Data) == 0 || len(image.Data) > placeimage.MaxFileSize || !strings.HasPrefix(mt.String(), "image/") {
			return nil, "", ErrImage
		}
		name := image.Name
		if name == "" {
			name = "trip" + mt.Extension()
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
		h.Set("Content-Type", mt.String())
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, "", err
		}
	case fallbackURL != "":
		if err := mw.WriteField("imageUrl", fallbackURL); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
