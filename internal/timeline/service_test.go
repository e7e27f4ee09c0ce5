package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"travelmate-web/internal/category"
	"travelmate-web/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

type fakeAPI struct {
	items   []upstream.TimelineItem
	created []upstream.TimelineItem
	err     error
}

func (f *fakeAPI) ListTimeline(context.Context, string, string) ([]upstream.TimelineItem, error) {
	return f.items, f.err
}

func (f *fakeAPI) CreateTimelineItem(_ context.Context, _, _ string, item upstream.TimelineItem) (upstream.TimelineItem, error) {
	if f.err != nil {
		return upstream.TimelineItem{}, f.err
	}
	item.ID = "i1"
	f.created = append(f.created, item)
	return item, nil
}

func (f *fakeAPI) DeleteTimelineItem(context.Context, string, string, string) error {
	return f.err
}

func newService(api *fakeAPI) *Service {
	return NewService(api, category.NewRegistry("https://cdn.example/assets"))
}

func TestListGroupsByDayAndStart(t *testing.T) {
	api := &fakeAPI{items: []upstream.TimelineItem{
		{ID: "c", Date: "2025-01-23", StartTime: "09:00", Category: "음식"},
		{ID: "b", Date: "2025-01-22", StartTime: "13:30"},
		{ID: "a", Date: "2025-01-22", StartTime: "9:00"},
	}}
	days, err := newService(api).List(context.Background(), "tok", "t1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(days) != 2 || days[0].Date != "2025-01-22" || len(days[0].Items) != 2 {
		t.Fatalf("unexpected days %+v", days)
	}
	if days[0].Items[0].ID != "a" || days[0].Items[1].ID != "b" {
		t.Fatalf("items not sorted by start: %+v", days[0].Items)
	}
	if c := days[1].Items[0]; c.CategoryLabel != "음식" || c.Color != "#22C55E" {
		t.Fatalf("unexpected entry %+v", c)
	}
}

func TestCreateValidatesAndNormalises(t *testing.T) {
	api := &fakeAPI{}
	svc := newService(api)
	ctx := context.Background()

	_, err := svc.Create(ctx, "tok", "t1", Input{PlaceID: "p1", Date: "2025-01-22", StartTime: "10:15", EndTime: "11:00"})
	if svc.validate.ValidationErrors(err) == nil {
		t.Fatalf("expected 30 minute step error, got %v", err)
	}
	_, err = svc.Create(ctx, "tok", "t1", Input{PlaceID: "p1", Date: "2025-01-22", StartTime: "11:00", EndTime: "11:00"})
	if !errors.Is(err, ErrTimeOrder) {
		t.Fatalf("expected order error, got %v", err)
	}

	entry, err := svc.Create(ctx, "tok", "t1", Input{PlaceID: "p1", Date: "2025-01-22", StartTime: "9:30", EndTime: "10:00", Category: "디저트"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sent := api.created[0]
	if sent.StartTime != "09:30" || sent.Category != "cafe-dessert" {
		t.Fatalf("unexpected item sent %+v", sent)
	}
	if entry.ID != "i1" || entry.CategoryLabel != "카페/디저트" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestTimelineHandlers(t *testing.T) {
	api := &fakeAPI{}
	app := fiber.New()
	RegisterRoutes(app.Group("/trips"), newService(api), func(c *fiber.Ctx) error { return c.Next() })

	body, _ := json.Marshal(Input{PlaceID: "p1", Date: "2025-01-22", StartTime: "10:00", EndTime: "09:30"})
	req := httptest.NewRequest(http.MethodPost, "/trips/t1/timeline", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", resp.StatusCode)
	}

	body, _ = json.Marshal(Input{PlaceID: "p1", Date: "2025-01-22", StartTime: "10:00", EndTime: "12:00"})
	req = httptest.NewRequest(http.MethodPost, "/trips/t1/timeline", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/trips/t1/timeline", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, "/trips/t1/timeline/i1", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %v", err)
	}

	api.err = &upstream.APIError{Status: http.StatusUnauthorized}
	req = httptest.NewRequest(http.MethodGet, "/trips/t1/timeline", nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
