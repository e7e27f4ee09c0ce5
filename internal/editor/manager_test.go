package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"travelmate-web/internal/upstream"
)

func TestOpenNewPlaceStartsInEditModeWithToday(t *testing.T) {
	f := newFixture(t)
	v := f.open(t, NewPlaceID).View()

	if !v.IsNew || !v.Editing {
		t.Fatalf("new place should open editable: %+v", v)
	}
	if v.Date != "2024-09-07" {
		t.Fatalf("expected today's date, got %q", v.Date)
	}
	if v.CategoryLabel != "미지정" {
		t.Fatalf("expected unassigned label, got %q", v.CategoryLabel)
	}
	if v.Cover.URL != baseURL+"/defaults/emptyimage.png" {
		t.Fatalf("expected generic cover, got %q", v.Cover.URL)
	}
}

func TestOpenExistingFiltersDefaultsAndDeletedImages(t *testing.T) {
	f := newFixture(t, upstream.Place{
		ID:        placeID,
		Name:      "Hotel",
		Category:  "숙소",
		CreatedAt: "2024-09-01T08:00:00Z",
		ImageURLs: []string{
			baseURL + "/defaults/lodging.png",
			"https://cdn.example/u1/a.jpg",
			"https://cdn.example/u1/b.jpg",
		},
	})
	ctx := context.Background()
	if err := f.record.Add(ctx, placeID, "https://cdn.example/u1/b.jpg", "https://cdn.example/u1/gone.jpg"); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	v := f.open(t, placeID).View()

	if v.IsNew || v.Editing {
		t.Fatalf("existing place should open read-only")
	}
	if !equal(srcs(v.Images), []string{"https://cdn.example/u1/a.jpg"}) {
		t.Fatalf("unexpected images %v", srcs(v.Images))
	}
	if v.Category != "lodging" || v.Date != "2024-09-01" || v.Name != "Hotel" {
		t.Fatalf("unexpected fields %+v", v)
	}
	// the server no longer reports gone.jpg, so that removal is confirmed
	if got := f.deleted(t, placeID); !equal(got, []string{"https://cdn.example/u1/b.jpg"}) {
		t.Fatalf("unexpected record %v", got)
	}
}

func TestOpenFetchFailureGivesEditableEmptyForm(t *testing.T) {
	f := newFixture(t)
	f.api.getErr = upstream.ErrUnavailable

	v := f.open(t, placeID).View()
	if !v.Editing || v.Notice == "" || len(v.Images) != 0 {
		t.Fatalf("expected editable empty form with notice, got %+v", v)
	}
	if v.IsNew {
		t.Fatalf("place id must be kept so the save updates it")
	}
}

func TestOpenUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.api.getErr = &upstream.APIError{Status: 403}

	_, err := f.m.Open(context.Background(), "tok", tripID, placeID)
	if !upstream.IsUnauthorized(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestManagerGetCloseExists(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, NewPlaceID)

	if !f.m.Exists(s.ID()) {
		t.Fatalf("expected session")
	}
	if got, err := f.m.Get(s.ID()); err != nil || got != s {
		t.Fatalf("get: %v", err)
	}
	if !f.m.Close(s.ID()) {
		t.Fatalf("expected close to find session")
	}
	if f.m.Close(s.ID()) {
		t.Fatalf("second close should report missing")
	}
	if _, err := f.m.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.Edit(); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed session should refuse edits, got %v", err)
	}
}

func TestSweepClosesIdleSessions(t *testing.T) {
	f := newFixture(t)
	idle := f.open(t, NewPlaceID)
	f.now = f.now.Add(50 * time.Second)
	active := f.open(t, NewPlaceID)

	f.now = f.now.Add(20 * time.Second)
	if _, err := f.m.Get(active.ID()); err != nil {
		t.Fatalf("get: %v", err)
	}
	if n := f.m.Sweep(); n != 1 {
		t.Fatalf("expected one expired session, got %d", n)
	}
	if f.m.Exists(idle.ID()) || !f.m.Exists(active.ID()) {
		t.Fatalf("wrong session expired")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("run did not stop")
	}
}
