package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"travelmate-web/internal/category"
	"travelmate-web/internal/deletion"
	"travelmate-web/internal/placeimage"
	"travelmate-web/internal/stream"
	"travelmate-web/internal/upstream"
)

const (
	tripID  = "t1"
	placeID = "p1"
	baseURL = "https://cdn.example/assets"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func pngFile(name string) placeimage.File {
	data := append([]byte{}, pngMagic...)
	data = append(data, name...)
	return placeimage.File{Name: name, Data: data}
}

type fakeAPI struct {
	mu      sync.Mutex
	places  map[string]upstream.Place
	getErr  error
	saveErr error
	saved   []placeimage.Submission
	// when set, SavePlace signals entered and blocks until release is closed
	entered chan struct{}
	release chan struct{}
}

func (f *fakeAPI) GetPlace(_ context.Context, _, _, id string) (upstream.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return upstream.Place{}, f.getErr
	}
	p, ok := f.places[id]
	if !ok {
		return upstream.Place{}, &upstream.APIError{Status: 404}
	}
	return p, nil
}

func (f *fakeAPI) SavePlace(_ context.Context, _, _, id string, sub placeimage.Submission) (upstream.Place, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return upstream.Place{}, f.saveErr
	}
	f.saved = append(f.saved, sub)
	if id == "" {
		id = "created-1"
	}
	return upstream.Place{ID: id, Name: sub.Payload.Name, Category: sub.Payload.Category}, nil
}

func (f *fakeAPI) submissions() []placeimage.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]placeimage.Submission(nil), f.saved...)
}

type fakeFetcher struct{}

func (fakeFetcher) FetchImage(_ context.Context, url string) (placeimage.File, error) {
	if url == "https://cdn.example/u1/broken.jpg" {
		return placeimage.File{}, errors.New("gone")
	}
	if url == "https://cdn.example/u1/offline.jpg" {
		return placeimage.File{}, fmt.Errorf("%w: connection reset", placeimage.ErrTransient)
	}
	return pngFile(category.AssetName(url)), nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []stream.Event
}

func (r *recordedEvents) Publish(_ string, ev stream.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordedEvents) list() []stream.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stream.Event(nil), r.events...)
}

type fixture struct {
	api    *fakeAPI
	record *deletion.Record
	events *recordedEvents
	m      *Manager
	now    time.Time
}

func newFixture(t *testing.T, places ...upstream.Place) *fixture {
	t.Helper()
	f := &fixture{
		api:    &fakeAPI{places: map[string]upstream.Place{}},
		record: deletion.NewRecord(deletion.NewMemoryStore()),
		events: &recordedEvents{},
		now:    time.Date(2024, 9, 7, 10, 0, 0, 0, time.UTC),
	}
	for _, p := range places {
		f.api.places[p.ID] = p
	}
	registry := category.NewRegistry(baseURL)
	builder := placeimage.NewBuilder(fakeFetcher{}, registry, placeimage.Policy{ReplaceAll: true})
	f.m = NewManager(f.api, f.record, registry, builder, f.events, time.Minute)
	f.m.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) open(t *testing.T, id string) *Session {
	t.Helper()
	s, err := f.m.Open(context.Background(), "tok", tripID, id)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func (f *fixture) deleted(t *testing.T, id string) []string {
	t.Helper()
	urls, err := f.record.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	return urls
}

func srcs(refs []placeimage.Reference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		if r.IsStaged() {
			out[i] = "staged:" + r.File.Name
			continue
		}
		out[i] = r.URL
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
