// Package editor keeps the state of open place editors between requests:
// form fields, staged uploads, and the merged image list.
package editor

import (
	"context"
	"log"
	"sync"
	"time"

	"travelmate-web/internal/category"
	"travelmate-web/internal/deletion"
	"travelmate-web/internal/placeimage"
	"travelmate-web/internal/stream"
	"travelmate-web/internal/upstream"
	"travelmate-web/internal/validation"

	"github.com/google/uuid"
)

type PlaceAPI interface {
	GetPlace(ctx context.Context, token, tripID, placeID string) (upstream.Place, error)
	SavePlace(ctx context.Context, token, tripID, placeID string, sub placeimage.Submission) (upstream.Place, error)
}

type Publisher interface {
	Publish(sessionID string, ev stream.Event)
}

const loadFailedNotice = "could not load the place, starting from an empty form"

type Manager struct {
	api      PlaceAPI
	record   *deletion.Record
	registry *category.Registry
	filter   *placeimage.Filter
	selector *placeimage.Selector
	builder  *placeimage.Builder
	events   Publisher
	validate *validation.Validator
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(api PlaceAPI, record *deletion.Record, registry *category.Registry, builder *placeimage.Builder, events Publisher, ttl time.Duration) *Manager {
	filter := placeimage.NewFilter(registry.AllDefaultIdentifiers())
	return &Manager{
		api:      api,
		record:   record,
		registry: registry,
		filter:   filter,
		selector: placeimage.NewSelector(filter, registry),
		builder:  builder,
		events:   events,
		validate: validation.New(),
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// Open starts an editor for placeID, or for a new place when placeID is
// empty or "new". A failed detail fetch still opens an editable, empty form
// carrying a notice; only an auth failure is returned as an error.
func (m *Manager) Open(ctx context.Context, token, tripID, placeID string) (*Session, error) {
	s := &Session{
		m:        m,
		id:       uuid.NewString(),
		tripID:   tripID,
		lastUsed: m.now(),
	}

	buffer := placeimage.NewBuffer(nil)
	if m.events != nil {
		sessionID := s.id
		buffer.OnPreview(func(id string) {
			m.events.Publish(sessionID, stream.Event{Type: stream.EventPreview, ID: id})
		})
	}

	if placeID == "" || placeID == NewPlaceID {
		s.isNew = true
		s.editing = true
		s.date = m.now().Format("2006-01-02")
		s.images = placeimage.NewImageSet(nil, buffer)
		m.add(s)
		return s, nil
	}

	s.placeID = placeID
	place, err := m.api.GetPlace(ctx, token, tripID, placeID)
	if err != nil {
		if upstream.IsUnauthorized(err) {
			return nil, err
		}
		log.Printf("editor: load place %s: %v", placeID, err)
		s.editing = true
		s.notice = loadFailedNotice
		s.images = placeimage.NewImageSet(nil, buffer)
		m.add(s)
		return s, nil
	}

	pending, err := m.record.Reconcile(ctx, placeID, place.ImageURLs)
	if err != nil {
		// showing a removed image is preferable to refusing to open
		log.Printf("editor: %v", err)
	}

	s.name = place.Name
	s.category = category.Parse(place.Category)
	s.memo = place.Description
	s.date = place.CreatedDate()
	removed := placeimage.NewURLSet(pending...)
	s.images = placeimage.NewImageSet(m.filter.Authentic(place.ImageURLs, removed), buffer)
	if place.CoverImageURL != "" && m.filter.IsAuthentic(place.CoverImageURL, removed) {
		s.cover = place.CoverImageURL
	}
	m.add(s)
	return s, nil
}

func (m *Manager) add(s *Session) {
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
}

// Get returns an open session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

// Close discards a session. A save still in flight completes on the
// backend but its result is no longer applied.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.close()
	}
	return ok
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// it closed. Sessions with a save in flight are never idle.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Printf("editor: closed %d idle sessions", n)
			}
		}
	}
}
