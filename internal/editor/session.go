package editor

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"travelmate-web/internal/category"
	"travelmate-web/internal/placeimage"
	"travelmate-web/internal/upstream"
)

// NewPlaceID is the place id the browser uses for a place not created yet.
const NewPlaceID = "new"

// Session is one open place editor. All mutations go through its mutex;
// async preview decodes write back by staged id inside the buffer.
type Session struct {
	m *Manager

	mu       sync.Mutex
	id       string
	tripID   string
	placeID  string
	isNew    bool
	editing  bool
	name     string
	category category.Category
	memo     string
	date     string
	images   *placeimage.ImageSet
	// cover is the backend cover when authentic and not removed here.
	cover    string
	notice   string
	closed   bool
	saving   bool
	lastUsed time.Time
}

type View struct {
	SessionID     string                 `json:"sessionId"`
	TripID        string                 `json:"tripId"`
	PlaceID       string                 `json:"placeId,omitempty"`
	IsNew         bool                   `json:"isNew"`
	Editing       bool                   `json:"editing"`
	Name          string                 `json:"name"`
	Category      string                 `json:"category"`
	CategoryLabel string                 `json:"categoryLabel"`
	Color         string                 `json:"color"`
	Memo          string                 `json:"memo"`
	Date          string                 `json:"date"`
	Cover         placeimage.Reference   `json:"cover"`
	Images        []placeimage.Reference `json:"images"`
	Notice        string                 `json:"notice,omitempty"`
}

// FieldsUpdate carries the form fields to change; nil leaves a field as is.
type FieldsUpdate struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Category *string `json:"category" validate:"omitempty,category"`
	Memo     *string `json:"memo" validate:"omitempty,max=1000"`
	Date     *string `json:"date" validate:"omitempty,date"`
}

// Rejection names a file Stage refused and why.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type SaveResult struct {
	Redirect string   `json:"redirect"`
	PlaceID  string   `json:"placeId"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	merged := s.images.Merged()
	return View{
		SessionID:     s.id,
		TripID:        s.tripID,
		PlaceID:       s.placeID,
		IsNew:         s.isNew,
		Editing:       s.editing,
		Name:          s.name,
		Category:      s.category.String(),
		CategoryLabel: s.category.Label(),
		Color:         s.m.registry.Color(s.category),
		Memo:          s.memo,
		Date:          s.date,
		Cover:         s.coverFor(merged),
		Images:        merged,
		Notice:        s.notice,
	}
}

// coverFor picks the cover the same way the place list does, except that a
// staged image at the front of the list is shown as soon as it is added.
func (s *Session) coverFor(merged []placeimage.Reference) placeimage.Reference {
	if s.cover == "" && len(merged) > 0 {
		return merged[0]
	}
	return s.m.selector.CoverFor(placeimage.Place{Category: s.category, CoverImageURL: s.cover}, nil)
}

// writable is called with mu held. Edits are refused while a save is in
// flight: the submission was taken before them and would overwrite them.
func (s *Session) writable() error {
	if s.closed {
		return ErrClosed
	}
	if s.saving {
		return ErrSaveInProgress
	}
	if !s.editing {
		return ErrReadOnly
	}
	return nil
}

// Edit switches a read-only view into edit mode.
func (s *Session) Edit() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return View{}, ErrClosed
	}
	s.editing = true
	return s.view(), nil
}

func (s *Session) SetFields(u FieldsUpdate) (View, error) {
	if err := s.m.validate.Struct(u); err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(); err != nil {
		return View{}, err
	}
	if u.Date != nil && *u.Date != s.date && !s.isNew {
		return View{}, ErrDateLocked
	}

	if u.Name != nil {
		s.name = *u.Name
	}
	if u.Category != nil {
		s.category = category.Parse(*u.Category)
	}
	if u.Memo != nil {
		s.memo = *u.Memo
	}
	if u.Date != nil {
		s.date = *u.Date
	}
	return s.view(), nil
}

// Stage adds files to the end of the image list. Files that are not images
// or are too large are reported and skipped; the others are kept.
func (s *Session) Stage(files []placeimage.File) (View, []Rejection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(); err != nil {
		return View{}, nil, err
	}

	var rejected []Rejection
	for _, f := range files {
		if _, err := s.images.Stage(f); err != nil {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: err.Error()})
		}
	}
	return s.view(), rejected, nil
}

// RemoveAt removes whatever is displayed at index when the call runs. A
// server image is recorded as deleted before it leaves the list, so a
// failing record store leaves the list untouched.
func (s *Session) RemoveAt(ctx context.Context, index int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(); err != nil {
		return View{}, err
	}

	merged := s.images.Merged()
	if index < 0 || index >= len(merged) {
		return View{}, placeimage.ErrIndex
	}
	target := merged[index]
	if !target.IsStaged() && !s.isNew {
		if err := s.m.record.Add(ctx, s.placeID, target.URL); err != nil {
			return View{}, err
		}
	}
	if _, err := s.images.RemoveAt(index); err != nil {
		return View{}, err
	}
	if !target.IsStaged() && target.URL == s.cover {
		s.cover = ""
	}
	return s.view(), nil
}

func (s *Session) Reorder(from, to int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(); err != nil {
		return View{}, err
	}
	if err := s.images.Reorder(from, to); err != nil {
		return View{}, err
	}
	return s.view(), nil
}

// Save submits the form as one request. The request runs detached from ctx
// cancellation so a client navigating away does not abort a write the
// backend may already be processing; if the session is closed meanwhile,
// the outcome is returned as ErrClosed and nothing is applied.
func (s *Session) Save(ctx context.Context, token string) (SaveResult, error) {
	s.mu.Lock()
	if err := s.writable(); err != nil {
		s.mu.Unlock()
		return SaveResult{}, err
	}
	name := strings.TrimSpace(s.name)
	if name == "" {
		s.mu.Unlock()
		return SaveResult{}, ErrNameRequired
	}
	merged := s.images.Merged()
	fields := placeimage.Fields{Name: name, Description: s.memo, Category: s.category}
	mode := placeimage.Replace
	if s.isNew {
		mode = placeimage.Create
	}
	tripID, placeID := s.tripID, s.placeID
	s.saving = true
	s.mu.Unlock()

	saveCtx := context.WithoutCancel(ctx)
	sub, err := s.m.builder.Build(saveCtx, merged, mode, fields)
	var saved upstream.Place
	if err == nil {
		saved, err = s.m.api.SavePlace(saveCtx, token, tripID, placeID, sub)
	}

	if err == nil && placeID != "" {
		// the server now holds exactly what was submitted
		if clearErr := s.m.record.Clear(saveCtx, placeID); clearErr != nil {
			log.Printf("editor: %v", clearErr)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	s.lastUsed = s.m.now()
	if s.closed {
		return SaveResult{}, ErrClosed
	}
	if err != nil {
		return SaveResult{}, &SaveError{Err: err}
	}

	if saved.ID != "" {
		s.placeID = saved.ID
		s.images.Replace(s.m.filter.Authentic(saved.ImageURLs, nil))
		s.cover = ""
		if s.m.filter.IsAuthentic(saved.CoverImageURL, nil) {
			s.cover = saved.CoverImageURL
		}
	}
	s.isNew = false
	s.editing = false
	s.notice = ""
	return SaveResult{
		Redirect: "/trips/" + tripID + "/places",
		PlaceID:  s.placeID,
		Warnings: sub.Warnings,
	}, nil
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return 0
	}
	return now.Sub(s.lastUsed)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}
