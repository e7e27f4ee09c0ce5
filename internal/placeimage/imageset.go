package placeimage

import "sync"

type slot struct {
	url      string
	stagedID string
}

// ImageSet is the ordered list of images a place will show and submit:
// retained server images and staged uploads, in the order the user arranged
// them. Every positional operation resolves the position when it is called.
type ImageSet struct {
	mu      sync.Mutex
	slots   []slot
	staging *Buffer
}

// NewImageSet starts from remote, which should already be filtered to
// authentic images.
func NewImageSet(remote []string, staging *Buffer) *ImageSet {
	if staging == nil {
		staging = NewBuffer(nil)
	}
	s := &ImageSet{staging: staging}
	for _, u := range remote {
		s.slots = append(s.slots, slot{url: u})
	}
	return s
}

func (s *ImageSet) Staging() *Buffer {
	return s.staging
}

// Stage adds f to the staging buffer and appends it to the set.
func (s *ImageSet) Stage(f File) (Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, err := s.staging.Add(f)
	if err != nil {
		return Reference{}, err
	}
	s.slots = append(s.slots, slot{stagedID: ref.ID})
	return ref, nil
}

func (s *ImageSet) Merged() []Reference {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reference, 0, len(s.slots))
	for _, sl := range s.slots {
		if sl.stagedID == "" {
			out = append(out, RemoteRef(sl.url))
			continue
		}
		if ref, ok := s.staging.Get(sl.stagedID); ok {
			out = append(out, ref)
		}
	}
	return out
}

func (s *ImageSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// RemoveAt removes the image currently at position i. A removed remote image
// is returned so the caller can record its URL as deleted.
func (s *ImageSet) RemoveAt(i int) (Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !inRange(i, len(s.slots)) {
		return Reference{}, ErrIndex
	}
	sl := s.slots[i]
	s.slots = append(s.slots[:i], s.slots[i+1:]...)
	if sl.stagedID == "" {
		return RemoteRef(sl.url), nil
	}
	ref, _ := s.staging.Get(sl.stagedID)
	s.staging.Remove(sl.stagedID)
	return ref, nil
}

func (s *ImageSet) Reorder(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !inRange(from, len(s.slots)) || !inRange(to, len(s.slots)) {
		return ErrIndex
	}
	s.slots = move(s.slots, from, to)
	return nil
}

// Remotes returns the retained server URLs in display order.
func (s *ImageSet) Remotes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, sl := range s.slots {
		if sl.stagedID == "" {
			out = append(out, sl.url)
		}
	}
	return out
}

// Replace swaps the whole set for remote, dropping staged files.
func (s *ImageSet) Replace(remote []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging.Reset()
	s.slots = s.slots[:0]
	for _, u := range remote {
		s.slots = append(s.slots, slot{url: u})
	}
}
