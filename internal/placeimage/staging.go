package placeimage

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxFileSize is the largest upload the buffer accepts.
const MaxFileSize = 20 << 20

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrTooLarge  = errors.New("file exceeds 20MB")
	ErrNotImage  = errors.New("file is not an image")
	ErrIndex     = errors.New("image index out of range")
	// ErrTransient marks a fetch that failed for reasons unrelated to the
	// image itself; a Fetcher wraps it so the whole build fails.
	ErrTransient = errors.New("image host unreachable")
)

// Decoder turns a staged file into its preview.
type Decoder func(File) (string, error)

// DataURL encodes f as a data: URL.
func DataURL(f File) (string, error) {
	ct := f.ContentType
	if ct == "" {
		ct = mimetype.Detect(f.Data).String()
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(f.Data), nil
}

type stagedEntry struct {
	id      string
	file    File
	preview string
}

func (e *stagedEntry) reference() Reference {
	f := e.file
	return Reference{Kind: Staged, ID: e.id, File: &f, Preview: e.preview}
}

// Buffer holds files picked by the user in selection order. Previews are
// decoded in the background and written back by entry id, so removals and
// reorders made before a decode finishes never misplace its result.
type Buffer struct {
	mu        sync.Mutex
	entries   []*stagedEntry
	decode    Decoder
	onPreview func(id string)
	pending   sync.WaitGroup
}

// NewBuffer creates a buffer; a nil decoder means DataURL.
func NewBuffer(decode Decoder) *Buffer {
	if decode == nil {
		decode = DataURL
	}
	return &Buffer{decode: decode}
}

// OnPreview registers fn to run after a preview has been filled in.
func (b *Buffer) OnPreview(fn func(id string)) {
	b.mu.Lock()
	b.onPreview = fn
	b.mu.Unlock()
}

// Add validates f, appends it and starts decoding its preview.
func (b *Buffer) Add(f File) (Reference, error) {
	if len(f.Data) == 0 {
		return Reference{}, ErrEmptyFile
	}
	if len(f.Data) > MaxFileSize {
		return Reference{}, ErrTooLarge
	}
	mt := mimetype.Detect(f.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Reference{}, ErrNotImage
	}
	f.ContentType = mt.String()
	if f.Name == "" {
		f.Name = "image" + mt.Extension()
	}

	e := &stagedEntry{id: uuid.NewString(), file: f}
	b.mu.Lock()
	b.entries = append(b.entries, e)
	ref := e.reference()
	b.mu.Unlock()

	b.pending.Add(1)
	go b.fill(e.id, f)
	return ref, nil
}

func (b *Buffer) fill(id string, f File) {
	defer b.pending.Done()

	preview, err := b.decode(f)
	if err != nil {
		return
	}

	b.mu.Lock()
	e := b.find(id)
	if e == nil {
		b.mu.Unlock()
		return
	}
	e.preview = preview
	notify := b.onPreview
	b.mu.Unlock()

	if notify != nil {
		notify(id)
	}
}

func (b *Buffer) find(id string) *stagedEntry {
	for _, e := range b.entries {
		if e.id == id {
			return e
		}
	}
	return nil
}

// Wait blocks until every started decode has finished.
func (b *Buffer) Wait() {
	b.pending.Wait()
}

func (b *Buffer) List() []Reference {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Reference, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.reference()
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *Buffer) Get(id string) (Reference, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e := b.find(id); e != nil {
		return e.reference(), true
	}
	return Reference{}, false
}

func (b *Buffer) RemoveAt(i int) (Reference, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.entries) {
		return Reference{}, ErrIndex
	}
	ref := b.entries[i].reference()
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	return ref, nil
}

// Remove drops the entry with the given id and reports whether it existed.
func (b *Buffer) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.id == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Buffer) Reorder(from, to int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !inRange(from, len(b.entries)) || !inRange(to, len(b.entries)) {
		return ErrIndex
	}
	b.entries = move(b.entries, from, to)
	return nil
}

// Reset empties the buffer, typically after a successful save.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}

func move[T any](s []T, from, to int) []T {
	if from == to {
		return s
	}
	item := s[from]
	s = append(s[:from], s[from+1:]...)
	s = append(s[:to], append([]T{item}, s[to:]...)...)
	return s
}
