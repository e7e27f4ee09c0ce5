// Package placeimage resolves which images a place shows and submits.
//
// Server URLs and locally staged uploads are merged into one ordered list,
// seeded default assets are filtered out, and a single cover is chosen per
// place. The same rules apply to create, edit, delete and list views.
package placeimage

import (
	"encoding/json"
	"time"
)

type Kind int

const (
	Remote Kind = iota
	Staged
)

func (k Kind) String() string {
	if k == Staged {
		return "staged"
	}
	return "remote"
}

// File is an upload held in memory until it is submitted.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Reference is either a persisted image addressed by URL or a staged file.
// Preview is only ever produced from File by the staging buffer.
type Reference struct {
	Kind       Kind
	URL        string
	UploadedAt *time.Time

	ID      string
	File    *File
	Preview string
}

func RemoteRef(url string) Reference {
	return Reference{Kind: Remote, URL: url}
}

func (r Reference) IsStaged() bool {
	return r.Kind == Staged
}

// Src is what an <img> tag renders: the URL or the preview data.
func (r Reference) Src() string {
	if r.IsStaged() {
		return r.Preview
	}
	return r.URL
}

type referenceJSON struct {
	Kind       string     `json:"kind"`
	Src        string     `json:"src"`
	URL        string     `json:"url,omitempty"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
	ID         string     `json:"id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Pending    bool       `json:"pending,omitempty"`
}

func (r Reference) MarshalJSON() ([]byte, error) {
	out := referenceJSON{
		Kind:       r.Kind.String(),
		Src:        r.Src(),
		URL:        r.URL,
		UploadedAt: r.UploadedAt,
		ID:         r.ID,
	}
	if r.IsStaged() {
		if r.File != nil {
			out.Name = r.File.Name
		}
		out.Pending = r.Preview == ""
	}
	return json.Marshal(out)
}

// URLSet is a set of image URLs, typically the removed images of one place.
type URLSet map[string]struct{}

func NewURLSet(urls ...string) URLSet {
	s := make(URLSet, len(urls))
	for _, u := range urls {
		s[u] = struct{}{}
	}
	return s
}

func (s URLSet) Has(url string) bool {
	_, ok := s[url]
	return ok
}
