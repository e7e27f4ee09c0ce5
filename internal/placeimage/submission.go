package placeimage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/textproto"
	"strings"

	"travelmate-web/internal/category"

	"github.com/gabriel-vasile/mimetype"
)

type Mode int

const (
	Create Mode = iota
	Replace
)

func (m Mode) String() string {
	if m == Replace {
		return "replace"
	}
	return "create"
}

var errNoFetcher = errors.New("no image fetcher configured")

// Fetcher downloads an already hosted image so it can be resubmitted.
type Fetcher interface {
	FetchImage(ctx context.Context, url string) (File, error)
}

// Policy switches the optional submission behaviours.
type Policy struct {
	// ReplaceAll re-sends retained server images as file parts. The backend
	// replaces the whole image set of a place on every save.
	ReplaceAll bool
	// DefaultFallback submits the category default when the set is empty.
	DefaultFallback bool
}

// Fields are the non-image parts of a place form.
type Fields struct {
	Name        string
	Description string
	Category    category.Category
}

type Payload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

type FilePart struct {
	Name        string
	ContentType string
	Data        []byte
	// Source is the staged id or the URL the part was fetched from.
	Source string
}

// Submission is one complete save request. It is either sent whole or not at all.
type Submission struct {
	Mode     Mode
	Payload  Payload
	Files    []FilePart
	Warnings []string
}

// Builder turns a merged image list into a Submission.
type Builder struct {
	fetcher  Fetcher
	registry *category.Registry
	policy   Policy
}

func NewBuilder(fetcher Fetcher, registry *category.Registry, policy Policy) *Builder {
	return &Builder{fetcher: fetcher, registry: registry, policy: policy}
}

func (b *Builder) Policy() Policy {
	return b.policy
}

// Build keeps merged order in the file parts. An image the host answers
// for but cannot serve (gone, too large, not an image) is dropped with a
// warning. A transient fetch failure or a cancelled context fails the whole
// build, so nothing partial is ever sent.
func (b *Builder) Build(ctx context.Context, merged []Reference, mode Mode, fields Fields) (Submission, error) {
	sub := Submission{
		Mode: mode,
		Payload: Payload{
			Name:        fields.Name,
			Description: fields.Description,
			Category:    fields.Category.String(),
		},
	}

	for _, ref := range merged {
		switch {
		case ref.IsStaged():
			if ref.File == nil {
				continue
			}
			sub.Files = append(sub.Files, FilePart{
				Name:        ref.File.Name,
				ContentType: ref.File.ContentType,
				Data:        ref.File.Data,
				Source:      ref.ID,
			})
		case b.policy.ReplaceAll:
			if err := b.appendFetched(ctx, &sub, ref.URL); err != nil {
				return Submission{}, err
			}
		default:
			sub.Payload.ImageURLs = append(sub.Payload.ImageURLs, ref.URL)
		}
	}

	if b.policy.DefaultFallback && len(sub.Files) == 0 && len(sub.Payload.ImageURLs) == 0 && fields.Category.IsValid() {
		def := b.registry.DefaultFor(fields.Category)
		if b.policy.ReplaceAll {
			if err := b.appendFetched(ctx, &sub, def); err != nil {
				return Submission{}, err
			}
		} else {
			sub.Payload.ImageURLs = []string{def}
		}
	}
	return sub, nil
}

func (b *Builder) appendFetched(ctx context.Context, sub *Submission, url string) error {
	if b.fetcher == nil {
		return fmt.Errorf("fetch %s: %w", url, errNoFetcher)
	}
	f, err := b.fetcher.FetchImage(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, ErrTransient) {
			return fmt.Errorf("fetch %s: %w", url, err)
		}
		log.Printf("re-encode of %s failed: %v", url, err)
		sub.Warnings = append(sub.Warnings, fmt.Sprintf("image %s dropped: %v", url, err))
		return nil
	}
	if f.ContentType == "" {
		f.ContentType = mimetype.Detect(f.Data).String()
	}
	if f.Name == "" {
		f.Name = category.AssetName(url)
	}
	if f.Name == "" {
		f.Name = fmt.Sprintf("image-%d%s", len(sub.Files)+1, mimetype.Detect(f.Data).Extension())
	}
	sub.Files = append(sub.Files, FilePart{Name: f.Name, ContentType: f.ContentType, Data: f.Data, Source: url})
	return nil
}

// Encode writes the multipart body: a "data" JSON part and one "images"
// part per file. It returns the Content-Type header to send with it.
func (s Submission) Encode(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)

	payload, err := json.Marshal(s.Payload)
	if err != nil {
		return "", err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="data"; filename="blob"`)
	h.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(payload); err != nil {
		return "", err
	}

	for _, f := range s.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, escapeQuotes(f.Name)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(part, bytes.NewReader(f.Data)); err != nil {
			return "", err
		}
	}

	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
