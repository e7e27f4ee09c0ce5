package placeimage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"travelmate-web/internal/category"
)

func TestBuildFoodScenario(t *testing.T) {
	reg := category.NewRegistry("https://cdn.example/assets")
	builder := NewBuilder(&fakeFetcher{}, reg, Policy{ReplaceAll: true})

	set := NewImageSet(nil, nil)
	staged, err := set.Stage(pngFile("lunch.png"))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	sub, err := builder.Build(context.Background(), set.Merged(), Replace, Fields{Name: "Lunch", Category: category.Food})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(sub.Files) != 1 || sub.Files[0].Source != staged.ID {
		t.Fatalf("expected the staged file as the only part, got %+v", sub.Files)
	}
	if sub.Payload.Category != "food" {
		t.Fatalf("unexpected category %q", sub.Payload.Category)
	}

	var body bytes.Buffer
	ct, err := sub.Encode(&body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		t.Fatalf("content type: %v", err)
	}
	r := multipart.NewReader(&body, params["boundary"])

	var images int
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		switch part.FormName() {
		case "data":
			var payload map[string]any
			if err := json.NewDecoder(part).Decode(&payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if payload["category"] != "food" || payload["name"] != "Lunch" {
				t.Fatalf("unexpected payload %v", payload)
			}
			if part.Header.Get("Content-Type") != "application/json" {
				t.Fatalf("data part must be json")
			}
		case "images":
			images++
			if part.FileName() != "lunch.png" || part.Header.Get("Content-Type") != "image/png" {
				t.Fatalf("unexpected image part %s %s", part.FileName(), part.Header.Get("Content-Type"))
			}
		}
	}
	if images != 1 {
		t.Fatalf("expected 1 image part, got %d", images)
	}
}

func TestBuildReplaceAllRefetchesRemotes(t *testing.T) {
	reg := category.NewRegistry("")
	fetcher := &fakeFetcher{files: map[string]File{
		"https://x/a.jpg": {Data: []byte("\xff\xd8\xff\xe0jpeg")},
	}}
	builder := NewBuilder(fetcher, reg, Policy{ReplaceAll: true})

	merged := []Reference{RemoteRef("https://x/a.jpg"), RemoteRef("https://x/broken.jpg")}
	sub, err := builder.Build(context.Background(), merged, Replace, Fields{Name: "n"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(sub.Files) != 1 || sub.Files[0].Name != "a.jpg" || sub.Files[0].ContentType != "image/jpeg" {
		t.Fatalf("unexpected files %+v", sub.Files)
	}
	if len(sub.Warnings) != 1 || !strings.Contains(sub.Warnings[0], "broken.jpg") {
		t.Fatalf("expected a warning for the broken image, got %v", sub.Warnings)
	}
	if len(sub.Payload.ImageURLs) != 0 {
		t.Fatalf("replace-all must not send urls")
	}
}

func TestBuildFailsWholeWhenImageHostUnreachable(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: dial tcp: connection refused", ErrTransient)}
	builder := NewBuilder(fetcher, category.NewRegistry(""), Policy{ReplaceAll: true})

	staged, err := NewImageSet(nil, nil).Stage(pngFile("new.png"))
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	merged := []Reference{RemoteRef("https://x/a.jpg"), RemoteRef("https://x/b.jpg"), staged}
	sub, err := builder.Build(context.Background(), merged, Replace, Fields{Name: "n"})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if len(sub.Files) != 0 || len(sub.Warnings) != 0 {
		t.Fatalf("expected no submission, got %+v", sub)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("expected the build to stop at the first failure, got %v", fetcher.calls)
	}
}

func TestBuildWithoutFetcherFails(t *testing.T) {
	builder := NewBuilder(nil, category.NewRegistry(""), Policy{ReplaceAll: true})
	if _, err := builder.Build(context.Background(), []Reference{RemoteRef("https://x/a.jpg")}, Replace, Fields{Name: "n"}); err == nil {
		t.Fatalf("expected an error without a fetcher")
	}
}

func TestBuildRetainsURLsWithoutReplaceAll(t *testing.T) {
	fetcher := &fakeFetcher{}
	builder := NewBuilder(fetcher, category.NewRegistry(""), Policy{})

	merged := []Reference{RemoteRef("https://x/a.jpg"), RemoteRef("https://x/b.jpg")}
	sub, err := builder.Build(context.Background(), merged, Replace, Fields{Name: "n"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("expected no fetches")
	}
	if !equal(sub.Payload.ImageURLs, []string{"https://x/a.jpg", "https://x/b.jpg"}) {
		t.Fatalf("unexpected urls %v", sub.Payload.ImageURLs)
	}
}

func TestBuildCancelledContextFailsWhole(t *testing.T) {
	builder := NewBuilder(&fakeFetcher{}, category.NewRegistry(""), Policy{ReplaceAll: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := builder.Build(ctx, []Reference{RemoteRef("https://x/a.jpg")}, Replace, Fields{Name: "n"})
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestBuildDefaultFallback(t *testing.T) {
	reg := category.NewRegistry("https://cdn.example/assets")

	off := NewBuilder(&fakeFetcher{}, reg, Policy{})
	sub, err := off.Build(context.Background(), nil, Create, Fields{Name: "n", Category: category.Scenic})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(sub.Files) != 0 || len(sub.Payload.ImageURLs) != 0 {
		t.Fatalf("fallback disabled must submit no images")
	}

	on := NewBuilder(&fakeFetcher{}, reg, Policy{DefaultFallback: true})
	sub, err = on.Build(context.Background(), nil, Create, Fields{Name: "n", Category: category.Scenic})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !equal(sub.Payload.ImageURLs, []string{reg.DefaultFor(category.Scenic)}) {
		t.Fatalf("expected scenic default, got %v", sub.Payload.ImageURLs)
	}

	def := reg.DefaultFor(category.Lodging)
	fetching := NewBuilder(&fakeFetcher{files: map[string]File{def: {Data: pngMagic}}}, reg, Policy{DefaultFallback: true, ReplaceAll: true})
	sub, err = fetching.Build(context.Background(), nil, Create, Fields{Name: "n", Category: category.Lodging})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(sub.Files) != 1 || sub.Files[0].Source != def {
		t.Fatalf("expected default as file part, got %+v", sub.Files)
	}

	sub, err = on.Build(context.Background(), nil, Create, Fields{Name: "n"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(sub.Payload.ImageURLs) != 0 {
		t.Fatalf("no category selected must not fall back")
	}
}
