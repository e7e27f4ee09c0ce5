package placeimage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"travelmate-web/internal/category"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func pngFile(name string) File {
	data := append([]byte{}, pngMagic...)
	data = append(data, name...)
	return File{Name: name, Data: data}
}

func lodgingRegistry(t *testing.T) *category.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.yaml")
	data := "categories:\n  lodging:\n    image: https://cdn.example/default/hotel.png\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write assets: %v", err)
	}
	r, err := category.LoadFile(path, "https://cdn.example/assets")
	if err != nil {
		t.Fatalf("load assets: %v", err)
	}
	return r
}

type fakeFetcher struct {
	files map[string]File
	err   error
	calls []string
}

var errFetch = errors.New("fetch failed")

func (f *fakeFetcher) FetchImage(_ context.Context, url string) (File, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return File{}, f.err
	}
	file, ok := f.files[url]
	if !ok {
		return File{}, errFetch
	}
	return file, nil
}
