package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"travelmate-web/internal/config"
	"travelmate-web/internal/deletion"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "", ServerPort: ":0", AssetBaseURL: "https://cdn.example/assets", DeletionStore: "memory"}
}

func TestHealthRoute(t *testing.T) {
	s := NewServer(testConfig(), nil, nil)
	defer s.Close()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestErrorsRenderAsJSON(t *testing.T) {
	s := NewServer(testConfig(), nil, nil)
	defer s.Close()

	req := httptest.NewRequest(http.MethodGet, "/trips/", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["error"] == "" {
		t.Fatalf("expected json error body, got %v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/editor/sessions/unknown", nil)
	req.Header.Set("Authorization", "Bearer tok")
	resp, _ = s.App.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.StatusCode)
	}
}

func TestDeletionStoreSelection(t *testing.T) {
	if _, ok := deletionStore(config.Config{DeletionStore: "memory"}, nil, nil).(*deletion.MemoryStore); !ok {
		t.Fatalf("expected memory store")
	}
	if _, ok := deletionStore(config.Config{DeletionStore: "postgres"}, nil, nil).(*deletion.MemoryStore); !ok {
		t.Fatalf("missing postgres should fall back to memory")
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := deletionStore(config.Config{DeletionStore: "Redis"}, nil, rdb)
	if _, ok := store.(*deletion.RedisStore); !ok {
		t.Fatalf("expected redis store")
	}
	if err := store.Set(context.Background(), "k", []byte(`["u"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
}

func TestLoadRegistryFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.CategoryAssetsFile = "/does/not/exist.yaml"
	r := loadRegistry(cfg)
	if r.Generic() != "https://cdn.example/assets/defaults/emptyimage.png" {
		t.Fatalf("unexpected generic %q", r.Generic())
	}
}
