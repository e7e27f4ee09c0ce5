// Package deletion keeps the server image URLs a user removed from a place
// until a successful save makes the server agree.
package deletion

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
)

// Store is a plain key-value store. Values are JSON arrays of URLs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Record serialises read-modify-write cycles per place, so two editors of
// the same place in one process cannot lose each other's removals.
type Record struct {
	store Store
	locks [64]sync.Mutex
}

func NewRecord(store Store) *Record {
	return &Record{store: store}
}

func (r *Record) lock(placeID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(placeID))
	mu := &r.locks[h.Sum32()%uint32(len(r.locks))]
	mu.Lock()
	return mu.Unlock
}

func key(placeID string) string {
	return "place:" + placeID
}

// Load returns the removed URLs of a place in the order they were removed.
func (r *Record) Load(ctx context.Context, placeID string) ([]string, error) {
	raw, ok, err := r.store.Get(ctx, key(placeID))
	if err != nil {
		return nil, fmt.Errorf("load deletion record %s: %w", placeID, err)
	}
	if !ok {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil, fmt.Errorf("decode deletion record %s: %w", placeID, err)
	}
	return urls, nil
}

// Add records urls as removed. Already recorded URLs are skipped.
func (r *Record) Add(ctx context.Context, placeID string, urls ...string) error {
	defer r.lock(placeID)()
	current, err := r.Load(ctx, placeID)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(current))
	for _, u := range current {
		seen[u] = struct{}{}
	}
	changed := false
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		current = append(current, u)
		changed = true
	}
	if !changed {
		return nil
	}
	return r.save(ctx, placeID, current)
}

// Reconcile drops every recorded URL the server no longer reports; those
// removals are confirmed. It returns what is still pending.
func (r *Record) Reconcile(ctx context.Context, placeID string, serverURLs []string) ([]string, error) {
	defer r.lock(placeID)()
	current, err := r.Load(ctx, placeID)
	if err != nil || len(current) == 0 {
		return current, err
	}
	reported := make(map[string]struct{}, len(serverURLs))
	for _, u := range serverURLs {
		reported[u] = struct{}{}
	}
	var pending []string
	for _, u := range current {
		if _, ok := reported[u]; ok {
			pending = append(pending, u)
		}
	}
	if len(pending) == len(current) {
		return current, nil
	}
	if err := r.save(ctx, placeID, pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func (r *Record) Clear(ctx context.Context, placeID string) error {
	defer r.lock(placeID)()
	return r.clear(ctx, placeID)
}

func (r *Record) clear(ctx context.Context, placeID string) error {
	if err := r.store.Delete(ctx, key(placeID)); err != nil {
		return fmt.Errorf("clear deletion record %s: %w", placeID, err)
	}
	return nil
}

func (r *Record) save(ctx context.Context, placeID string, urls []string) error {
	if len(urls) == 0 {
		return r.clear(ctx, placeID)
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, key(placeID), raw); err != nil {
		return fmt.Errorf("save deletion record %s: %w", placeID, err)
	}
	return nil
}
