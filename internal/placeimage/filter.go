package placeimage

import (
	"strings"

	"travelmate-web/internal/category"
)

var authenticSchemes = []string{"http://", "https://", "data:", "blob:"}

// Filter tells genuine user photos apart from seeded default assets.
type Filter struct {
	fingerprints map[string]struct{}
}

// NewFilter takes the identifiers of every known default asset, as returned
// by category.Registry.AllDefaultIdentifiers.
func NewFilter(identifiers map[string]struct{}) *Filter {
	fp := make(map[string]struct{}, len(identifiers))
	for id := range identifiers {
		fp[id] = struct{}{}
	}
	return &Filter{fingerprints: fp}
}

// IsDefault reports whether ref is one of the known default asset URLs.
// Only the full URL counts: a user photo that happens to share a default's
// file name is still a user photo.
func (f *Filter) IsDefault(ref string) bool {
	_, ok := f.fingerprints[category.AssetKey(ref)]
	return ok
}

func (f *Filter) IsAuthentic(ref string, deleted URLSet) bool {
	if strings.TrimSpace(ref) == "" {
		return false
	}
	if !hasAuthenticScheme(ref) {
		return false
	}
	if f.IsDefault(ref) {
		return false
	}
	return !deleted.Has(ref)
}

// Authentic keeps the authentic references of refs in their original order.
func (f *Filter) Authentic(refs []string, deleted URLSet) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if f.IsAuthentic(ref, deleted) {
			out = append(out, ref)
		}
	}
	return out
}

func hasAuthenticScheme(ref string) bool {
	lower := strings.ToLower(ref)
	for _, scheme := range authenticSchemes {
		if strings.HasPrefix(lower, scheme) && len(lower) > len(scheme) {
			return true
		}
	}
	return false
}
