package placeimage

import "travelmate-web/internal/category"

// Place is the part of a place record the cover selection looks at.
type Place struct {
	Category      category.Category
	CoverImageURL string
	ImageURLs     []string
}

// Selector picks the one image shown for a place in list and summary views.
type Selector struct {
	filter   *Filter
	registry *category.Registry
}

func NewSelector(filter *Filter, registry *category.Registry) *Selector {
	return &Selector{filter: filter, registry: registry}
}

// CoverFor tries, in order: the backend cover if authentic, the first
// authentic image, the category default. DefaultFor already falls back to
// the generic default.
func (s *Selector) CoverFor(p Place, deleted URLSet) Reference {
	if p.CoverImageURL != "" && s.filter.IsAuthentic(p.CoverImageURL, deleted) {
		return RemoteRef(p.CoverImageURL)
	}
	for _, u := range p.ImageURLs {
		if s.filter.IsAuthentic(u, deleted) {
			return RemoteRef(u)
		}
	}
	return RemoteRef(s.registry.DefaultFor(p.Category))
}
