package category

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Asset is the default image and accent color for one category.
type Asset struct {
	Image string `yaml:"image"`
	Color string `yaml:"color"`
}

// Registry maps every category to its default asset. Lookups are total:
// unknown categories resolve to the generic asset.
type Registry struct {
	assets  map[Category]Asset
	generic Asset
	logo    string
}

const neutralColor = "#587CFF"

var builtinAssets = map[Category]Asset{
	Scenic:      {Image: "defaults/scenic.png", Color: "#EF4444"},
	Activity:    {Image: "defaults/activity.png", Color: "#F97316"},
	Shopping:    {Image: "defaults/shopping.png", Color: "#2DD4BF"},
	Food:        {Image: "defaults/food.png", Color: "#22C55E"},
	Lodging:     {Image: "defaults/lodging.png", Color: "#A855F7"},
	CafeDessert: {Image: "defaults/cafe-dessert.png", Color: "#FACC15"},
}

const (
	genericImage = "defaults/emptyimage.png"
	logoImage    = "defaults/logo.png"
)

// NewRegistry builds the built-in registry with asset paths resolved against baseURL.
func NewRegistry(baseURL string) *Registry {
	r := &Registry{
		assets:  make(map[Category]Asset, len(builtinAssets)),
		generic: Asset{Image: resolve(baseURL, genericImage), Color: neutralColor},
		logo:    resolve(baseURL, logoImage),
	}
	for c, a := range builtinAssets {
		r.assets[c] = Asset{Image: resolve(baseURL, a.Image), Color: a.Color}
	}
	return r
}

type assetFile struct {
	Generic    Asset            `yaml:"generic"`
	Logo       string           `yaml:"logo"`
	Categories map[string]Asset `yaml:"categories"`
}

// LoadFile reads a YAML asset table on top of the built-in one:
//
//	generic:
//	  image: https://cdn.example/default/empty.png
//	categories:
//	  lodging:
//	    image: https://cdn.example/default/hotel.png
//	    color: "#A855F7"
//
// Categories missing from the file keep their built-in values. Keys may be
// slugs or UI labels.
func LoadFile(filePath, baseURL string) (*Registry, error) {
	r := NewRegistry(baseURL)
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read category assets: %w", err)
	}
	var f assetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse category assets: %w", err)
	}
	for key, a := range f.Categories {
		c := Parse(key)
		if !c.IsValid() {
			return nil, fmt.Errorf("unknown category %q in %s", key, filePath)
		}
		r.assets[c] = r.merge(r.assets[c], a, baseURL)
	}
	r.generic = r.merge(r.generic, f.Generic, baseURL)
	if f.Logo != "" {
		r.logo = resolve(baseURL, f.Logo)
	}
	return r, nil
}

func (r *Registry) merge(base, override Asset, baseURL string) Asset {
	if override.Image != "" {
		base.Image = resolve(baseURL, override.Image)
	}
	if override.Color != "" {
		base.Color = override.Color
	}
	return base
}

// DefaultFor returns the default image for c, or the generic default.
func (r *Registry) DefaultFor(c Category) string {
	if a, ok := r.assets[c]; ok {
		return a.Image
	}
	return r.generic.Image
}

// Generic is the image used when nothing else applies.
func (r *Registry) Generic() string {
	return r.generic.Image
}

// Logo is the default trip cover.
func (r *Registry) Logo() string {
	return r.logo
}

// Color returns the accent color for tags and badges.
func (r *Registry) Color(c Category) string {
	if a, ok := r.assets[c]; ok {
		return a.Color
	}
	return r.generic.Color
}

// AllDefaultIdentifiers returns the resolved URL of every default image,
// keyed by AssetKey. The authenticity filter builds its fingerprint set from it.
func (r *Registry) AllDefaultIdentifiers() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.assets)+2)
	add := func(ref string) {
		if key := AssetKey(ref); key != "" {
			ids[key] = struct{}{}
		}
	}
	for _, a := range r.assets {
		add(a.Image)
	}
	add(r.generic.Image)
	add(r.logo)
	return ids
}

// AssetKey is ref without query or fragment, so a cache-busted default
// ("hotel.png?v=2") still matches its registry entry.
func AssetKey(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 && !strings.HasPrefix(ref, "data:") {
		ref = ref[:i]
	}
	return strings.TrimSpace(ref)
}

// AssetName returns the last path segment of ref without query or fragment.
func AssetName(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	if strings.HasPrefix(ref, "data:") {
		return ""
	}
	base := path.Base(ref)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func resolve(baseURL, ref string) string {
	if strings.Contains(ref, "://") || baseURL == "" {
		return ref
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ref, "/")
}
