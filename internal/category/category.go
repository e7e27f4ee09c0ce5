// Package category holds the fixed set of place categories and the registry
// of default images and accent colors attached to them.
package category

import "strings"

type Category string

const (
	Unknown     Category = ""
	Scenic      Category = "scenic"
	Activity    Category = "activity"
	Shopping    Category = "shopping"
	Food        Category = "food"
	Lodging     Category = "lodging"
	CafeDessert Category = "cafe-dessert"
)

// All lists the categories in the order the UI presents them.
var All = []Category{Scenic, Activity, Shopping, Food, Lodging, CafeDessert}

// aliases maps the labels the web UI shows to their category.
var aliases = map[string]Category{
	"관광":     Scenic,
	"체험":     Activity,
	"쇼핑":     Shopping,
	"음식":     Food,
	"숙소":     Lodging,
	"카페/디저트": CafeDessert,
	"카페디저트":  CafeDessert,
	"디저트":    CafeDessert,
}

var labels = map[Category]string{
	Scenic:      "관광",
	Activity:    "체험",
	Shopping:    "쇼핑",
	Food:        "음식",
	Lodging:     "숙소",
	CafeDessert: "카페/디저트",
}

// UnassignedLabel is shown for places without a category.
const UnassignedLabel = "미지정"

// Parse accepts a category slug or a UI label. Anything else is Unknown.
func Parse(s string) Category {
	s = strings.TrimSpace(s)
	if c := Category(strings.ToLower(s)); c.IsValid() {
		return c
	}
	if c, ok := aliases[s]; ok {
		return c
	}
	return Unknown
}

func (c Category) IsValid() bool {
	switch c {
	case Scenic, Activity, Shopping, Food, Lodging, CafeDessert:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Label returns the display label, or UnassignedLabel for Unknown.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return UnassignedLabel
}
