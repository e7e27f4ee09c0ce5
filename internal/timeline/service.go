// Package timeline serves the per-day schedule of a trip.
package timeline

import (
	"context"
	"errors"
	"sort"
	"time"

	"travelmate-web/internal/category"
	"travelmate-web/internal/upstream"
	"travelmate-web/internal/validation"
)

type API interface {
	ListTimeline(ctx context.Context, token, tripID string) ([]upstream.TimelineItem, error)
	CreateTimelineItem(ctx context.Context, token, tripID string, item upstream.TimelineItem) (upstream.TimelineItem, error)
	DeleteTimelineItem(ctx context.Context, token, tripID, itemID string) error
}

var ErrTimeOrder = errors.New("endTime must be after startTime")

// Input is one scheduled visit. Times are HH:MM on a 30 minute grid.
type Input struct {
	PlaceID   string `json:"placeId" validate:"required"`
	PlaceName string `json:"placeName" validate:"max=100"`
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"startTime" validate:"required,halfhour"`
	EndTime   string `json:"endTime" validate:"required,halfhour"`
	Category  string `json:"category" validate:"category"`
	Memo      string `json:"memo" validate:"max=1000"`
}

type Entry struct {
	upstream.TimelineItem
	CategoryLabel string `json:"categoryLabel"`
	Color         string `json:"color"`
}

type Day struct {
	Date  string  `json:"date"`
	Items []Entry `json:"items"`
}

type Service struct {
	api      API
	registry *category.Registry
	validate *validation.Validator
}

func NewService(api API, registry *category.Registry) *Service {
	return &Service{api: api, registry: registry, validate: validation.New()}
}

// List groups the trip's items by day, days ascending, items by start time.
func (s *Service) List(ctx context.Context, token, tripID string) ([]Day, error) {
	items, err := s.api.ListTimeline(ctx, token, tripID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return clock(items[i].StartTime) < clock(items[j].StartTime)
	})

	days := []Day{}
	for _, it := range items {
		if n := len(days); n == 0 || days[n-1].Date != it.Date {
			days = append(days, Day{Date: it.Date})
		}
		days[len(days)-1].Items = append(days[len(days)-1].Items, s.entry(it))
	}
	return days, nil
}

func (s *Service) Create(ctx context.Context, token, tripID string, in Input) (Entry, error) {
	if err := s.validate.Struct(in); err != nil {
		return Entry{}, err
	}
	start, end := clock(in.StartTime), clock(in.EndTime)
	if end <= start {
		return Entry{}, ErrTimeOrder
	}

	item, err := s.api.CreateTimelineItem(ctx, token, tripID, upstream.TimelineItem{
		PlaceID:   in.PlaceID,
		PlaceName: in.PlaceName,
		Date:      in.Date,
		StartTime: formatClock(start),
		EndTime:   formatClock(end),
		Category:  category.Parse(in.Category).String(),
		Memo:      in.Memo,
	})
	if err != nil {
		return Entry{}, err
	}
	return s.entry(item), nil
}

func (s *Service) Delete(ctx context.Context, token, tripID, itemID string) error {
	return s.api.DeleteTimelineItem(ctx, token, tripID, itemID)
}

func (s *Service) entry(it upstream.TimelineItem) Entry {
	c := category.Parse(it.Category)
	return Entry{TimelineItem: it, CategoryLabel: c.Label(), Color: s.registry.Color(c)}
}

// clock returns the offset from midnight, or -1 for an unparsable value.
func clock(v string) time.Duration {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return -1
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

func formatClock(d time.Duration) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("15:04")
}
