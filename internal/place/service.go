// Package place serves the place list of a trip.
package place

import (
	"context"
	"log"

	"travelmate-web/internal/category"
	"travelmate-web/internal/deletion"
	"travelmate-web/internal/placeimage"
	"travelmate-web/internal/upstream"
)

type API interface {
	GetTrip(ctx context.Context, token, tripID string) (upstream.Trip, error)
	ListPlaces(ctx context.Context, token, tripID string) ([]upstream.Place, error)
	DeletePlace(ctx context.Context, token, tripID, placeID string) error
}

type Card struct {
	PlaceID       string               `json:"placeId"`
	Name          string               `json:"name"`
	Category      string               `json:"category"`
	CategoryLabel string               `json:"categoryLabel"`
	Color         string               `json:"color"`
	Memo          string               `json:"memo"`
	Date          string               `json:"date"`
	Cover         placeimage.Reference `json:"cover"`
}

type Listing struct {
	TripTitle string `json:"tripTitle"`
	Places    []Card `json:"places"`
}

type Service struct {
	api      API
	record   *deletion.Record
	registry *category.Registry
	selector *placeimage.Selector
}

func NewService(api API, record *deletion.Record, registry *category.Registry) *Service {
	filter := placeimage.NewFilter(registry.AllDefaultIdentifiers())
	return &Service{
		api:      api,
		record:   record,
		registry: registry,
		selector: placeimage.NewSelector(filter, registry),
	}
}

// List returns one card per place. The trip title is cosmetic: if it cannot
// be loaded the list is still served with an empty title.
func (s *Service) List(ctx context.Context, token, tripID string) (Listing, error) {
	var out Listing
	trip, err := s.api.GetTrip(ctx, token, tripID)
	switch {
	case upstream.IsUnauthorized(err):
		return Listing{}, err
	case err != nil:
		log.Printf("place: trip %s title: %v", tripID, err)
	default:
		out.TripTitle = trip.Title
	}

	places, err := s.api.ListPlaces(ctx, token, tripID)
	if err != nil {
		return Listing{}, err
	}

	out.Places = make([]Card, 0, len(places))
	for _, p := range places {
		out.Places = append(out.Places, s.card(ctx, p))
	}
	return out, nil
}

func (s *Service) card(ctx context.Context, p upstream.Place) Card {
	deleted, err := s.record.Load(ctx, p.ID)
	if err != nil {
		log.Printf("place: %v", err)
	}
	cat := category.Parse(p.Category)
	return Card{
		PlaceID:       p.ID,
		Name:          p.Name,
		Category:      cat.String(),
		CategoryLabel: cat.Label(),
		Color:         s.registry.Color(cat),
		Memo:          p.Description,
		Date:          p.CreatedDate(),
		Cover:         s.selector.CoverFor(p.ImageView(), placeimage.NewURLSet(deleted...)),
	}
}

// Delete removes the place and forgets its removed images.
func (s *Service) Delete(ctx context.Context, token, tripID, placeID string) error {
	if err := s.api.DeletePlace(ctx, token, tripID, placeID); err != nil {
		return err
	}
	if err := s.record.Clear(ctx, placeID); err != nil {
		log.Printf("place: %v", err)
	}
	return nil
}
