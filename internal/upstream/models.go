package upstream

import (
	"strings"

	"travelmate-web/internal/category"
	"travelmate-web/internal/placeimage"
)

type Trip struct {
	ID          string `json:"tripId"`
	Title       string `json:"title"`
	Destination string `json:"destination"`
	Type        string `json:"type"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Memo        string `json:"memo"`
	ImageURL    string `json:"imageUrl"`
	Status      string `json:"status,omitempty"`
}

type Place struct {
	ID            string   `json:"placeId"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	ImageURLs     []string `json:"imageUrls"`
	CoverImageURL string   `json:"coverImageUrl,omitempty"`
	CreatedAt     string   `json:"createdAt"`
}

// ImageView is the part of a place the image pipeline works on.
func (p Place) ImageView() placeimage.Place {
	return placeimage.Place{
		Category:      category.Parse(p.Category),
		CoverImageURL: p.CoverImageURL,
		ImageURLs:     p.ImageURLs,
	}
}

// CreatedDate is the calendar day part of CreatedAt ("2024-09-07").
func (p Place) CreatedDate() string {
	if i := strings.IndexByte(p.CreatedAt, 'T'); i >= 0 {
		return p.CreatedAt[:i]
	}
	return p.CreatedAt
}

type TimelineItem struct {
	ID        string `json:"itemId,omitempty"`
	PlaceID   string `json:"placeId"`
	PlaceName string `json:"placeName,omitempty"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Category  string `json:"category"`
	Memo      string `json:"memo"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}
