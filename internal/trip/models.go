package trip

import "time"

type Status string

const (
	StatusNew  Status = "New"
	StatusPast Status = "Past"
)

// PageSize is the number of trip cards per list page.
const PageSize = 6

// Summary is one trip card.
type Summary struct {
	ID          string `json:"tripId"`
	Title       string `json:"title"`
	Destination string `json:"destination"`
	Type        string `json:"type"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Period      string `json:"period"`
	Memo        string `json:"memo,omitempty"`
	Status      Status `json:"status"`
	Thumbnail   string `json:"thumbnail"`
}

type Page struct {
	Status    Status    `json:"status"`
	Trips     []Summary `json:"trips"`
	Page      int       `json:"page"`
	PageCount int       `json:"pageCount"`
	Total     int       `json:"total"`
}

// Input is the trip form. Form tags let the handlers read multipart fields.
type Input struct {
	Title       string `json:"title" form:"title" validate:"required,max=100"`
	Destination string `json:"destination" form:"destination" validate:"max=100"`
	Type        string `json:"type" form:"type" validate:"required,triptype"`
	StartDate   string `json:"startDate" form:"startDate" validate:"required,date"`
	EndDate     string `json:"endDate" form:"endDate" validate:"required,date"`
	Memo        string `json:"memo" form:"memo" validate:"max=1000"`
}

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, s)
	return t, err == nil
}
