package event

import "time"

// Event is a single happening returned by the Happenr service.
// Timestamps are unix seconds; zero means the service value did not parse.
type Event struct {
	ID           string      `json:"id"`
	RecordDate   int64       `json:"record_date"` // when the service last updated the record
	Geocode      string      `json:"geocode"`
	Langcode     string      `json:"langcode"`
	SourceLink   string      `json:"source_link"`
	DetailLink   string      `json:"detail_link"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	ImageURL     string      `json:"image_url"`
	Location     Location    `json:"location"`
	Longitude    string      `json:"longitude"`
	Latitude     string      `json:"latitude"`
	DateFrom     int64       `json:"date_from"`
	DateNext     *int64      `json:"date_next,omitempty"`
	DateTo       int64       `json:"date_to"`
	URL          string      `json:"url"`
	Email        string      `json:"email"`
	Performer    string      `json:"performer"`
	Organizer    string      `json:"organizer"`
	Venue        string      `json:"venue"`
	DatesText    string      `json:"dates_text"`
	Dates        []DateRange `json:"dates"`
	Price        Price       `json:"price"`
	TicketingURL string      `json:"ticketing_url"`
	Free         bool        `json:"free"`
	Cancelled    bool        `json:"cancelled"`
	Postponed    bool        `json:"postponed"`
	SoldOut      bool        `json:"soldout"`
	Tags         []string    `json:"tags"`
}

// Location describes where an event takes place.
type Location struct {
	Town     string `json:"town"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Accuracy string `json:"accuracy"`
}

// Price holds the pricing text and bounds exactly as the service reports them.
type Price struct {
	Text     string `json:"text"`
	Min      string `json:"min"`
	Max      string `json:"max"`
	Currency string `json:"currency"`
}

// DateRange is one scheduled occurrence of an event.
type DateRange struct {
	StartDate int64 `json:"start_date"`
	EndDate   int64 `json:"end_date"`
}

// Status summarizes the event's availability flags.
// Returns "" for an event that is on as planned.
func (e *Event) Status() string {
	switch {
	case e.Cancelled:
		return "cancelled"
	case e.Postponed:
		return "postponed"
	case e.SoldOut:
		return "sold out"
	default:
		return ""
	}
}

// Start returns DateFrom as a time, or the zero time when it is unset.
func (e *Event) Start() time.Time {
	return unixTime(e.DateFrom)
}

// End returns DateTo as a time, or the zero time when it is unset.
func (e *Event) End() time.Time {
	return unixTime(e.DateTo)
}

// Start returns the occurrence start, or the zero time when it is unset.
func (d DateRange) Start() time.Time {
	return unixTime(d.StartDate)
}

// End returns the occurrence end, or the zero time when it is unset.
func (d DateRange) End() time.Time {
	return unixTime(d.EndDate)
}

func unixTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}
