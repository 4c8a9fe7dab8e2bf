package event

import (
	"strings"
	"time"
)

// Mapper converts raw event nodes into Event records.
type Mapper struct {
	// Location is used for service dates that carry no zone.
	// time.Local when nil.
	Location *time.Location
}

// FromNode maps a node using the local time zone.
func FromNode(n *Node) *Event {
	return Mapper{}.Map(n)
}

// Map converts a single node. It never fails: values that do not parse
// become zero timestamps or false flags.
func (m Mapper) Map(n *Node) *Event {
	loc := m.Location
	if loc == nil {
		loc = time.Local
	}

	evt := &Event{
		ID:         n.ID,
		RecordDate: ParseTimestamp(n.RecordDate, loc),
		Geocode:    n.Geocode,
		Langcode:   n.Langcode,
		SourceLink: n.SourceLink,
		DetailLink: n.DetailLink,
		Title:      n.Title,
		Content:    n.Content,
		ImageURL:   n.ImageURL,
		Location: Location{
			Town:     n.Location.Town,
			Region:   n.Location.Region,
			Country:  n.Location.Country,
			Accuracy: n.Location.Accuracy,
		},
		Longitude: n.Longitude,
		Latitude:  n.Latitude,
		DateFrom:  ParseTimestamp(n.DateFrom, loc),
		DateTo:    ParseTimestamp(n.DateTo, loc),
		URL:       n.URL,
		Email:     n.Email,
		Performer: n.Performer,
		Organizer: n.Organizer,
		Venue:     n.Venue,
		DatesText: n.DatesText,
		Dates:     make([]DateRange, 0, len(n.Dates)),
		Price: Price{
			Text:     n.Price.Text,
			Min:      n.Price.Min,
			Max:      n.Price.Max,
			Currency: n.Price.Currency,
		},
		TicketingURL: n.TicketingURL,
		Free:         flag(n.Free),
		Cancelled:    flag(n.Cancelled),
		Postponed:    flag(n.Postponed),
		SoldOut:      flag(n.SoldOut),
		Tags:         make([]string, 0, len(n.Tags)),
	}

	// date_next mirrors date_from but only when it is a real point in time.
	if evt.DateFrom > 0 {
		next := evt.DateFrom
		evt.DateNext = &next
	}

	for _, d := range n.Dates {
		evt.Dates = append(evt.Dates, DateRange{
			StartDate: ParseScheduleTime(d.StartDate, d.StartTime, loc),
			EndDate:   ParseScheduleTime(d.EndDate, d.EndTime, loc),
		})
	}

	evt.Tags = append(evt.Tags, n.Tags...)

	return evt
}

// MapAll maps nodes in document order.
func (m Mapper) MapAll(nodes []Node) []*Event {
	events := make([]*Event, 0, len(nodes))
	for i := range nodes {
		events = append(events, m.Map(&nodes[i]))
	}
	return events
}

// flag reports whether a service boolean is set ("1").
func flag(s string) bool {
	return strings.TrimSpace(s) == "1"
}
