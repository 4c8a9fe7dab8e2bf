package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/happenr/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone    SortOrder = ""
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
	SortByTown  SortOrder = "town"
)

func (o SortOrder) valid() bool {
	switch o {
	case SortNone, SortByDate, SortByTitle, SortByTown:
		return true
	}
	return false
}

// sortEvents sorts a slice of events based on the specified sort order.
// SortNone keeps the order the service returned.
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByTitle:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Title), strings.ToLower(events[j].Title)
			if ti != tj {
				return ti < tj
			}
			// If titles are equal, sort by date
			return compareByDate(events[i], events[j])
		})
	case SortByTown:
		sort.SliceStable(events, func(i, j int) bool {
			ti, tj := strings.ToLower(events[i].Location.Town), strings.ToLower(events[j].Location.Town)
			if ti != tj {
				// Events without a town go last
				if ti == "" || tj == "" {
					return tj == ""
				}
				return ti < tj
			}
			return compareByDate(events[i], events[j])
		})
	}
}

// startOf returns the next occurrence when known, else date_from.
func startOf(evt *event.Event) int64 {
	if evt.DateNext != nil {
		return *evt.DateNext
	}
	return evt.DateFrom
}

// compareByDate compares two events by their date
// Returns true if event i should come before event j
func compareByDate(i, j *event.Event) bool {
	dateI, dateJ := startOf(i), startOf(j)

	// If both dates are valid, compare them
	if dateI > 0 && dateJ > 0 {
		return dateI < dateJ
	}

	// If only one date is valid, put the valid one first
	if dateI > 0 {
		return true
	}
	if dateJ > 0 {
		return false
	}

	// If neither has a valid date, sort by title
	return strings.ToLower(i.Title) < strings.ToLower(j.Title)
}
