package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/happenr/internal/calendar"
	"github.com/pfrederiksen/happenr/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

const displayDateLayout = "Mon 02 Jan 2006 15:04"

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case FormatText, FormatJSON, FormatICS:
		return format, nil
	}
	return "", fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", s)
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt  time.Time      `json:"checked_at"`
	Events     []*event.Event `json:"events"`
	EventCount int            `json:"event_count"`
	NewOnly    bool           `json:"new_only,omitempty"`
	Snapshot   string         `json:"snapshot,omitempty"`

	// Location is the time zone dates are shown in; nil means local time.
	Location *time.Location `json:"-"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateICS(result.Events...))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteDetails writes a single event in the specified format
func WriteDetails(w io.Writer, evt *event.Event, format OutputFormat, loc *time.Location) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, evt)
	case FormatText:
		return writeEventDetails(w, evt, loc)
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateICS(evt))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	eventLabel := "events"
	if result.NewOnly {
		eventLabel = "new events"
	}

	if result.EventCount == 0 {
		fmt.Fprintf(w, "No %s found.\n", eventLabel)
		return nil
	}

	for _, evt := range result.Events {
		prefix := ""
		if result.NewOnly {
			prefix = "NEW: "
		}
		fmt.Fprintf(w, "%s%s  %s\n", prefix, formatDate(startOf(evt), result.Location), evt.Title)

		if where := placeText(evt); where != "" {
			fmt.Fprintf(w, "     Where: %s\n", where)
		}
		if status := evt.Status(); status != "" {
			fmt.Fprintf(w, "     Status: %s\n", status)
		}
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", evt.ID)
			if evt.DetailLink != "" {
				fmt.Fprintf(w, "     Link: %s\n", evt.DetailLink)
			}
			if len(evt.Tags) > 0 {
				fmt.Fprintf(w, "     Tags: %s\n", strings.Join(evt.Tags, ", "))
			}
		}
	}
	fmt.Fprintf(w, "\nTotal: %d %s\n", result.EventCount, eventLabel)

	return nil
}

// writeEventDetails prints every populated field of a single event
func writeEventDetails(w io.Writer, evt *event.Event, loc *time.Location) error {
	fmt.Fprintf(w, "%s\n", evt.Title)
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", len([]rune(evt.Title))))

	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-10s %s\n", label+":", value)
		}
	}

	field("ID", evt.ID)
	field("Status", evt.Status())
	if evt.DateFrom > 0 {
		field("From", formatDate(evt.DateFrom, loc))
	}
	if evt.DateTo > 0 {
		field("To", formatDate(evt.DateTo, loc))
	}
	field("Dates", evt.DatesText)
	field("Where", placeText(evt))
	field("Performer", evt.Performer)
	field("Organizer", evt.Organizer)
	if evt.Free {
		field("Price", "free")
	} else {
		field("Price", evt.Price.Text)
	}
	field("Tickets", evt.TicketingURL)
	field("URL", evt.URL)
	field("Link", evt.DetailLink)
	if len(evt.Tags) > 0 {
		field("Tags", strings.Join(evt.Tags, ", "))
	}

	if len(evt.Dates) > 0 {
		fmt.Fprintln(w, "\nSchedule:")
		for _, d := range evt.Dates {
			line := formatDate(d.StartDate, loc)
			if d.EndDate > d.StartDate {
				line += " - " + formatDate(d.EndDate, loc)
			}
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if text := event.PlainText(evt.Content); text != "" {
		fmt.Fprintf(w, "\n%s\n", text)
	}

	return nil
}

func placeText(evt *event.Event) string {
	var parts []string
	for _, p := range []string{evt.Venue, evt.Location.Town, evt.Location.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func formatDate(ts int64, loc *time.Location) string {
	if ts <= 0 {
		return "(date unknown)"
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(ts, 0).In(loc).Format(displayDateLayout)
}
