package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/happenr/internal/event"
)

// maxLineOctets is the RFC 5545 content line limit, excluding CRLF.
const maxLineOctets = 75

// GenerateICS generates an iCalendar (.ics) document holding every
// scheduled occurrence of the given events. Events without any date are
// left out.
func GenerateICS(events ...*event.Event) string {
	return generate(time.Now(), events)
}

func generate(now time.Time, events []*event.Event) string {
	var ics strings.Builder

	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:-//Happenr//happenr-go//EN")
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")

	for _, evt := range events {
		if evt == nil {
			continue
		}
		for n, occ := range occurrences(evt) {
			writeEvent(&ics, evt, n, occ, now)
		}
	}

	writeLine(&ics, "END:VCALENDAR")

	return ics.String()
}

// occurrences returns the event's schedule, falling back to
// date_from/date_to when the service sent no dates list.
func occurrences(evt *event.Event) []event.DateRange {
	var out []event.DateRange
	for _, d := range evt.Dates {
		if d.StartDate > 0 {
			out = append(out, d)
		}
	}
	if len(out) == 0 && evt.DateFrom > 0 {
		out = append(out, event.DateRange{StartDate: evt.DateFrom, EndDate: evt.DateTo})
	}
	return out
}

func writeEvent(ics *strings.Builder, evt *event.Event, n int, occ event.DateRange, now time.Time) {
	writeLine(ics, "BEGIN:VEVENT")

	writeLine(ics, fmt.Sprintf("UID:%s-%d@happenr.com", evt.ID, n))
	writeLine(ics, "DTSTAMP:"+formatICSTime(now))

	writeLine(ics, "DTSTART:"+formatICSTime(occ.Start()))
	// an end before the start is left out rather than sent inverted
	if occ.EndDate > occ.StartDate {
		writeLine(ics, "DTEND:"+formatICSTime(occ.End()))
	}

	writeLine(ics, "SUMMARY:"+escapeICS(evt.Title))

	if description := describe(evt); description != "" {
		writeLine(ics, "DESCRIPTION:"+escapeICS(description))
	}

	if location := locationText(evt); location != "" {
		writeLine(ics, "LOCATION:"+escapeICS(location))
	}

	if evt.DetailLink != "" {
		writeLine(ics, "URL:"+evt.DetailLink)
	}

	if len(evt.Tags) > 0 {
		tags := make([]string, len(evt.Tags))
		for i, tag := range evt.Tags {
			tags[i] = escapeICS(tag)
		}
		writeLine(ics, "CATEGORIES:"+strings.Join(tags, ","))
	}

	if evt.Cancelled {
		writeLine(ics, "STATUS:CANCELLED")
	} else {
		writeLine(ics, "STATUS:CONFIRMED")
	}

	writeLine(ics, "SEQUENCE:0")
	writeLine(ics, "TRANSP:OPAQUE")

	writeLine(ics, "END:VEVENT")
}

func describe(evt *event.Event) string {
	var parts []string
	if text := event.PlainText(evt.Content); text != "" {
		parts = append(parts, text)
	}
	if evt.Performer != "" {
		parts = append(parts, "Performer: "+evt.Performer)
	}
	if evt.Price.Text != "" {
		parts = append(parts, "Price: "+evt.Price.Text)
	}
	if evt.TicketingURL != "" {
		parts = append(parts, "Tickets: "+evt.TicketingURL)
	}
	return strings.Join(parts, "\n\n")
}

func locationText(evt *event.Event) string {
	var parts []string
	for _, p := range []string{evt.Venue, evt.Location.Town, evt.Location.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// writeLine writes one content line, folding it at maxLineOctets without
// splitting a UTF-8 sequence.
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines spend one octet on the leading space
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
