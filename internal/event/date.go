package event

import (
	"strings"
	"time"
)

// timestampLayouts are the formats the service uses for recorddate,
// datefrom and dateto, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

const (
	scheduleDateLayout = "02-01-2006"
	scheduleTimeLayout = "15:04"
)

// ParseTimestamp converts a service date string into unix seconds.
// Values without a zone are read in loc (time.Local when nil).
// Returns 0 if the string is empty or matches no known layout.
func ParseTimestamp(s string, loc *time.Location) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.Unix()
		}
	}

	return 0
}

// ParseScheduleTime combines a DD-MM-YYYY date and an HH:MM time into unix
// seconds in loc (time.Local when nil). A missing or malformed time means
// midnight. Returns 0 if the date does not parse.
func ParseScheduleTime(date, clock string, loc *time.Location) int64 {
	if loc == nil {
		loc = time.Local
	}

	day, err := time.ParseInLocation(scheduleDateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return 0
	}

	hour, minute := 0, 0
	if hm, err := time.Parse(scheduleTimeLayout, strings.TrimSpace(clock)); err == nil {
		hour, minute = hm.Hour(), hm.Minute()
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc).Unix()
}
