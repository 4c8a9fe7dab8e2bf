// Package cli implements the command-line interface for happenr.
//
// The cli package provides the Cobra-based CLI with a search command (every
// service filter as a flag, text/JSON/iCalendar output, client-side sorting
// and new-event tracking through snapshots) and a details command for a
// single event. It coordinates the config, happenr, storage and calendar
// packages.
package cli
