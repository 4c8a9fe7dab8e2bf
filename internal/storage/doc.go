// Package storage provides JSON-based persistence for event snapshots.
//
// A snapshot remembers every event a named search has returned so far, so
// the CLI can report only events that are new or changed since the last run.
// Snapshots are stored as snapshot.json for the default name and
// snapshot_<name>.json otherwise. The default storage location is
// ~/.local/share/happenr/.
package storage
