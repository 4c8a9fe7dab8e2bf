package event

import "time"

// maxChangeLog bounds how many changes a snapshot keeps.
const maxChangeLog = 200

// Change types reported by DetectChanges.
const (
	ChangeNew    = "new"
	ChangeDate   = "date"
	ChangeTitle  = "title"
	ChangeVenue  = "venue"
	ChangeStatus = "status"
)

// Snapshot represents the events seen up to a point in time
type Snapshot struct {
	Events    map[string]*Event `json:"events"`     // keyed by Event.ID
	ChangeLog []*EventChange    `json:"change_log"` // most recent last
	UpdatedAt string            `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Events:    make(map[string]*Event),
		ChangeLog: make([]*EventChange, 0),
	}
}

// CreateSnapshot creates a snapshot from a list of events
func CreateSnapshot(events []*Event, updatedAt string) *Snapshot {
	snap := NewSnapshot()
	snap.UpdatedAt = updatedAt

	for _, evt := range events {
		if evt.ID == "" {
			continue
		}
		snap.Events[evt.ID] = evt
	}

	return snap
}

// Apply merges the current events and the changes found for them into the
// snapshot. Events missing from current are kept, since a search only
// returns one page of results.
func (s *Snapshot) Apply(current []*Event, changes []*EventChange, updatedAt string) {
	if s.Events == nil {
		s.Events = make(map[string]*Event)
	}
	for _, evt := range current {
		if evt == nil || evt.ID == "" {
			continue
		}
		s.Events[evt.ID] = evt
	}

	s.ChangeLog = append(s.ChangeLog, changes...)
	if len(s.ChangeLog) > maxChangeLog {
		s.ChangeLog = s.ChangeLog[len(s.ChangeLog)-maxChangeLog:]
	}
	s.UpdatedAt = updatedAt
}

// DiffResult contains the results of comparing events against a snapshot
type DiffResult struct {
	NewEvents []*Event
	Changes   []*EventChange
}

// Diff compares current events against a previous snapshot. New events keep
// the order they were returned in. Events without an id are skipped since
// a snapshot cannot hold them.
func Diff(previous *Snapshot, current []*Event, detectedAt time.Time) *DiffResult {
	result := &DiffResult{
		NewEvents: make([]*Event, 0),
		Changes:   make([]*EventChange, 0),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	for _, evt := range current {
		if evt == nil || evt.ID == "" {
			continue
		}
		prev, exists := previous.Events[evt.ID]
		if !exists {
			result.NewEvents = append(result.NewEvents, evt)
		}
		result.Changes = append(result.Changes, DetectChanges(prev, evt, detectedAt)...)
	}

	return result
}

// EventChange represents a change detected in an event
type EventChange struct {
	EventID    string    `json:"event_id"`
	ChangeType string    `json:"change_type"` // "new", "date", "title", "venue", "status"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// DetectChanges compares two versions of an event and returns detected changes.
// A nil previous event yields a single "new" change.
func DetectChanges(previous, current *Event, detectedAt time.Time) []*EventChange {
	detectedAt = detectedAt.UTC()

	if previous == nil {
		return []*EventChange{
			{
				EventID:    current.ID,
				ChangeType: ChangeNew,
				NewValue:   current.Title,
				DetectedAt: detectedAt,
			},
		}
	}

	var changes []*EventChange
	add := func(changeType, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, &EventChange{
			EventID:    current.ID,
			ChangeType: changeType,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: detectedAt,
		})
	}

	add(ChangeDate, formatTimestamp(previous.DateFrom), formatTimestamp(current.DateFrom))
	add(ChangeTitle, previous.Title, current.Title)
	add(ChangeVenue, previous.Venue, current.Venue)
	add(ChangeStatus, previous.Status(), current.Status())

	return changes
}

func formatTimestamp(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
