package event

import (
	"testing"
	"time"
)

func testEvent(id, title string, dateFrom int64) *Event {
	return &Event{
		ID:       id,
		Title:    title,
		DateFrom: dateFrom,
		Venue:    "Ancienne Belgique",
	}
}

func TestDiff(t *testing.T) {
	evt1 := testEvent("e1", "Event 1", 1775296800)
	evt2 := testEvent("e2", "Event 2", 1775383200)
	evt3 := testEvent("e3", "Event 3", 1775469600)

	previous := NewSnapshot()
	previous.Events[evt1.ID] = evt1
	previous.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	current := []*Event{evt3, evt1, evt2}
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	t.Run("finds new events in service order", func(t *testing.T) {
		result := Diff(previous, current, now)

		if len(result.NewEvents) != 2 {
			t.Fatalf("expected 2 new events, got %d", len(result.NewEvents))
		}
		if result.NewEvents[0].ID != "e3" || result.NewEvents[1].ID != "e2" {
			t.Errorf("new events = [%s %s], want [e3 e2]", result.NewEvents[0].ID, result.NewEvents[1].ID)
		}
	})

	t.Run("records a new change per new event", func(t *testing.T) {
		result := Diff(previous, current, now)

		if len(result.Changes) != 2 {
			t.Fatalf("expected 2 changes, got %d", len(result.Changes))
		}
		for _, c := range result.Changes {
			if c.ChangeType != ChangeNew {
				t.Errorf("change type = %q, want %q", c.ChangeType, ChangeNew)
			}
			if !c.DetectedAt.Equal(now) {
				t.Errorf("DetectedAt = %v, want %v", c.DetectedAt, now)
			}
		}
	})

	t.Run("handles nil previous snapshot", func(t *testing.T) {
		result := Diff(nil, current, now)

		if len(result.NewEvents) != 3 {
			t.Errorf("expected all 3 events to be new, got %d", len(result.NewEvents))
		}
	})

	t.Run("reports changes on known events", func(t *testing.T) {
		moved := testEvent("e1", "Event 1", 1775901600)
		result := Diff(previous, []*Event{moved}, now)

		if len(result.NewEvents) != 0 {
			t.Errorf("expected no new events, got %d", len(result.NewEvents))
		}
		if len(result.Changes) != 1 || result.Changes[0].ChangeType != ChangeDate {
			t.Fatalf("expected one date change, got %+v", result.Changes)
		}
	})
}

func TestDiff_SkipsEventsWithoutID(t *testing.T) {
	noID := testEvent("", "Untracked", 1775296800)
	evt1 := testEvent("e1", "Event 1", 1775296800)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	snapshot := NewSnapshot()
	for run := 1; run <= 2; run++ {
		current := []*Event{noID, evt1, nil}
		result := Diff(snapshot, current, now)

		wantNew := 0
		if run == 1 {
			wantNew = 1
		}
		if len(result.NewEvents) != wantNew {
			t.Fatalf("run %d: expected %d new events, got %d", run, wantNew, len(result.NewEvents))
		}
		for _, c := range result.Changes {
			if c.EventID == "" {
				t.Errorf("run %d: change recorded for an event without id: %+v", run, c)
			}
		}
		snapshot.Apply(current, result.Changes, now.Format(time.RFC3339))
	}

	if len(snapshot.Events) != 1 {
		t.Errorf("snapshot holds %d events, want 1", len(snapshot.Events))
	}
}

func TestCreateSnapshot(t *testing.T) {
	evt1 := testEvent("e1", "Event 1", 0)
	evt2 := testEvent("e2", "Event 2", 0)
	noID := testEvent("", "Broken", 0)

	updatedAt := time.Now().UTC().Format(time.RFC3339)
	snapshot := CreateSnapshot([]*Event{evt1, evt2, noID}, updatedAt)

	if len(snapshot.Events) != 2 {
		t.Errorf("expected 2 events in snapshot, got %d", len(snapshot.Events))
	}
	if snapshot.UpdatedAt != updatedAt {
		t.Errorf("expected UpdatedAt to be '%s', got '%s'", updatedAt, snapshot.UpdatedAt)
	}
	if _, ok := snapshot.Events[evt1.ID]; !ok {
		t.Error("expected evt1 to be in snapshot")
	}
}

func TestSnapshot_Apply(t *testing.T) {
	snapshot := CreateSnapshot([]*Event{testEvent("e1", "Old title", 0)}, "2026-01-01T00:00:00Z")

	updated := testEvent("e1", "New title", 0)
	added := testEvent("e2", "Added", 0)
	changes := []*EventChange{{EventID: "e1", ChangeType: ChangeTitle}}

	snapshot.Apply([]*Event{updated, added}, changes, "2026-02-01T00:00:00Z")

	if len(snapshot.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(snapshot.Events))
	}
	if snapshot.Events["e1"].Title != "New title" {
		t.Errorf("e1 title = %q, want updated title", snapshot.Events["e1"].Title)
	}
	if len(snapshot.ChangeLog) != 1 {
		t.Errorf("expected 1 change log entry, got %d", len(snapshot.ChangeLog))
	}
	if snapshot.UpdatedAt != "2026-02-01T00:00:00Z" {
		t.Errorf("UpdatedAt = %q", snapshot.UpdatedAt)
	}
}

func TestSnapshot_ApplyTrimsChangeLog(t *testing.T) {
	snapshot := NewSnapshot()

	changes := make([]*EventChange, maxChangeLog+25)
	for i := range changes {
		changes[i] = &EventChange{EventID: "e", ChangeType: ChangeTitle, NewValue: string(rune('a' + i%26))}
	}
	snapshot.Apply(nil, changes, "2026-02-01T00:00:00Z")

	if len(snapshot.ChangeLog) != maxChangeLog {
		t.Fatalf("change log length = %d, want %d", len(snapshot.ChangeLog), maxChangeLog)
	}
	if snapshot.ChangeLog[len(snapshot.ChangeLog)-1] != changes[len(changes)-1] {
		t.Error("expected the most recent change to be kept last")
	}
}

func TestDetectChanges(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	t.Run("detects new event", func(t *testing.T) {
		current := testEvent("e1", "Jazz Night", 1775296800)

		changes := DetectChanges(nil, current, now)

		if len(changes) != 1 {
			t.Fatalf("expected 1 change, got %d", len(changes))
		}
		if changes[0].ChangeType != ChangeNew {
			t.Errorf("expected change type 'new', got '%s'", changes[0].ChangeType)
		}
		if changes[0].NewValue != "Jazz Night" {
			t.Errorf("expected new value 'Jazz Night', got '%s'", changes[0].NewValue)
		}
	})

	t.Run("detects date change", func(t *testing.T) {
		previous := testEvent("e1", "Jazz Night", 1775296800)
		current := testEvent("e1", "Jazz Night", 1775901600)

		changes := DetectChanges(previous, current, now)

		if len(changes) != 1 {
			t.Fatalf("expected 1 change, got %d", len(changes))
		}
		if changes[0].ChangeType != ChangeDate {
			t.Errorf("expected change type 'date', got '%s'", changes[0].ChangeType)
		}
		if changes[0].OldValue != "2026-04-04T10:00:00Z" {
			t.Errorf("expected old value '2026-04-04T10:00:00Z', got '%s'", changes[0].OldValue)
		}
		if changes[0].NewValue != "2026-04-11T10:00:00Z" {
			t.Errorf("expected new value '2026-04-11T10:00:00Z', got '%s'", changes[0].NewValue)
		}
	})

	t.Run("detects venue change", func(t *testing.T) {
		previous := testEvent("e1", "Jazz Night", 1775296800)
		current := testEvent("e1", "Jazz Night", 1775296800)
		current.Venue = "Botanique"

		changes := DetectChanges(previous, current, now)

		if len(changes) != 1 || changes[0].ChangeType != ChangeVenue {
			t.Fatalf("expected one venue change, got %+v", changes)
		}
	})

	t.Run("detects cancellation", func(t *testing.T) {
		previous := testEvent("e1", "Jazz Night", 1775296800)
		current := testEvent("e1", "Jazz Night", 1775296800)
		current.Cancelled = true

		changes := DetectChanges(previous, current, now)

		if len(changes) != 1 {
			t.Fatalf("expected 1 change, got %d", len(changes))
		}
		if changes[0].ChangeType != ChangeStatus || changes[0].NewValue != "cancelled" {
			t.Errorf("change = %+v, want status -> cancelled", changes[0])
		}
	})

	t.Run("detects multiple changes", func(t *testing.T) {
		previous := testEvent("e1", "Jazz Night", 1775296800)
		current := testEvent("e1", "Jazz Night II", 1775901600)

		changes := DetectChanges(previous, current, now)

		if len(changes) != 2 {
			t.Errorf("expected 2 changes, got %d", len(changes))
		}
	})

	t.Run("no changes", func(t *testing.T) {
		previous := testEvent("e1", "Jazz Night", 1775296800)
		current := testEvent("e1", "Jazz Night", 1775296800)

		if changes := DetectChanges(previous, current, now); len(changes) != 0 {
			t.Errorf("expected no changes, got %d", len(changes))
		}
	})
}
