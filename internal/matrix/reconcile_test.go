package matrix

import (
	"errors"
	"testing"
)

func TestReconcile_AppliesOnlyChangedRows(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))

	view := []ViewEdit{
		{ID: "BATCH-1", Status: StatusRunning},
		{ID: "BATCH-2", Status: StatusPending},
		{ID: "BATCH-3", Status: StatusCompleted},
	}
	res, err := s.Reconcile(view)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Applied != 2 || res.Unchanged != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	if row, _ := s.Get("BATCH-1"); row.Status != StatusRunning {
		t.Fatalf("BATCH-1 not updated: %s", row.Status)
	}
	if row, _ := s.Get("BATCH-3"); row.Status != StatusCompleted {
		t.Fatalf("BATCH-3 not updated: %s", row.Status)
	}
	if row, _ := s.Get("BATCH-4"); row.Status != StatusPending {
		t.Fatalf("row outside view changed: %s", row.Status)
	}
}

func TestReconcile_IsIdempotent(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))

	view := []ViewEdit{
		{ID: "BATCH-5", Status: StatusQueued},
		{ID: "BATCH-6", Status: StatusFailed},
	}
	if _, err := s.Reconcile(view); err != nil {
		t.Fatalf("first Reconcile failed: %v", err)
	}
	first := s.Snapshot()

	res, err := s.Reconcile(view)
	if err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}
	if res.Applied != 0 || res.Unchanged != 2 {
		t.Fatalf("second pass should be all no-ops, got %+v", res)
	}

	second := s.Snapshot()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %s changed on idempotent reapply", first[i].ID)
		}
	}
}

func TestReconcile_WritesBackRowEditedAwayFromActiveFilter(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))

	// Simulate the grid: active filters archetype=OFFICE and status=PENDING,
	// then the user flips one visible row to RUNNING. The edited row no
	// longer matches the status filter but must still be written back.
	view := s.Filtered(Filter{Archetype: "OFFICE", Status: StatusPending})
	if len(view) == 0 {
		t.Fatalf("expected a non-empty filtered view")
	}

	edits := make([]ViewEdit, 0, len(view))
	for i, row := range view {
		st := row.Status
		if i == 0 {
			st = StatusRunning
		}
		edits = append(edits, ViewEdit{ID: row.ID, Status: st})
	}

	res, err := s.Reconcile(edits)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Applied != 1 {
		t.Fatalf("expected exactly one applied edit, got %+v", res)
	}

	row, _ := s.Get(view[0].ID)
	if row.Status != StatusRunning {
		t.Fatalf("edit silently dropped: %s is %s", row.ID, row.Status)
	}
}

func TestReconcile_UnknownIDRejectsWholeView(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))
	before := s.Snapshot()

	_, err := s.Reconcile([]ViewEdit{
		{ID: "BATCH-1", Status: StatusCompleted},
		{ID: "BATCH-GHOST", Status: StatusFailed},
	})
	if !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}

	after := s.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("store mutated by rejected view at %s", before[i].ID)
		}
	}
}

func TestReconcile_InvalidStatusRejectsWholeView(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))

	_, err := s.Reconcile([]ViewEdit{
		{ID: "BATCH-1", Status: Status("MELTED")},
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if row, _ := s.Get("BATCH-1"); row.Status != StatusPending {
		t.Fatalf("store mutated by invalid edit: %s", row.Status)
	}
}
