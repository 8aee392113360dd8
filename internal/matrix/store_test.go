package matrix

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"go-parametric-sim-tracker/internal/catalog"
)

func newTestStore(gen StatusGenerator) *Store {
	return NewStore(catalog.Default(), gen)
}

func TestNewStore_BuildsFullCrossProduct(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))

	cat := catalog.Default()
	want := cat.MatrixSize()
	if want != 1620 {
		t.Fatalf("expected default catalog to produce 1620 batches, got %d", want)
	}
	if s.Len() != want {
		t.Fatalf("expected %d rows, got %d", want, s.Len())
	}

	seen := map[string]bool{}
	combos := map[[4]string]bool{}
	for _, row := range s.Snapshot() {
		if seen[row.ID] {
			t.Fatalf("duplicate batch id %s", row.ID)
		}
		seen[row.ID] = true

		key := [4]string{row.Archetype, row.Layout, row.LocationCity, row.HVAC}
		if combos[key] {
			t.Fatalf("duplicate combination %v", key)
		}
		combos[key] = true
	}
}

func TestNewStore_SequentialIDsInConstructionOrder(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))

	rows := s.Snapshot()
	if rows[0].ID != "BATCH-1" {
		t.Fatalf("expected first id BATCH-1, got %s", rows[0].ID)
	}
	if last := rows[len(rows)-1].ID; last != "BATCH-1620" {
		t.Fatalf("expected last id BATCH-1620, got %s", last)
	}
	if rows[0].Archetype != "OFFICE" {
		t.Fatalf("expected archetype-major construction order, first row is %s", rows[0].Archetype)
	}
}

func TestNewStore_InvalidGeneratorOutputFallsBackToPending(t *testing.T) {
	s := newTestStore(func() Status { return Status("BOGUS") })

	for _, row := range s.Snapshot() {
		if row.Status != StatusPending {
			t.Fatalf("expected PENDING fallback, got %s", row.Status)
		}
	}
}

func TestDemoGenerator_IsDeterministicPerSeed(t *testing.T) {
	a := newTestStore(DemoGenerator(42)).Snapshot()
	b := newTestStore(DemoGenerator(42)).Snapshot()

	for i := range a {
		if a[i].Status != b[i].Status {
			t.Fatalf("seeded builds diverged at %s: %s vs %s", a[i].ID, a[i].Status, b[i].Status)
		}
		if !a[i].Status.Valid() {
			t.Fatalf("generator produced invalid status %q", a[i].Status)
		}
	}
}

func TestSetStatus_ChangesOnlyTargetRow(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))
	before := s.Snapshot()

	if err := s.SetStatus("BATCH-7", StatusRunning); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	after := s.Snapshot()
	for i := range before {
		if before[i].ID == "BATCH-7" {
			if after[i].Status != StatusRunning {
				t.Fatalf("expected BATCH-7 RUNNING, got %s", after[i].Status)
			}
			if !after[i].LastUpdated.After(before[i].LastUpdated) && !after[i].LastUpdated.Equal(before[i].LastUpdated) {
				t.Fatalf("expected LastUpdated refresh on BATCH-7")
			}
			continue
		}
		if after[i] != before[i] {
			t.Fatalf("row %s changed unexpectedly", before[i].ID)
		}
	}
}

func TestSetStatus_RefreshesLastUpdated(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	if err := s.SetStatus("BATCH-1", StatusQueued); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	row, _ := s.Get("BATCH-1")
	if !row.LastUpdated.Equal(base) {
		t.Fatalf("expected LastUpdated %v, got %v", base, row.LastUpdated)
	}
}

func TestSetStatus_UnknownIDLeavesStoreUnchanged(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))
	before := s.Snapshot()

	err := s.SetStatus("BATCH-99999", StatusFailed)
	if !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}

	after := s.Snapshot()
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("row %s changed after rejected edit", before[i].ID)
		}
	}
}

func TestSetStatus_InvalidStatusRejected(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))

	err := s.SetStatus("BATCH-1", Status("EXPLODED"))
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	row, _ := s.Get("BATCH-1")
	if row.Status != StatusPending {
		t.Fatalf("expected store unchanged, got %s", row.Status)
	}
}

func TestFiltered_NarrowsWithoutRemovingRows(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))
	if err := s.SetStatus("BATCH-1", StatusFailed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	office := s.Filtered(Filter{Archetype: "OFFICE"})
	if len(office) != 3*12*9 {
		t.Fatalf("expected 324 OFFICE rows, got %d", len(office))
	}

	both := s.Filtered(Filter{Archetype: "OFFICE", Status: StatusFailed})
	if len(both) != 1 || both[0].ID != "BATCH-1" {
		t.Fatalf("expected intersection filter to yield BATCH-1, got %v", both)
	}

	if s.Len() != 1620 {
		t.Fatalf("filtering must not shrink the store, len=%d", s.Len())
	}
}

func TestFailedRows_LimitAndOrder(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusFailed))

	failed := s.FailedRows(10)
	if len(failed) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(failed))
	}
	for i, row := range failed {
		if row.Status != StatusFailed {
			t.Fatalf("row %s is %s, expected FAILED", row.ID, row.Status)
		}
		want := "BATCH-" + strconv.Itoa(i+1)
		if row.ID != want {
			t.Fatalf("expected construction order, row %d is %s", i, row.ID)
		}
	}
}

func TestReset_RebuildsMatrix(t *testing.T) {
	s := newTestStore(FixedGenerator(StatusPending))
	if err := s.SetStatus("BATCH-1", StatusFailed); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	s.Reset(FixedGenerator(StatusPending))
	row, ok := s.Get("BATCH-1")
	if !ok {
		t.Fatalf("BATCH-1 missing after reset")
	}
	if row.Status != StatusPending {
		t.Fatalf("expected reset to discard edits, got %s", row.Status)
	}
	if s.Len() != 1620 {
		t.Fatalf("expected full rebuild, len=%d", s.Len())
	}
}
