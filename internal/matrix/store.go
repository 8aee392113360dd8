package matrix

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go-parametric-sim-tracker/internal/catalog"
)

// Status is the lifecycle state of one simulation batch.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// AllStatuses lists every valid status in display order.
var AllStatuses = []Status{StatusPending, StatusQueued, StatusRunning, StatusCompleted, StatusFailed}

// Valid reports whether s is one of the five batch statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

var (
	// ErrRowNotFound is returned when a batch id does not exist in the matrix.
	ErrRowNotFound = errors.New("batch row not found")
	// ErrInvalidStatus is returned when a status value is outside the enum.
	ErrInvalidStatus = errors.New("invalid batch status")
)

// BatchRow is one cell of the simulation matrix: a unique combination of
// archetype, layout, climate location and HVAC system. Only Status and
// LastUpdated ever change after construction.
type BatchRow struct {
	ID           string    `json:"batch_id"`
	Archetype    string    `json:"archetype"`
	Layout       string    `json:"layout"`
	LocationCity string    `json:"location"`
	ClimateZone  string    `json:"zone"`
	HVAC         string    `json:"hvac"`
	Status       Status    `json:"status"`
	LastUpdated  time.Time `json:"last_updated"`
}

// StatusGenerator supplies the initial status for each batch at build time.
// Production uses a seeded random generator for demo realism; tests inject
// a deterministic one.
type StatusGenerator func() Status

// DemoGenerator mimics the demo distribution: mostly PENDING with a sprinkle
// of FAILED, COMPLETED and RUNNING batches.
func DemoGenerator(seed int64) StatusGenerator {
	rng := rand.New(rand.NewSource(seed))
	return func() Status {
		switch {
		case rng.Float64() > 0.95:
			return StatusFailed
		case rng.Float64() > 0.90:
			return StatusCompleted
		case rng.Float64() > 0.85:
			return StatusRunning
		default:
			return StatusPending
		}
	}
}

// FixedGenerator assigns the same status to every batch.
func FixedGenerator(s Status) StatusGenerator {
	return func() Status { return s }
}

// Filter narrows a matrix view. Empty fields match everything.
type Filter struct {
	Archetype string
	Status    Status
}

// Store is the materialized simulation matrix: one row per cross-product
// combination, built once per session and owned by the server.
type Store struct {
	mu      sync.RWMutex
	catalog catalog.Catalog
	rows    []BatchRow
	index   map[string]int
	builtAt time.Time
	now     func() time.Time
}

// NewStore materializes the cross-product of the catalog dimensions.
// Batch ids are sequential in archetype > layout > location > HVAC
// nesting order and stable for the session.
func NewStore(cat catalog.Catalog, gen StatusGenerator) *Store {
	s := &Store{
		catalog: cat,
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.build(gen)
	return s
}

func (s *Store) build(gen StatusGenerator) {
	if gen == nil {
		gen = FixedGenerator(StatusPending)
	}

	now := s.now()
	rows := make([]BatchRow, 0, s.catalog.MatrixSize())
	index := make(map[string]int, s.catalog.MatrixSize())
	n := 1
	for _, arch := range s.catalog.Archetypes {
		for _, layout := range s.catalog.Layouts {
			for _, loc := range s.catalog.Locations {
				for _, hvac := range s.catalog.HVACSystems {
					st := gen()
					if !st.Valid() {
						st = StatusPending
					}
					row := BatchRow{
						ID:           fmt.Sprintf("BATCH-%d", n),
						Archetype:    arch.ID,
						Layout:       layout.Name,
						LocationCity: loc.City,
						ClimateZone:  loc.Zone,
						HVAC:         hvac.Name,
						Status:       st,
						LastUpdated:  now,
					}
					index[row.ID] = len(rows)
					rows = append(rows, row)
					n++
				}
			}
		}
	}

	s.rows = rows
	s.index = index
	s.builtAt = now
}

// Reset rebuilds the matrix from scratch, discarding all edits.
func (s *Store) Reset(gen StatusGenerator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.build(gen)
}

// Len returns the total number of batch rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// BuiltAt returns when the current matrix was materialized.
func (s *Store) BuiltAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtAt
}

// Catalog returns the dimensional catalog the matrix was built from.
func (s *Store) Catalog() catalog.Catalog {
	return s.catalog
}

// Snapshot returns a copy of every row in construction order.
func (s *Store) Snapshot() []BatchRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BatchRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// Filtered returns a copy of the rows matching every set filter field,
// in construction order. Filtering never removes rows from the store.
func (s *Store) Filtered(f Filter) []BatchRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BatchRow, 0, len(s.rows))
	for _, row := range s.rows {
		if f.Archetype != "" && row.Archetype != f.Archetype {
			continue
		}
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		out = append(out, row)
	}
	return out
}

// Get returns the row with the given batch id.
func (s *Store) Get(id string) (BatchRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return BatchRow{}, false
	}
	return s.rows[i], true
}

// SetStatus updates one row's status and refreshes its LastUpdated stamp.
// The store is unchanged when the id is unknown or the status invalid.
func (s *Store) SetStatus(id string, st Status) error {
	if !st.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, st)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	s.rows[i].Status = st
	s.rows[i].LastUpdated = s.now()
	return nil
}

// FailedRows returns up to limit rows currently FAILED, in construction order.
func (s *Store) FailedRows(limit int) []BatchRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BatchRow, 0, limit)
	for _, row := range s.rows {
		if row.Status != StatusFailed {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
