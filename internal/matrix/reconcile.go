package matrix

import "fmt"

// ViewEdit is one row of an edited grid view sent back for reconciliation.
type ViewEdit struct {
	ID     string `json:"batch_id"`
	Status Status `json:"status"`
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Applied   int `json:"applied"`
	Unchanged int `json:"unchanged"`
}

// Reconcile applies an edited view back onto the matrix with a per-row diff
// keyed by batch id. Rows whose status matches the store are no-ops; rows
// outside the view are untouched. The whole view is validated up front, so
// an unknown id or invalid status rejects the edit with the store unchanged.
func (s *Store) Reconcile(view []ViewEdit) (ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range view {
		if !e.Status.Valid() {
			return ReconcileResult{}, fmt.Errorf("%w: %q for %s", ErrInvalidStatus, e.Status, e.ID)
		}
		if _, ok := s.index[e.ID]; !ok {
			return ReconcileResult{}, fmt.Errorf("%w: %s", ErrRowNotFound, e.ID)
		}
	}

	var res ReconcileResult
	now := s.now()
	for _, e := range view {
		i := s.index[e.ID]
		if s.rows[i].Status == e.Status {
			res.Unchanged++
			continue
		}
		s.rows[i].Status = e.Status
		s.rows[i].LastUpdated = now
		res.Applied++
	}
	return res, nil
}
