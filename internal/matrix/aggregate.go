package matrix

import "go-parametric-sim-tracker/internal/catalog"

// Dimension names a matrix axis usable for grouped breakdowns.
type Dimension string

const (
	DimArchetype Dimension = "archetype"
	DimLayout    Dimension = "layout"
	DimLocation  Dimension = "location"
	DimZone      Dimension = "zone"
	DimHVAC      Dimension = "hvac"
)

// ValidDimension reports whether d names a groupable axis.
func ValidDimension(d Dimension) bool {
	switch d {
	case DimArchetype, DimLayout, DimLocation, DimZone, DimHVAC:
		return true
	}
	return false
}

// Stats is the dashboard stat block computed from a matrix snapshot.
type Stats struct {
	Total             int            `json:"total"`
	Pending           int            `json:"pending"`
	Queued            int            `json:"queued"`
	Running           int            `json:"running"`
	Completed         int            `json:"completed"`
	Failed            int            `json:"failed"`
	CountsByStatus    map[Status]int `json:"counts_by_status"`
	ProgressPercent   float64        `json:"progress_percent"`
	TotalPermutations int            `json:"total_permutations"`
}

// GroupCount is one (dimension value, status) bucket for stacked charts.
type GroupCount struct {
	Value  string `json:"value"`
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// CountsByStatus tallies rows per status, zero-filled for all five statuses.
func CountsByStatus(rows []BatchRow) map[Status]int {
	out := make(map[Status]int, len(AllStatuses))
	for _, st := range AllStatuses {
		out[st] = 0
	}
	for _, row := range rows {
		out[row.Status]++
	}
	return out
}

// ProgressPercent is 100 * completed / total, 0 for an empty snapshot.
func ProgressPercent(rows []BatchRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	completed := 0
	for _, row := range rows {
		if row.Status == StatusCompleted {
			completed++
		}
	}
	return 100 * float64(completed) / float64(len(rows))
}

// ComputeStats builds the full stat block for a snapshot.
func ComputeStats(rows []BatchRow) Stats {
	counts := CountsByStatus(rows)
	return Stats{
		Total:             len(rows),
		Pending:           counts[StatusPending],
		Queued:            counts[StatusQueued],
		Running:           counts[StatusRunning],
		Completed:         counts[StatusCompleted],
		Failed:            counts[StatusFailed],
		CountsByStatus:    counts,
		ProgressPercent:   ProgressPercent(rows),
		TotalPermutations: len(rows) * catalog.PermutationsPerBatch,
	}
}

// GroupByDimension tallies rows per (dimension value, status), ordered by
// first appearance of the value in the snapshot and then by status order.
// Zero buckets are omitted.
func GroupByDimension(rows []BatchRow, dim Dimension) []GroupCount {
	type bucket map[Status]int
	byValue := map[string]bucket{}
	order := make([]string, 0)

	for _, row := range rows {
		v := dimensionValue(row, dim)
		b, ok := byValue[v]
		if !ok {
			b = bucket{}
			byValue[v] = b
			order = append(order, v)
		}
		b[row.Status]++
	}

	out := make([]GroupCount, 0, len(order)*len(AllStatuses))
	for _, v := range order {
		for _, st := range AllStatuses {
			if n := byValue[v][st]; n > 0 {
				out = append(out, GroupCount{Value: v, Status: st, Count: n})
			}
		}
	}
	return out
}

func dimensionValue(row BatchRow, dim Dimension) string {
	switch dim {
	case DimLayout:
		return row.Layout
	case DimLocation:
		return row.LocationCity
	case DimZone:
		return row.ClimateZone
	case DimHVAC:
		return row.HVAC
	default:
		return row.Archetype
	}
}
