package http

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	runlogstore "go-parametric-sim-tracker/internal/connectors/runlog"
	"go-parametric-sim-tracker/internal/matrix"
)

type saveSnapshotRequest struct {
	Label string `json:"label"`
}

func runlogSnapshotsHandler(defaultLimit int, runlog *runlogstore.Store, store *matrix.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if runlog == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "runlog sqlite store not available",
				"hint":  "set APP_RUNLOG_SQLITE_PATH to enable snapshot archiving",
			})
			return
		}

		switch r.Method {
		case nethttp.MethodGet:
			limit := parseLimit(r, defaultLimit)
			start := time.Now()
			items, err := runlog.ListSnapshots(r.Context(), limit)
			recordStoreOp("runlog", "ListSnapshots", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to list snapshots"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"limit": limit, "count": len(items)},
				"data": items,
			})
		case nethttp.MethodPost:
			var req saveSnapshotRequest
			if r.Body != nil {
				_ = json.NewDecoder(r.Body).Decode(&req)
			}

			stats := matrix.ComputeStats(store.Snapshot())
			start := time.Now()
			id, err := runlog.SaveSnapshot(r.Context(), req.Label, stats)
			recordStoreOp("runlog", "SaveSnapshot", time.Since(start).Seconds(), err)
			if err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to save snapshot"})
				return
			}
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"id": id, "label": req.Label},
				"data": stats,
			})
		default:
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		}
	}
}
