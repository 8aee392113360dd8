package http

import (
	"context"
	nethttp "net/http"
	"time"

	"go-parametric-sim-tracker/internal/advisor"
	runlogstore "go-parametric-sim-tracker/internal/connectors/runlog"
	"go-parametric-sim-tracker/internal/matrix"
)

func servicesStatusHandler(store *matrix.Store, runlog *runlogstore.Store, bridge *advisor.Bridge) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		services := map[string]any{
			"matrix":  matrixStatus(store),
			"runlog":  runlogStatus(ctx, runlog),
			"advisor": advisorStatus(bridge),
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"generated_at": time.Now().UTC()},
			"data": services,
		})
	}
}

func matrixStatus(store *matrix.Store) map[string]any {
	stats := matrix.ComputeStats(store.Snapshot())
	return map[string]any{
		"enabled":  true,
		"ok":       true,
		"rows":     stats.Total,
		"built_at": store.BuiltAt(),
		"progress": stats.ProgressPercent,
	}
}

func runlogStatus(ctx context.Context, runlog *runlogstore.Store) map[string]any {
	if runlog == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "runlog sqlite store disabled"}
	}

	start := time.Now()
	stats, err := runlog.ServiceStats(ctx)
	recordStoreOp("runlog", "ServiceStats", time.Since(start).Seconds(), err)
	if err != nil {
		return map[string]any{"enabled": true, "ok": false, "error": err.Error()}
	}
	return map[string]any{"enabled": true, "ok": true, "stats": stats}
}

func advisorStatus(bridge *advisor.Bridge) map[string]any {
	if bridge == nil || !bridge.Enabled() {
		return map[string]any{
			"enabled": false,
			"ok":      false,
			"error":   "advisor disabled: no API key configured",
			"hint":    advisorDisabledHint,
		}
	}

	out := map[string]any{"enabled": true, "ok": true}
	if last, ok := bridge.Last(); ok {
		out["last_analysis_at"] = last.GeneratedAt
	}
	return out
}
