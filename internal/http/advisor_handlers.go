package http

import (
	"errors"
	nethttp "net/http"
	"time"

	"go-parametric-sim-tracker/internal/advisor"
	"go-parametric-sim-tracker/internal/matrix"
)

const advisorDisabledHint = "set GEMINI_API_KEY (or APP_GEMINI_API_KEY, or add it to the secrets file) to enable the AI advisor"

func advisorAnalyzeHandler(bridge *advisor.Bridge, store *matrix.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		if !bridge.Enabled() {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "advisor disabled: no API key configured",
				"hint":  advisorDisabledHint,
			})
			return
		}

		start := time.Now()
		analysis, err := bridge.Analyze(r.Context(), store)
		recordExternalProbe("gemini", "Analyze", time.Since(start).Seconds(), err)
		recordAdvisorRun(map[bool]string{true: "error", false: "success"}[err != nil], time.Since(start).Seconds())
		if err != nil {
			if errors.Is(err, advisor.ErrUnavailable) {
				writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
					"error": err.Error(),
					"hint":  advisorDisabledHint,
				})
				return
			}
			// Upstream failure: surface the error text, keep prior analysis.
			payload := map[string]any{"error": err.Error()}
			if last, ok := bridge.Last(); ok {
				payload["previous"] = last
			}
			writeJSON(w, nethttp.StatusBadGateway, payload)
			return
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"skipped":      analysis.Skipped,
				"failed_count": analysis.FailedCount,
				"sample_size":  analysis.SampleSize,
			},
			"data": analysis,
		})
	}
}

func advisorLastHandler(bridge *advisor.Bridge) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		last, ok := bridge.Last()
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"enabled":      bridge.Enabled(),
				"has_analysis": ok,
			},
			"data": last,
		})
	}
}
