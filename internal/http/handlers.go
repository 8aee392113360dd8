package http

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"go-parametric-sim-tracker/internal/catalog"
	"go-parametric-sim-tracker/internal/matrix"
)

type setStatusRequest struct {
	Status matrix.Status `json:"status"`
}

type reconcileRequest struct {
	Edits []matrix.ViewEdit `json:"edits"`
}

type sessionResetRequest struct {
	Seed int64 `json:"seed"`
}

func catalogHandler(cat catalog.Catalog) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"matrix_size":            cat.MatrixSize(),
				"permutations_per_batch": catalog.PermutationsPerBatch,
			},
			"data": cat,
		})
	}
}

func matrixListHandler(defaultLimit int, store *matrix.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		filter := matrix.Filter{
			Archetype: strings.TrimSpace(r.URL.Query().Get("archetype")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			st := matrix.Status(strings.ToUpper(raw))
			if !st.Valid() {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{
					"error": "invalid status filter, expected one of PENDING, QUEUED, RUNNING, COMPLETED, FAILED",
				})
				return
			}
			filter.Status = st
		}

		limit := parseLimit(r, defaultLimit)
		offset := parseOffset(r)

		start := time.Now()
		rows := store.Filtered(filter)
		recordStoreOp("matrix", "Filtered", time.Since(start).Seconds(), nil)

		total := len(rows)
		if offset > total {
			offset = total
		}
		end := offset + limit
		if end > total {
			end = total
		}
		page := rows[offset:end]

		meta := map[string]any{
			"limit":  limit,
			"offset": offset,
			"count":  len(page),
			"total":  total,
		}
		if filter.Archetype != "" {
			meta["archetype"] = filter.Archetype
		}
		if filter.Status != "" {
			meta["status"] = filter.Status
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": meta,
			"data": page,
		})
	}
}

func matrixRowRouter(store *matrix.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		trimmed := strings.TrimPrefix(r.URL.Path, "/api/v1/matrix/")
		parts := strings.Split(strings.Trim(trimmed, "/"), "/")
		if len(parts) != 2 || parts[0] == "" {
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
			return
		}

		batchID := parts[0]
		action := parts[1]

		switch action {
		case "status":
			if r.Method != nethttp.MethodPost && r.Method != nethttp.MethodPut {
				writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
				return
			}
			var req setStatusRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
				return
			}

			start := time.Now()
			err := store.SetStatus(batchID, req.Status)
			recordStoreOp("matrix", "SetStatus", time.Since(start).Seconds(), err)
			if err != nil {
				writeStoreError(w, err)
				return
			}

			row, _ := store.Get(batchID)
			writeJSON(w, nethttp.StatusOK, map[string]any{
				"meta": map[string]any{"batch_id": batchID},
				"data": row,
			})
		default:
			writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": "not found"})
		}
	}
}

func matrixReconcileHandler(store *matrix.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		var req reconcileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
			return
		}
		if len(req.Edits) == 0 {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": "edits array is required"})
			return
		}

		start := time.Now()
		res, err := store.Reconcile(req.Edits)
		recordStoreOp("matrix", "Reconcile", time.Since(start).Seconds(), err)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"submitted": len(req.Edits)},
			"data": res,
		})
	}
}

func statsHandler(store *matrix.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		start := time.Now()
		snapshot := store.Snapshot()
		recordStoreOp("matrix", "Snapshot", time.Since(start).Seconds(), nil)

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"built_at": store.BuiltAt(),
			},
			"data": matrix.ComputeStats(snapshot),
		})
	}
}

func statusBreakdownHandler(store *matrix.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		dim := matrix.Dimension(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("dimension"))))
		if dim == "" {
			dim = matrix.DimArchetype
		}
		if !matrix.ValidDimension(dim) {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{
				"error": "invalid dimension, expected one of archetype, layout, location, zone, hvac",
			})
			return
		}

		start := time.Now()
		groups := matrix.GroupByDimension(store.Snapshot(), dim)
		recordStoreOp("matrix", "GroupByDimension", time.Since(start).Seconds(), nil)

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"dimension": dim,
				"count":     len(groups),
			},
			"data": groups,
		})
	}
}

func sessionResetHandler(store *matrix.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		var req sessionResetRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		seed := req.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		start := time.Now()
		store.Reset(matrix.DemoGenerator(seed))
		recordStoreOp("matrix", "Reset", time.Since(start).Seconds(), nil)

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{"built_at": store.BuiltAt()},
			"data": matrix.ComputeStats(store.Snapshot()),
		})
	}
}

func writeStoreError(w nethttp.ResponseWriter, err error) {
	switch {
	case errors.Is(err, matrix.ErrRowNotFound):
		writeJSON(w, nethttp.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, matrix.ErrInvalidStatus):
		writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		writeJSON(w, nethttp.StatusInternalServerError, map[string]any{"error": "failed to update matrix"})
	}
}

func parseLimit(r *nethttp.Request, defaultLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 && parsed <= 2000 {
			limit = parsed
		}
	}
	return limit
}

func parseOffset(r *nethttp.Request) int {
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return offset
}
