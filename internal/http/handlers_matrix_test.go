package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-parametric-sim-tracker/internal/catalog"
	"go-parametric-sim-tracker/internal/matrix"
)

func newTestStore(t *testing.T) *matrix.Store {
	t.Helper()
	return matrix.NewStore(catalog.Default(), matrix.FixedGenerator(matrix.StatusPending))
}

func decodePayload(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func TestCatalogHandler_ReturnsMatrixSize(t *testing.T) {
	h := catalogHandler(catalog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodePayload(t, rr)
	meta := payload["meta"].(map[string]any)
	if got := meta["matrix_size"].(float64); got != 1620 {
		t.Fatalf("expected matrix_size 1620, got %v", got)
	}
	if got := meta["permutations_per_batch"].(float64); got != 81 {
		t.Fatalf("expected permutations_per_batch 81, got %v", got)
	}
}

func TestMatrixListHandler_DefaultPage(t *testing.T) {
	h := matrixListHandler(200, newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/matrix", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodePayload(t, rr)
	meta := payload["meta"].(map[string]any)
	if got := meta["total"].(float64); got != 1620 {
		t.Fatalf("expected total 1620, got %v", got)
	}
	if got := meta["count"].(float64); got != 200 {
		t.Fatalf("expected page of 200 rows, got %v", got)
	}
}

func TestMatrixListHandler_ArchetypeFilter(t *testing.T) {
	h := matrixListHandler(200, newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/matrix?archetype=OFFICE&limit=2000", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodePayload(t, rr)
	meta := payload["meta"].(map[string]any)
	if got := meta["total"].(float64); got != 324 {
		t.Fatalf("expected 324 OFFICE rows, got %v", got)
	}
}

func TestMatrixListHandler_InvalidStatusFilter(t *testing.T) {
	h := matrixListHandler(200, newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/matrix?status=BOGUS", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestMatrixRowRouter_SetStatus(t *testing.T) {
	store := newTestStore(t)
	h := matrixRowRouter(store)

	body := strings.NewReader(`{"status":"RUNNING"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matrix/BATCH-7/status", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodePayload(t, rr)
	data := payload["data"].(map[string]any)
	if got := data["status"].(string); got != "RUNNING" {
		t.Fatalf("expected returned row status RUNNING, got %q", got)
	}

	row, ok := store.Get("BATCH-7")
	if !ok {
		t.Fatalf("expected BATCH-7 to exist")
	}
	if row.Status != matrix.StatusRunning {
		t.Fatalf("expected store status RUNNING, got %s", row.Status)
	}
}

func TestMatrixRowRouter_UnknownIDReturnsNotFound(t *testing.T) {
	h := matrixRowRouter(newTestStore(t))

	body := strings.NewReader(`{"status":"RUNNING"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matrix/BATCH-99999/status", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestMatrixRowRouter_InvalidStatusReturnsBadRequest(t *testing.T) {
	h := matrixRowRouter(newTestStore(t))

	body := strings.NewReader(`{"status":"EXPLODED"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matrix/BATCH-1/status", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestMatrixRowRouter_UnknownActionReturnsNotFound(t *testing.T) {
	h := matrixRowRouter(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/matrix/BATCH-1/unknown", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestMatrixReconcileHandler_AppliesEdits(t *testing.T) {
	store := newTestStore(t)
	h := matrixReconcileHandler(store)

	body := strings.NewReader(`{"edits":[
		{"batch_id":"BATCH-1","status":"COMPLETED"},
		{"batch_id":"BATCH-2","status":"PENDING"}
	]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matrix/reconcile", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodePayload(t, rr)
	data := payload["data"].(map[string]any)
	if got := data["applied"].(float64); got != 1 {
		t.Fatalf("expected 1 applied edit, got %v", got)
	}
	if got := data["unchanged"].(float64); got != 1 {
		t.Fatalf("expected 1 unchanged edit, got %v", got)
	}

	row, _ := store.Get("BATCH-1")
	if row.Status != matrix.StatusCompleted {
		t.Fatalf("expected BATCH-1 COMPLETED after reconcile, got %s", row.Status)
	}
}

func TestMatrixReconcileHandler_EmptyEditsReturnsBadRequest(t *testing.T) {
	h := matrixReconcileHandler(newTestStore(t))

	body := strings.NewReader(`{"edits":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matrix/reconcile", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestMatrixReconcileHandler_UnknownIDRejectsView(t *testing.T) {
	store := newTestStore(t)
	h := matrixReconcileHandler(store)

	body := strings.NewReader(`{"edits":[
		{"batch_id":"BATCH-1","status":"COMPLETED"},
		{"batch_id":"BATCH-0","status":"COMPLETED"}
	]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matrix/reconcile", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	row, _ := store.Get("BATCH-1")
	if row.Status != matrix.StatusPending {
		t.Fatalf("expected BATCH-1 untouched after rejected view, got %s", row.Status)
	}
}

func TestStatsHandler_ZeroFilledCounts(t *testing.T) {
	h := statsHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodePayload(t, rr)
	data := payload["data"].(map[string]any)
	counts := data["counts_by_status"].(map[string]any)
	if len(counts) != 5 {
		t.Fatalf("expected 5 zero-filled status counts, got %d", len(counts))
	}
	if got := counts["PENDING"].(float64); got != 1620 {
		t.Fatalf("expected 1620 pending rows, got %v", got)
	}
	if got := counts["FAILED"].(float64); got != 0 {
		t.Fatalf("expected zero-filled FAILED count, got %v", got)
	}
	if got := data["progress_percent"].(float64); got != 0 {
		t.Fatalf("expected 0%% progress, got %v", got)
	}
	if got := data["total_permutations"].(float64); got != 1620*81 {
		t.Fatalf("expected %d permutations, got %v", 1620*81, got)
	}
}

func TestStatusBreakdownHandler_InvalidDimension(t *testing.T) {
	h := statusBreakdownHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts/status-breakdown?dimension=bogus", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestStatusBreakdownHandler_ByArchetype(t *testing.T) {
	h := statusBreakdownHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts/status-breakdown?dimension=archetype", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	payload := decodePayload(t, rr)
	data := payload["data"].([]any)
	if len(data) != 5 {
		t.Fatalf("expected one bucket per archetype, got %d", len(data))
	}
	sum := 0.0
	for _, item := range data {
		sum += item.(map[string]any)["count"].(float64)
	}
	if sum != 1620 {
		t.Fatalf("expected bucket counts to sum to 1620, got %v", sum)
	}
}

func TestSessionResetHandler_RequiresPost(t *testing.T) {
	h := sessionResetHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/reset", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
}

func TestSessionResetHandler_RebuildsMatrix(t *testing.T) {
	store := newTestStore(t)
	if err := store.SetStatus("BATCH-1", matrix.StatusFailed); err != nil {
		t.Fatalf("failed to seed edit: %v", err)
	}

	h := sessionResetHandler(store)
	body := strings.NewReader(`{"seed":42}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/reset", body)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if store.Len() != 1620 {
		t.Fatalf("expected rebuilt matrix of 1620 rows, got %d", store.Len())
	}
}
