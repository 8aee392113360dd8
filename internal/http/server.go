package http

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"strconv"
	"time"

	"go-parametric-sim-tracker/internal/advisor"
	"go-parametric-sim-tracker/internal/catalog"
	"go-parametric-sim-tracker/internal/config"
	geministore "go-parametric-sim-tracker/internal/connectors/gemini"
	runlogstore "go-parametric-sim-tracker/internal/connectors/runlog"
	"go-parametric-sim-tracker/internal/matrix"
)

// Server wraps an HTTP server, the session matrix store and route handlers.
type Server struct {
	httpServer  *nethttp.Server
	store       *matrix.Store
	runlogStore *runlogstore.Store
	bridge      *advisor.Bridge
}

// NewServer materializes the session matrix and wires the v1 endpoints.
func NewServer(cfg config.Config) (*Server, error) {
	seed := cfg.MatrixSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cat := catalog.Default()
	store := matrix.NewStore(cat, matrix.DemoGenerator(seed))

	var runlog *runlogstore.Store
	if cfg.RunlogSQLitePath != "" {
		createdStore, err := runlogstore.NewSQLiteStore(cfg.RunlogSQLitePath)
		if err != nil {
			return nil, err
		}
		runlog = createdStore
	}

	var geminiClient *geministore.Client
	if cfg.GeminiAPIKey != "" {
		geminiClient = geministore.NewClient(cfg.GeminiEndpoint, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	}
	bridge := advisor.New(geminiClient, cfg.AdvisorSampleLimit)

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/", dashboardHandler)
	mux.HandleFunc("/favicon.ico", faviconHandler)
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/api/v1/metrics/app", appMetricsSummaryHandler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/api/v1/catalog", catalogHandler(cat))
	mux.HandleFunc("/api/v1/matrix", matrixListHandler(cfg.DefaultRowLimit, store))
	mux.HandleFunc("/api/v1/matrix/reconcile", matrixReconcileHandler(store))
	mux.HandleFunc("/api/v1/matrix/", matrixRowRouter(store))
	mux.HandleFunc("/api/v1/stats", statsHandler(store))
	mux.HandleFunc("/api/v1/charts/status-breakdown", statusBreakdownHandler(store))
	mux.HandleFunc("/api/v1/session/reset", sessionResetHandler(store))
	mux.HandleFunc("/api/v1/advisor", advisorLastHandler(bridge))
	mux.HandleFunc("/api/v1/advisor/analyze", advisorAnalyzeHandler(bridge, store))
	mux.HandleFunc("/api/v1/runlog/snapshots", runlogSnapshotsHandler(cfg.DefaultRowLimit, runlog, store))
	mux.HandleFunc("/api/v1/status/services", servicesStatusHandler(store, runlog, bridge))

	httpServer := &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      loggingMiddleware(observabilityMiddleware(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{httpServer: httpServer, store: store, runlogStore: runlog, bridge: bridge}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.runlogStore != nil {
		_ = s.runlogStore.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func readyHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ready",
	})
}

func loggingMiddleware(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next.ServeHTTP(rec, r)
		fmt.Printf("%s %s %s %s\n", r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
