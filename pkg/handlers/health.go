package handlers

import (
	"net/http"
	"runtime"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/config"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/services"
)

// PingResponse contains service status and graph state information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
	GoVersion   string `json:"go_version"`
	TripleCount int    `json:"triple_count"`
	SourceHash  string `json:"source_hash"`
}

// HealthHandler handles health check and ping endpoints. Readiness is tied
// to the engine: the service is not ready until a graph has been published.
type HealthHandler struct {
	cfg    *config.Config
	engine *services.Engine
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler over the engine.
func NewHealthHandler(cfg *config.Config, engine *services.Engine, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, engine: engine, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health requests. Returns 503 until the first build
// or restore publishes a graph.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.engine.Reasoned().Size() == 0 {
		http.Error(w, "graph not built", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests.
// Returns service information plus the published graph's size and source hash.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "opsgraph-engine",
		Environment: h.cfg.Env,
		GoVersion:   runtime.Version(),
		TripleCount: h.engine.Reasoned().Size(),
		SourceHash:  h.engine.SourceHash(),
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
