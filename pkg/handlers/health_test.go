package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/adapters/tabular"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/config"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/services"
)

func newHealthFixture(t *testing.T) (*services.Engine, *http.ServeMux) {
	t.Helper()
	logger := zap.NewNop()

	loader := tabular.NewMemoryLoader().AddTable(&models.Table{
		Name:    "units",
		Columns: []string{"unit_id", "name"},
		Rows: []models.Row{{
			"unit_id": models.StringValue("U1"),
			"name":    models.StringValue("alpha company"),
		}},
	})
	registry := services.NewSchemaRegistry(loader, logger)
	builder := services.NewGraphBuilder(registry, services.NewEnrichmentRegistry(), true, logger)
	engine := services.NewEngine(loader, builder, services.NewReasoner(logger),
		services.NewRuleEngine(services.DefaultRules(), logger), nil, nil, nil, logger)

	cfg := &config.Config{Env: "test", Version: "test"}
	mux := http.NewServeMux()
	NewHealthHandler(cfg, engine, logger).RegisterRoutes(mux)
	return engine, mux
}

func TestHealthReflectsGraphReadiness(t *testing.T) {
	engine, mux := newHealthFixture(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, _, err := engine.Rebuild(context.Background())
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPingReportsGraphState(t *testing.T) {
	engine, mux := newHealthFixture(t)
	_, _, err := engine.Rebuild(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "opsgraph-engine", resp.Service)
	assert.Greater(t, resp.TripleCount, 0)
	assert.NotEmpty(t, resp.SourceHash)
}
