package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/apperrors"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
	"github.com/opsgraph-ai/opsgraph-engine/pkg/services"
)

// maxSearchLimit caps the k parameter.
const maxSearchLimit = 100

// GraphHandler exposes the engine's query surface.
type GraphHandler struct {
	engine   *services.Engine
	chains   *services.ChainSearcher
	patterns *services.PatternQueryService
	fusion   *services.FusionSearcher
	logger   *zap.Logger
}

// NewGraphHandler creates a new GraphHandler.
func NewGraphHandler(
	engine *services.Engine,
	chains *services.ChainSearcher,
	patterns *services.PatternQueryService,
	fusion *services.FusionSearcher,
	logger *zap.Logger,
) *GraphHandler {
	return &GraphHandler{
		engine:   engine,
		chains:   chains,
		patterns: patterns,
		fusion:   fusion,
		logger:   logger,
	}
}

// RegisterRoutes registers the graph handler's routes on the given mux.
func (h *GraphHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", h.Search)
	mux.HandleFunc("GET /api/chains", h.Chains)
	mux.HandleFunc("GET /api/pattern", h.Pattern)
	mux.HandleFunc("GET /api/snapshots/{name}", h.Snapshot)
	mux.HandleFunc("POST /api/rebuild", h.Rebuild)
}

// Search handles GET /api/search?q=...&k=N via result fusion.
func (h *GraphHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteError(w, http.StatusBadRequest, "q parameter cannot be empty")
		return
	}
	topK := parseLimit(r.URL.Query().Get("k"))

	results := h.fusion.Search(r.Context(), h.engine.Reasoned(), query, topK)
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// Chains handles GET /api/chains?from=...&to=... (point-to-point),
// ?from=...&type=... (typed target), or ?from=...&shared=... (shared
// context).
func (h *GraphHandler) Chains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("from")
	if from == "" {
		WriteError(w, http.StatusBadRequest, "from parameter cannot be empty")
		return
	}
	depth, _ := strconv.Atoi(q.Get("depth"))
	g := h.engine.Reasoned()

	var (
		chains []models.Chain
		err    error
	)
	switch {
	case q.Get("shared") != "":
		chains = h.chains.FindSharedContext(g, from, q.Get("shared"))
	case q.Get("type") != "":
		chains, err = h.chains.FindTyped(g, from, q.Get("type"), depth)
	case q.Get("to") != "":
		chains, err = h.chains.FindBetween(g, from, q.Get("to"), depth)
	default:
		WriteError(w, http.StatusBadRequest, "one of to, type, shared is required")
		return
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidDepth) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Chain search failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "chain search failed")
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"chains": chains,
		"count":  len(chains),
	})
}

// Pattern handles GET /api/pattern with either template=name&entity=uri or
// a generic s=&p=&o= triple template (empty positions are unbound; o is
// matched as an IRI, or as a literal when quoted).
func (h *GraphHandler) Pattern(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	g := h.engine.Reasoned()

	if name := q.Get("template"); name != "" {
		rows, err := h.patterns.ExecuteTemplate(g, name, q.Get("entity"))
		if err != nil {
			if errors.Is(err, apperrors.ErrUnknownTemplate) {
				WriteError(w, http.StatusNotFound, err.Error())
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeTriples(w, rows)
		return
	}

	object := models.Term{}
	if o := q.Get("o"); o != "" {
		if strings.HasPrefix(o, `"`) && strings.HasSuffix(o, `"`) && len(o) >= 2 {
			object = models.Literal(o[1 : len(o)-1])
		} else {
			object = models.IRI(o)
		}
	}
	writeTriples(w, h.patterns.Execute(g, q.Get("s"), q.Get("p"), object))
}

// Snapshot handles GET /api/snapshots/{name} for the three named views.
func (h *GraphHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.Snapshot(r.PathValue("name"))
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	_ = WriteJSON(w, http.StatusOK, snapshot)
}

// Rebuild handles POST /api/rebuild, triggering a full build cycle.
func (h *GraphHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	snapshot, report, err := h.engine.Rebuild(r.Context())
	if err != nil {
		h.logger.Error("Rebuild failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "rebuild failed")
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"snapshot": snapshot,
		"report":   report,
	})
}

type tripleRow struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Literal   bool   `json:"literal"`
}

func writeTriples(w http.ResponseWriter, rows []models.Triple) {
	out := make([]tripleRow, 0, len(rows))
	for _, t := range rows {
		out = append(out, tripleRow{
			Subject:   t.Subject,
			Predicate: t.Predicate,
			Object:    t.Object.Value,
			Literal:   t.Object.IsLiteral(),
		})
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"triples": out,
		"count":   len(out),
	})
}

func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0 // fusion falls back to its configured default
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}
