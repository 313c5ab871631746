package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iceteam/icelist/internal/domain/mutator"
	"github.com/iceteam/icelist/internal/domain/types"
)

// LevelDependencies defines the list operations on levels.
type LevelDependencies interface {
	Levels(ctx context.Context) ([]types.RankedEntry, error)
	ResolveRank(ctx context.Context, level string) (int, bool, error)
	ResolveVerifier(ctx context.Context, level string) string
	LevelSummary(ctx context.Context, level string) (types.LevelSummary, bool, error)
	Place(ctx context.Context, level, fallbackVictor string, rank int) (mutator.Result, error)
	InsertAt(ctx context.Context, level, firstVictor string, rank int, meta types.Metadata) (mutator.Result, error)
	MoveTo(ctx context.Context, level string, rank int) (mutator.Result, error)
}

// LevelsHandler handles level requests.
type LevelsHandler struct {
	deps LevelDependencies
}

// NewLevelsHandler creates a new levels handler.
func NewLevelsHandler(deps LevelDependencies) *LevelsHandler {
	return &LevelsHandler{deps: deps}
}

type placeRequest struct {
	Level          string `json:"level"`
	Rank           int    `json:"rank"`
	FallbackVictor string `json:"fallback_victor"`
}

type insertRequest struct {
	Level       string `json:"level"`
	Rank        int    `json:"rank"`
	FirstVictor string `json:"first_victor"`
	types.Metadata
}

type moveRequest struct {
	Level string `json:"level"`
	Rank  int    `json:"rank"`
}

type verifierResponse struct {
	Level    string `json:"level"`
	Verifier string `json:"verifier"`
}

// HandleList handles GET /levels.
func (h *LevelsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_levels"
	levels, err := h.deps.Levels(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

// HandleRank handles GET /levels/{name}/rank.
func (h *LevelsHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.level_rank"
	name := r.PathValue("name")
	rank, ok, err := h.deps.ResolveRank(r.Context(), name)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if !ok {
		writeError(w, WrapKind(op, ErrNotFound, fmt.Errorf("level %q", name)))
		return
	}
	writeJSON(w, http.StatusOK, types.RankedEntry{Level: name, Rank: rank})
}

// HandleVerifier handles GET /levels/{name}/verifier.
func (h *LevelsHandler) HandleVerifier(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	writeJSON(w, http.StatusOK, verifierResponse{Level: name, Verifier: h.deps.ResolveVerifier(r.Context(), name)})
}

// HandleSummary handles GET /levels/{name}/stats.
func (h *LevelsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.level_stats"
	name := r.PathValue("name")
	summary, ok, err := h.deps.LevelSummary(r.Context(), name)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if !ok {
		writeError(w, WrapKind(op, ErrNotFound, fmt.Errorf("level %q", name)))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandlePlace handles POST /levels/place.
func (h *LevelsHandler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	const op = "api.place_level"
	var req placeRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.deps.Place(r.Context(), req.Level, req.FallbackVictor, req.Rank)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleInsert handles POST /levels/insert.
func (h *LevelsHandler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	const op = "api.insert_level"
	var req insertRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.deps.InsertAt(r.Context(), req.Level, req.FirstVictor, req.Rank, req.Metadata)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleMove handles POST /levels/move.
func (h *LevelsHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	const op = "api.move_level"
	var req moveRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.deps.MoveTo(r.Context(), req.Level, req.Rank)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
