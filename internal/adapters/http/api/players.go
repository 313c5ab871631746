package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/iceteam/icelist/internal/domain/types"
)

// PlayerDependencies defines the player operations.
type PlayerDependencies interface {
	Roster(ctx context.Context) ([]string, error)
	Register(ctx context.Context, player, handle string) error
	Profile(ctx context.Context, player string) (types.PlayerProfile, error)
	FromAlias(ctx context.Context, handle string) (string, bool, error)
	RecordCompletion(ctx context.Context, player, level, link string) (int, error)
	RecordScores(ctx context.Context, player, level string, enjoyment, rating *int) error
}

// PlayersHandler handles player requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type registerRequest struct {
	Player string `json:"player"`
	Handle string `json:"handle"`
}

type completionRequest struct {
	Player string `json:"player"`
	Level  string `json:"level"`
	Link   string `json:"link"`
}

type completionResponse struct {
	Player string `json:"player"`
	Level  string `json:"level"`
	Rank   int    `json:"rank"`
}

type scoresRequest struct {
	Player    string `json:"player"`
	Level     string `json:"level"`
	Enjoyment *int   `json:"enjoyment"`
	Rating    *int   `json:"rating"`
}

type aliasResponse struct {
	Handle string `json:"handle"`
	Player string `json:"player"`
}

// HandleRoster handles GET /players.
func (h *PlayersHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	const op = "api.roster"
	roster, err := h.deps.Roster(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

// HandleRegister handles POST /players.
func (h *PlayersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register"
	var req registerRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.deps.Register(r.Context(), req.Player, req.Handle); err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// HandleProfile handles GET /players/{name}/profile.
func (h *PlayersHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.profile"
	profile, err := h.deps.Profile(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleAlias handles GET /aliases/{handle}.
func (h *PlayersHandler) HandleAlias(w http.ResponseWriter, r *http.Request) {
	const op = "api.alias"
	handle := r.PathValue("handle")
	player, ok, err := h.deps.FromAlias(r.Context(), handle)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if !ok {
		writeError(w, WrapKind(op, ErrNotFound, fmt.Errorf("handle %q", handle)))
		return
	}
	writeJSON(w, http.StatusOK, aliasResponse{Handle: handle, Player: player})
}

// HandleCompletion handles POST /completions.
func (h *PlayersHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	const op = "api.completion"
	var req completionRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	rank, err := h.deps.RecordCompletion(r.Context(), req.Player, req.Level, req.Link)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, completionResponse{Player: req.Player, Level: req.Level, Rank: rank})
}

// HandleScores handles POST /ratings.
func (h *PlayersHandler) HandleScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.scores"
	var req scoresRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Enjoyment == nil && req.Rating == nil {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("enjoyment or rating is required")))
		return
	}
	if err := h.deps.RecordScores(r.Context(), req.Player, req.Level, req.Enjoyment, req.Rating); err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, req)
}
