package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/iceteam/icelist/internal/domain/types"
)

// LeaderboardDependencies defines the leaderboard and aggregate list reads.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context) ([]types.LeaderboardEntry, error)
	LeaderboardRank(ctx context.Context, player string) (string, error)
	LovedList(ctx context.Context) ([]types.ScoredLevel, error)
	BestList(ctx context.Context) ([]types.ScoredLevel, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

type leaderboardRankResponse struct {
	Player string `json:"player"`
	Rank   string `json:"rank"`
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N. Without limit the whole
// leaderboard is returned.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := -1
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	entries, err := h.deps.Leaderboard(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetRank handles GET /leaderboard/{player}.
func (h *LeaderboardHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard_rank"
	player := r.PathValue("player")
	rank, err := h.deps.LeaderboardRank(r.Context(), player)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, leaderboardRankResponse{Player: player, Rank: rank})
}

// HandleLoved handles GET /lists/loved.
func (h *LeaderboardHandler) HandleLoved(w http.ResponseWriter, r *http.Request) {
	h.scored(w, r, "api.lists_loved", h.deps.LovedList)
}

// HandleBest handles GET /lists/best.
func (h *LeaderboardHandler) HandleBest(w http.ResponseWriter, r *http.Request) {
	h.scored(w, r, "api.lists_best", h.deps.BestList)
}

func (h *LeaderboardHandler) scored(w http.ResponseWriter, r *http.Request, op string, read func(context.Context) ([]types.ScoredLevel, error)) {
	levels, err := read(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, levels)
}
