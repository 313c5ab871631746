package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iceteam/icelist/internal/domain/types"
)

// WaitingDependencies defines the waiting-list operations.
type WaitingDependencies interface {
	Waiting(ctx context.Context) ([]types.WaitingEntry, error)
	Stage(ctx context.Context, entry types.WaitingEntry) (types.WaitingEntry, error)
	ConsumeWaiting(ctx context.Context, level string) (*types.WaitingEntry, error)
}

// WaitingHandler handles waiting-list requests.
type WaitingHandler struct {
	deps WaitingDependencies
}

// NewWaitingHandler creates a new waiting-list handler.
func NewWaitingHandler(deps WaitingDependencies) *WaitingHandler {
	return &WaitingHandler{deps: deps}
}

type stageRequest struct {
	Level            string `json:"level"`
	Submitter        string `json:"submitter"`
	IsExtreme        bool   `json:"is_extreme"`
	PlacementOpinion string `json:"placement_opinion"`
	Comment          string `json:"comment"`
	Enjoyment        *int   `json:"enjoyment"`
	Rating           *int   `json:"rating"`
	Link             string `json:"link"`
}

// HandleList handles GET /waiting.
func (h *WaitingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_waiting"
	entries, err := h.deps.Waiting(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleStage handles POST /waiting.
func (h *WaitingHandler) HandleStage(w http.ResponseWriter, r *http.Request) {
	const op = "api.stage"
	var req stageRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.deps.Stage(r.Context(), types.WaitingEntry{
		Level:            req.Level,
		Submitter:        req.Submitter,
		IsExtreme:        req.IsExtreme,
		PlacementOpinion: req.PlacementOpinion,
		Comment:          req.Comment,
		Enjoyment:        req.Enjoyment,
		Rating:           req.Rating,
		Link:             req.Link,
	})
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// HandleConsume handles DELETE /waiting/{level}: it withdraws the first staged
// submission for the level without ranking it.
func (h *WaitingHandler) HandleConsume(w http.ResponseWriter, r *http.Request) {
	const op = "api.consume_waiting"
	level := r.PathValue("level")
	entry, err := h.deps.ConsumeWaiting(r.Context(), level)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if entry == nil {
		writeError(w, WrapKind(op, ErrNotFound, fmt.Errorf("no submission staged for %q", level)))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
