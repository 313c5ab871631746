// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/mutator"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// KeyRecorder remembers idempotency keys of write requests.
type KeyRecorder interface {
	SeenAndRecord(ctx context.Context, key string) bool
	Unrecord(ctx context.Context, key string)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	KeyRecorder
	LevelDependencies
	WaitingDependencies
	PlayerDependencies
	LeaderboardDependencies
}

// Server wires HTTP routes for the list API.
type Server struct {
	deps               Dependencies
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	levelsHandler      *LevelsHandler
	waitingHandler     *WaitingHandler
	playersHandler     *PlayersHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		deps:               deps,
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		levelsHandler:      NewLevelsHandler(deps),
		waitingHandler:     NewWaitingHandler(deps),
		playersHandler:     NewPlayersHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	write := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(Idempotent(s.deps, h), endpoint)
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /levels", MetricsMiddleware(s.levelsHandler.HandleList, "levels"))
	mux.HandleFunc("GET /levels/{name}/rank", MetricsMiddleware(s.levelsHandler.HandleRank, "level_rank"))
	mux.HandleFunc("GET /levels/{name}/verifier", MetricsMiddleware(s.levelsHandler.HandleVerifier, "level_verifier"))
	mux.HandleFunc("GET /levels/{name}/stats", MetricsMiddleware(s.levelsHandler.HandleSummary, "level_stats"))
	mux.HandleFunc("POST /levels/place", write(s.levelsHandler.HandlePlace, "level_place"))
	mux.HandleFunc("POST /levels/insert", write(s.levelsHandler.HandleInsert, "level_insert"))
	mux.HandleFunc("POST /levels/move", write(s.levelsHandler.HandleMove, "level_move"))

	mux.HandleFunc("GET /waiting", MetricsMiddleware(s.waitingHandler.HandleList, "waiting"))
	mux.HandleFunc("POST /waiting", write(s.waitingHandler.HandleStage, "waiting_stage"))
	mux.HandleFunc("DELETE /waiting/{level}", write(s.waitingHandler.HandleConsume, "waiting_consume"))

	mux.HandleFunc("POST /completions", write(s.playersHandler.HandleCompletion, "completions"))
	mux.HandleFunc("POST /ratings", write(s.playersHandler.HandleScores, "ratings"))
	mux.HandleFunc("GET /players", MetricsMiddleware(s.playersHandler.HandleRoster, "players"))
	mux.HandleFunc("POST /players", write(s.playersHandler.HandleRegister, "players_register"))
	mux.HandleFunc("GET /players/{name}/profile", MetricsMiddleware(s.playersHandler.HandleProfile, "player_profile"))
	mux.HandleFunc("GET /aliases/{handle}", MetricsMiddleware(s.playersHandler.HandleAlias, "alias"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /leaderboard/{player}", MetricsMiddleware(s.leaderboardHandler.HandleGetRank, "leaderboard_rank"))
	mux.HandleFunc("GET /lists/loved", MetricsMiddleware(s.leaderboardHandler.HandleLoved, "lists_loved"))
	mux.HandleFunc("GET /lists/best", MetricsMiddleware(s.leaderboardHandler.HandleBest, "lists_best"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Set for partial mutations only.
	OpID      string          `json:"op_id,omitempty"`
	Completed []tabular.Table `json:"completed,omitempty"`
	Failed    tabular.Table   `json:"failed,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	resp := errorResponse{Code: code, Message: err.Error()}
	var partial *mutator.PartialMutationError
	if errors.As(err, &partial) {
		resp.OpID = partial.OpID
		resp.Completed = partial.Completed
		resp.Failed = partial.Failed
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return NewKind(op, ErrBadRequest)
		}
		return WrapKind(op, ErrBadRequest, fmt.Errorf("decode body: %w", err))
	}
	return nil
}
