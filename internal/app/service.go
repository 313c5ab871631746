// Package service wires the list components over one tabular store and exposes
// the operations the HTTP API and the CLI call.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/dedupe"
	"github.com/iceteam/icelist/internal/domain/mutator"
	"github.com/iceteam/icelist/internal/domain/players"
	"github.com/iceteam/icelist/internal/domain/rankindex"
	"github.com/iceteam/icelist/internal/domain/stats"
	"github.com/iceteam/icelist/internal/domain/types"
	"github.com/iceteam/icelist/internal/domain/waiting"
	"github.com/iceteam/icelist/pkg/logger"
	"github.com/iceteam/icelist/pkg/metrics"
)

// Service implements the API dependencies for the list.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    tabular.Store
	index    *rankindex.Index
	mutator  *mutator.Mutator
	waiting  *waiting.Manager
	stats    *stats.Aggregator
	players  *players.Registry
	deduper  dedupe.Deduper
	rawStore tabular.Store

	// Configuration
	maxRank    int
	dedupeSize int
	dateLayout string
	clock      types.Clock

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the tabular store every component reads and writes.
func WithStore(store tabular.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.rawStore = store
		}
	}
}

// WithMaxRank sets the size of the tracked window.
func WithMaxRank(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRank = n
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDateLayout sets the layout of dates written to the waiting list and archive.
func WithDateLayout(layout string) Option {
	return func(s *Service) {
		if layout != "" {
			s.dateLayout = layout
		}
	}
}

// WithClock sets the time source for written dates.
func WithClock(c types.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		maxRank:    rankindex.DefaultMaxRank,
		dedupeSize: dedupe.DefaultMaxKeys,
		dateLayout: waiting.DefaultDateLayout,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components over the configured store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.rawStore == nil {
		return ErrNoStore
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	log := s.logger

	s.store = tabular.Instrument(s.rawStore, log)
	s.index = rankindex.New(s.store, rankindex.WithMaxRank(s.maxRank), rankindex.WithLogger(log))
	s.mutator = mutator.New(s.store,
		mutator.WithMaxRank(s.maxRank),
		mutator.WithClock(s.clock),
		mutator.WithDateLayout(s.dateLayout),
		mutator.WithLogger(log),
	)
	s.waiting = waiting.New(s.store,
		waiting.WithClock(s.clock),
		waiting.WithDateLayout(s.dateLayout),
		waiting.WithLogger(log),
	)
	s.stats = stats.New(s.store, s.index, stats.WithLogger(log))
	s.players = players.New(s.store,
		players.WithClock(s.clock),
		players.WithDateLayout(s.dateLayout),
		players.WithLogger(log),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.started = true
	s.startedAt = s.clock()
	s.logger.Info(ctx, "list service started",
		logger.Int("maxRank", s.maxRank),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("dateLayout", s.dateLayout),
	)
	return nil
}

// Stop marks the service stopped. The store holds no resources to release.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "list service stopped")
}

// Started reports whether Start completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// MaxRank is the size of the tracked window.
func (s *Service) MaxRank() int { return s.maxRank }

// SeenAndRecord reports whether an idempotency key was already used and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	seen := s.deduper.SeenAndRecord(ctx, key)
	if seen {
		metrics.RecordDuplicateRequest()
	}
	return seen
}

// Unrecord forgets an idempotency key so the request can be retried.
func (s *Service) Unrecord(ctx context.Context, key string) {
	s.deduper.Unrecord(ctx, key)
}

// Levels returns the tracked window in rank order.
func (s *Service) Levels(ctx context.Context) ([]types.RankedEntry, error) {
	return s.index.Levels(ctx)
}

// ResolveRank returns the rank of level in the main list.
func (s *Service) ResolveRank(ctx context.Context, level string) (int, bool, error) {
	return s.index.ResolveRank(ctx, level)
}

// ResolveVerifier returns the verifier of level or types.UnknownVerifier.
func (s *Service) ResolveVerifier(ctx context.Context, level string) string {
	return s.index.ResolveVerifier(ctx, level)
}

// LevelSummary returns the statistics of level; ok is false when it is not listed.
func (s *Service) LevelSummary(ctx context.Context, level string) (types.LevelSummary, bool, error) {
	return s.stats.LevelSummary(ctx, level)
}

// Place ranks a level using its staged submission, if any.
func (s *Service) Place(ctx context.Context, level, fallbackVictor string, rank int) (mutator.Result, error) {
	return s.mutator.Place(ctx, level, fallbackVictor, rank)
}

// InsertAt ranks a level with explicit metadata.
func (s *Service) InsertAt(ctx context.Context, level, firstVictor string, rank int, meta types.Metadata) (mutator.Result, error) {
	return s.mutator.InsertAt(ctx, level, firstVictor, rank, meta)
}

// MoveTo relocates a ranked level.
func (s *Service) MoveTo(ctx context.Context, level string, rank int) (mutator.Result, error) {
	return s.mutator.MoveTo(ctx, level, rank)
}

// Waiting lists staged submissions in submission order.
func (s *Service) Waiting(ctx context.Context) ([]types.WaitingEntry, error) {
	return s.waiting.List(ctx)
}

// Stage appends a submission to the waiting list.
func (s *Service) Stage(ctx context.Context, entry types.WaitingEntry) (types.WaitingEntry, error) {
	return s.waiting.Stage(ctx, entry)
}

// ConsumeWaiting removes and returns the first staged submission for level, or
// nil when none is staged.
func (s *Service) ConsumeWaiting(ctx context.Context, level string) (*types.WaitingEntry, error) {
	return s.mutator.ConsumeWaiting(ctx, level)
}

// RecordCompletion credits player with a completion of level and returns the
// rank written to the archive.
func (s *Service) RecordCompletion(ctx context.Context, player, level, link string) (int, error) {
	return s.players.RecordCompletion(ctx, player, level, link)
}

// RecordScores writes the enjoyment and rating a player gave a level; nil scores are skipped.
func (s *Service) RecordScores(ctx context.Context, player, level string, enjoyment, rating *int) error {
	if enjoyment != nil {
		if err := s.players.RecordEnjoyment(ctx, player, level, *enjoyment); err != nil {
			return err
		}
	}
	if rating != nil {
		if err := s.players.RecordRating(ctx, player, level, *rating); err != nil {
			return err
		}
	}
	return nil
}

// Leaderboard returns the leaderboard ordered by points.
func (s *Service) Leaderboard(ctx context.Context) ([]types.LeaderboardEntry, error) {
	return s.stats.Leaderboard(ctx)
}

// LeaderboardRank returns the leaderboard position of player or types.NoLeaderboardRank.
func (s *Service) LeaderboardRank(ctx context.Context, player string) (string, error) {
	return s.stats.LeaderboardRank(ctx, player)
}

// Roster returns the registered players.
func (s *Service) Roster(ctx context.Context) ([]string, error) {
	return s.players.Roster(ctx)
}

// Register adds a player and their chat handle.
func (s *Service) Register(ctx context.Context, player, handle string) error {
	return s.players.Register(ctx, player, handle)
}

// Profile returns the statistics of player.
func (s *Service) Profile(ctx context.Context, player string) (types.PlayerProfile, error) {
	return s.stats.Profile(ctx, player)
}

// FromAlias resolves a chat handle to a player.
func (s *Service) FromAlias(ctx context.Context, handle string) (string, bool, error) {
	return s.players.FromAlias(ctx, handle)
}

// LovedList returns levels by average enjoyment, best first.
func (s *Service) LovedList(ctx context.Context) ([]types.ScoredLevel, error) {
	return s.stats.LovedList(ctx)
}

// BestList returns levels by average rating, best first.
func (s *Service) BestList(ctx context.Context) ([]types.ScoredLevel, error) {
	return s.stats.BestList(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()

	snapshot := map[string]interface{}{
		"started":    s.started,
		"maxRank":    s.maxRank,
		"dedupeSize": s.dedupeSize,
		"heapBytes":  mem.HeapAlloc,
		"goroutines": goroutines,
	}
	if s.started {
		snapshot["uptimeSeconds"] = int64(s.clock().Sub(s.startedAt).Seconds())
		snapshot["idempotencyKeys"] = s.deduper.Size()
	}

	metrics.UpdateSystemMemoryUsage(mem.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(goroutines)
	return snapshot
}
