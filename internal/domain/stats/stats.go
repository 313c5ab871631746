// Package stats computes per-level and per-player aggregates by scanning the
// list tables. Missing levels and players yield zero values or sentinels;
// store failures are returned as errors.
package stats

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/archive"
	"github.com/iceteam/icelist/internal/domain/names"
	"github.com/iceteam/icelist/internal/domain/rankindex"
	"github.com/iceteam/icelist/internal/domain/types"
	"github.com/iceteam/icelist/pkg/logger"
)

// Score tables keep the level in column 1 and an aggregate in column 2; player
// columns start at column 3.
const (
	scoreAggregateCol   = 1
	scoreFirstPlayerCol = 2
)

// Leaderboard table columns.
const (
	leaderboardPlayerCol = 1
	leaderboardPointsCol = 2
)

// Aggregator answers statistics queries.
type Aggregator struct {
	store   tabular.Store
	index   *rankindex.Index
	archive *archive.Log
	log     logger.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// New builds an Aggregator over store using index for rank lookups.
func New(store tabular.Store, index *rankindex.Index, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:   store,
		index:   index,
		archive: archive.New(store),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("stats")
	return a
}

// CountCompletions counts completed and verified marks on level's main row.
func (a *Aggregator) CountCompletions(ctx context.Context, level string) (int, error) {
	row, ok, err := a.levelRow(ctx, tabular.Main, level)
	if err != nil || !ok {
		return 0, err
	}
	n := 0
	for _, cell := range row[1:] {
		if tabular.DecodeMark(cell).IsCompletion() {
			n++
		}
	}
	return n, nil
}

// AverageEnjoyment is the mean of the players' enjoyment scores for level, or 0.
func (a *Aggregator) AverageEnjoyment(ctx context.Context, level string) (float64, error) {
	return a.average(ctx, tabular.Enjoyment, level)
}

// AverageRating is the mean of the players' rating scores for level, or 0.
func (a *Aggregator) AverageRating(ctx context.Context, level string) (float64, error) {
	return a.average(ctx, tabular.Rating, level)
}

func (a *Aggregator) average(ctx context.Context, t tabular.Table, level string) (float64, error) {
	row, ok, err := a.levelRow(ctx, t, level)
	if err != nil || !ok {
		return 0, err
	}
	var sum float64
	n := 0
	for i := scoreFirstPlayerCol; i < len(row); i++ {
		if v, ok := parseNumber(row[i]); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// Leaderboard returns the players ordered by points, highest first. Rows without
// a player or numeric points are skipped.
func (a *Aggregator) Leaderboard(ctx context.Context) ([]types.LeaderboardEntry, error) {
	rows, err := a.store.Rows(ctx, tabular.Leaderboard)
	if err != nil {
		return nil, err
	}
	out := make([]types.LeaderboardEntry, 0, len(rows))
	skipped := 0
	for _, row := range rows[min(1, len(rows)):] {
		player := tabular.Cell(row, leaderboardPlayerCol)
		points, ok := parseNumber(tabular.Cell(row, leaderboardPointsCol))
		if player == "" || !ok {
			skipped++
			continue
		}
		out = append(out, types.LeaderboardEntry{Player: player, Points: points})
	}
	if skipped > 0 {
		a.log.Debug(ctx, "leaderboard rows skipped", logger.Int("rows", skipped))
	}
	slices.SortStableFunc(out, func(x, y types.LeaderboardEntry) int { return cmp.Compare(y.Points, x.Points) })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// LeaderboardRank returns player's 1-based leaderboard position, or
// types.NoLeaderboardRank when the player is absent.
func (a *Aggregator) LeaderboardRank(ctx context.Context, player string) (string, error) {
	board, err := a.Leaderboard(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range board {
		if names.Equal(e.Player, player) {
			return strconv.Itoa(e.Rank), nil
		}
	}
	return types.NoLeaderboardRank, nil
}

// Favorite returns the level player enjoyed most, or "" when they scored none.
// Ties keep the level ranked higher.
func (a *Aggregator) Favorite(ctx context.Context, player string) (string, error) {
	return a.extremal(ctx, tabular.Enjoyment, player, func(v, best float64) bool { return v > best })
}

// LeastFavorite returns the level player enjoyed least, or "".
func (a *Aggregator) LeastFavorite(ctx context.Context, player string) (string, error) {
	return a.extremal(ctx, tabular.Enjoyment, player, func(v, best float64) bool { return v < best })
}

// BestRated returns the level player rated highest, or "".
func (a *Aggregator) BestRated(ctx context.Context, player string) (string, error) {
	return a.extremal(ctx, tabular.Rating, player, func(v, best float64) bool { return v > best })
}

// WorstRated returns the level player rated lowest, or "".
func (a *Aggregator) WorstRated(ctx context.Context, player string) (string, error) {
	return a.extremal(ctx, tabular.Rating, player, func(v, best float64) bool { return v < best })
}

// extremal scans player's column of t in list order and keeps the first level
// whose score beats the current pick strictly.
func (a *Aggregator) extremal(ctx context.Context, t tabular.Table, player string, beats func(v, best float64) bool) (string, error) {
	rows, err := a.store.Rows(ctx, t)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) <= scoreFirstPlayerCol {
		return "", nil
	}
	i := names.Index(rows[0][scoreFirstPlayerCol:], player)
	if i < 0 {
		return "", nil
	}
	col := i + scoreFirstPlayerCol

	pick, best, found := "", 0.0, false
	for _, row := range rows[1:] {
		v, ok := parseNumber(tabular.Cell(row, col))
		if !ok {
			continue
		}
		if !found || beats(v, best) {
			pick, best, found = tabular.Cell(row, 0), v, true
		}
	}
	return pick, nil
}

// LovedList returns levels by their aggregate enjoyment, highest first.
func (a *Aggregator) LovedList(ctx context.Context) ([]types.ScoredLevel, error) {
	return a.sortedAggregate(ctx, tabular.Enjoyment)
}

// BestList returns levels by their aggregate rating, highest first.
func (a *Aggregator) BestList(ctx context.Context) ([]types.ScoredLevel, error) {
	return a.sortedAggregate(ctx, tabular.Rating)
}

func (a *Aggregator) sortedAggregate(ctx context.Context, t tabular.Table) ([]types.ScoredLevel, error) {
	rows, err := a.store.Rows(ctx, t)
	if err != nil {
		return nil, err
	}
	out := make([]types.ScoredLevel, 0, len(rows))
	for _, row := range rows[min(1, len(rows)):] {
		level := tabular.Cell(row, 0)
		v, ok := parseNumber(tabular.Cell(row, scoreAggregateCol))
		if level == "" || !ok {
			continue
		}
		out = append(out, types.ScoredLevel{Level: level, Score: v})
	}
	slices.SortStableFunc(out, func(x, y types.ScoredLevel) int { return cmp.Compare(y.Score, x.Score) })
	return out, nil
}

// PlayerCompletions returns the levels listed under player in the players lists table.
func (a *Aggregator) PlayerCompletions(ctx context.Context, player string) ([]string, error) {
	rows, err := a.store.Rows(ctx, tabular.PlayerLists)
	if err != nil {
		return nil, err
	}
	out := []string{}
	if len(rows) == 0 {
		return out, nil
	}
	col := names.Index(rows[0], player)
	if col < 0 {
		return out, nil
	}
	for _, row := range rows[1:] {
		if level := tabular.Cell(row, col); level != "" {
			out = append(out, level)
		}
	}
	return out, nil
}

// LevelSummary bundles the statistics of a ranked level. ok is false when the
// level is not in the main list.
func (a *Aggregator) LevelSummary(ctx context.Context, level string) (types.LevelSummary, bool, error) {
	rank, ok, err := a.index.ResolveRank(ctx, level)
	if err != nil || !ok {
		return types.LevelSummary{}, false, err
	}
	s := types.LevelSummary{Level: level, Rank: rank}
	s.Verifier = a.index.ResolveVerifier(ctx, level)
	if s.AddedDate, err = a.archive.AddedDate(ctx, level); err != nil {
		return types.LevelSummary{}, false, err
	}
	if s.Completions, err = a.CountCompletions(ctx, level); err != nil {
		return types.LevelSummary{}, false, err
	}
	if s.AverageEnjoyment, err = a.AverageEnjoyment(ctx, level); err != nil {
		return types.LevelSummary{}, false, err
	}
	if s.AverageRating, err = a.AverageRating(ctx, level); err != nil {
		return types.LevelSummary{}, false, err
	}
	return s, true, nil
}

// Profile bundles the statistics of a player.
func (a *Aggregator) Profile(ctx context.Context, player string) (types.PlayerProfile, error) {
	p := types.PlayerProfile{Player: player}
	var err error
	if p.LeaderboardRank, err = a.LeaderboardRank(ctx, player); err != nil {
		return types.PlayerProfile{}, err
	}
	if p.Completions, err = a.PlayerCompletions(ctx, player); err != nil {
		return types.PlayerProfile{}, err
	}
	if p.Favorite, err = a.Favorite(ctx, player); err != nil {
		return types.PlayerProfile{}, err
	}
	if p.LeastFavorite, err = a.LeastFavorite(ctx, player); err != nil {
		return types.PlayerProfile{}, err
	}
	if p.BestRated, err = a.BestRated(ctx, player); err != nil {
		return types.PlayerProfile{}, err
	}
	if p.WorstRated, err = a.WorstRated(ctx, player); err != nil {
		return types.PlayerProfile{}, err
	}
	return p, nil
}

// levelRow fetches the row of level in t.
func (a *Aggregator) levelRow(ctx context.Context, t tabular.Table, level string) ([]string, bool, error) {
	col, err := a.store.Column(ctx, t, 1)
	if err != nil {
		return nil, false, err
	}
	row, ok := rankindex.LocateIn(col, level)
	if !ok {
		return nil, false, nil
	}
	cells, err := a.store.Row(ctx, t, row)
	if err != nil {
		return nil, false, err
	}
	if len(cells) == 0 {
		return nil, false, nil
	}
	return cells, true, nil
}

// parseNumber reads a numeric cell, accepting a decimal comma.
func parseNumber(cell string) (float64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", ".")
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
