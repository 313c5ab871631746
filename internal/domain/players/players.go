// Package players manages the roster and records what players did on levels.
// A player is registered by having a header column in the list tables.
package players

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/archive"
	"github.com/iceteam/icelist/internal/domain/names"
	"github.com/iceteam/icelist/internal/domain/rankindex"
	"github.com/iceteam/icelist/internal/domain/types"
	"github.com/iceteam/icelist/internal/domain/validate"
	"github.com/iceteam/icelist/internal/domain/waiting"
	"github.com/iceteam/icelist/pkg/logger"
)

// Alias table rows.
const (
	aliasPlayerRow = 1
	aliasHandleRow = 2
)

// Registry reads and updates player data.
type Registry struct {
	store      tabular.Store
	archive    *archive.Log
	clock      types.Clock
	dateLayout string
	log        logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for archive dates.
func WithClock(c types.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithDateLayout overrides the stored date format.
func WithDateLayout(layout string) Option {
	return func(r *Registry) {
		if layout != "" {
			r.dateLayout = layout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New builds a Registry over store.
func New(store tabular.Store, opts ...Option) *Registry {
	r := &Registry{
		store:      store,
		archive:    archive.New(store),
		clock:      time.Now,
		dateLayout: waiting.DefaultDateLayout,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("players")
	return r
}

// Roster returns the registered players in header order.
func (r *Registry) Roster(ctx context.Context) ([]string, error) {
	header, err := r.store.Row(ctx, tabular.Main, 1)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(header))
	for _, p := range header[min(1, len(header)):] {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// FromAlias returns the player registered under a communication handle.
// Handles match case-insensitively.
func (r *Registry) FromAlias(ctx context.Context, handle string) (string, bool, error) {
	players, err := r.store.Row(ctx, tabular.Aliases, aliasPlayerRow)
	if err != nil {
		return "", false, err
	}
	handles, err := r.store.Row(ctx, tabular.Aliases, aliasHandleRow)
	if err != nil {
		return "", false, err
	}
	i := names.Index(handles, handle)
	if i < 0 || tabular.Cell(players, i) == "" {
		return "", false, nil
	}
	return players[i], true, nil
}

// Register adds player as a new header column of the main, enjoyment, rating and
// players lists tables, marks every listed level NotCompleted for them and maps
// handle to them. Writes are not atomic; a failure leaves earlier tables updated.
func (r *Registry) Register(ctx context.Context, player, handle string) error {
	player = strings.TrimSpace(player)
	handle = strings.ToLower(strings.TrimSpace(handle))
	if err := validate.Player(player, handle); err != nil {
		return err
	}
	header, err := r.store.Row(ctx, tabular.Main, 1)
	if err != nil {
		return err
	}
	if _, dup := playerColumn(header, player); dup {
		return fmt.Errorf("%w: %s", ErrDuplicatePlayer, player)
	}
	levels, err := r.store.Column(ctx, tabular.Main, 1)
	if err != nil {
		return err
	}

	col := max(len(header), 1) + 1
	// An empty main table still gets the header cell.
	cells := make([][]string, max(len(levels), 1))
	cells[0] = []string{player}
	for i := 1; i < len(levels); i++ {
		if levels[i] != "" {
			cells[i] = []string{tabular.EncodeMark(types.MarkNotCompleted)}
		} else {
			cells[i] = []string{""}
		}
	}
	if err := r.store.WriteRange(ctx, tabular.Main, 1, col, cells); err != nil {
		return fmt.Errorf("register %s in %s: %w", player, tabular.Main, err)
	}
	for _, t := range []tabular.Table{tabular.Enjoyment, tabular.Rating, tabular.PlayerLists} {
		if err := r.appendHeader(ctx, t, player); err != nil {
			return fmt.Errorf("register %s in %s: %w", player, t, err)
		}
	}
	aliases, err := r.store.Row(ctx, tabular.Aliases, aliasPlayerRow)
	if err != nil {
		return fmt.Errorf("register %s in %s: %w", player, tabular.Aliases, err)
	}
	if err := r.store.WriteRange(ctx, tabular.Aliases, aliasPlayerRow, len(aliases)+1, [][]string{{player}, {handle}}); err != nil {
		return fmt.Errorf("register %s in %s: %w", player, tabular.Aliases, err)
	}
	r.log.Info(ctx, "player registered", logger.String("player", player), logger.String("handle", handle))
	return nil
}

func (r *Registry) appendHeader(ctx context.Context, t tabular.Table, player string) error {
	header, err := r.store.Row(ctx, t, 1)
	if err != nil {
		return err
	}
	return r.store.WriteCell(ctx, t, 1, len(header)+1, player)
}

// RecordCompletion logs a "beat" in the archive and marks the level completed for
// player. A verified mark is never downgraded. It returns the level's rank.
func (r *Registry) RecordCompletion(ctx context.Context, player, level, link string) (int, error) {
	header, err := r.store.Row(ctx, tabular.Main, 1)
	if err != nil {
		return 0, err
	}
	col, ok := playerColumn(header, player)
	if !ok {
		return 0, fmt.Errorf("%w: player %q in %s", ErrNotFound, player, tabular.Main)
	}
	levels, err := r.store.Column(ctx, tabular.Main, 1)
	if err != nil {
		return 0, err
	}
	row, ok := rankindex.LocateIn(levels, level)
	if !ok {
		return 0, fmt.Errorf("%w: level %q in %s", ErrNotFound, level, tabular.Main)
	}
	rank := rankindex.RowToRank(row)
	if err := r.archive.Prepend(ctx, types.ArchiveRecord{
		Action: types.ActionBeat,
		Player: header[col-1],
		Level:  levels[row-1],
		Rank:   rank,
		Link:   link,
		Date:   r.clock().Format(r.dateLayout),
	}); err != nil {
		return 0, err
	}
	cells, err := r.store.Row(ctx, tabular.Main, row)
	if err != nil {
		return 0, err
	}
	if tabular.DecodeMark(tabular.Cell(cells, col-1)) == types.MarkVerified {
		return rank, nil
	}
	if err := r.store.WriteCell(ctx, tabular.Main, row, col, tabular.EncodeMark(types.MarkCompleted)); err != nil {
		return 0, err
	}
	r.log.Info(ctx, "completion recorded",
		logger.String("player", header[col-1]),
		logger.String("level", levels[row-1]),
		logger.Int("rank", rank))
	return rank, nil
}

// RecordEnjoyment writes player's enjoyment score for level.
func (r *Registry) RecordEnjoyment(ctx context.Context, player, level string, score int) error {
	return r.recordScore(ctx, tabular.Enjoyment, "enjoyment", player, level, score)
}

// RecordRating writes player's rating score for level.
func (r *Registry) RecordRating(ctx context.Context, player, level string, score int) error {
	return r.recordScore(ctx, tabular.Rating, "rating", player, level, score)
}

func (r *Registry) recordScore(ctx context.Context, t tabular.Table, field, player, level string, score int) error {
	if err := validate.Score(field, score); err != nil {
		return err
	}
	row, col, err := r.cell(ctx, t, player, level)
	if err != nil {
		return err
	}
	return r.store.WriteCell(ctx, t, row, col, strconv.Itoa(score))
}

// cell locates the 1-based (row, col) of player's cell on level's row of t.
func (r *Registry) cell(ctx context.Context, t tabular.Table, player, level string) (int, int, error) {
	header, err := r.store.Row(ctx, t, 1)
	if err != nil {
		return 0, 0, err
	}
	col, ok := playerColumn(header, player)
	if !ok {
		return 0, 0, fmt.Errorf("%w: player %q in %s", ErrNotFound, player, t)
	}
	levels, err := r.store.Column(ctx, t, 1)
	if err != nil {
		return 0, 0, err
	}
	row, ok := rankindex.LocateIn(levels, level)
	if !ok {
		return 0, 0, fmt.Errorf("%w: level %q in %s", ErrNotFound, level, t)
	}
	return row, col, nil
}

// playerColumn returns the 1-based column of player in header, never column 1.
func playerColumn(header []string, player string) (int, bool) {
	if len(header) < 2 {
		return 0, false
	}
	i := names.Index(header[1:], player)
	if i < 0 {
		return 0, false
	}
	return i + 2, true
}
