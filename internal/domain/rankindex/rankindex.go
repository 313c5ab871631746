// Package rankindex resolves levels to their rank in the main list and finds
// level rows in the other list-like tables. Rank is always the row offset from
// the header: row 2 holds rank 1.
package rankindex

import (
	"context"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/names"
	"github.com/iceteam/icelist/internal/domain/types"
	"github.com/iceteam/icelist/pkg/logger"
)

// DefaultMaxRank is the size of the tracked window of the main list.
const DefaultMaxRank = 75

// headerRows is the number of rows above rank 1.
const headerRows = 1

// Index answers rank and verifier queries against the main list. It keeps no
// state between calls; every query re-reads the store.
type Index struct {
	store   tabular.Store
	maxRank int
	log     logger.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithMaxRank sets the size of the tracked window.
func WithMaxRank(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.maxRank = n
		}
	}
}

// WithLogger sets the logger used for absorbed failures.
func WithLogger(l logger.Logger) Option {
	return func(x *Index) {
		if l != nil {
			x.log = l
		}
	}
}

// New builds an Index over store.
func New(store tabular.Store, opts ...Option) *Index {
	x := &Index{
		store:   store,
		maxRank: DefaultMaxRank,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.log = x.log.Named("rankindex")
	return x
}

// MaxRank returns the size of the tracked window.
func (x *Index) MaxRank() int { return x.maxRank }

// RankToRow converts a rank to its 1-based table row.
func RankToRow(rank int) int { return rank + headerRows }

// RowToRank converts a 1-based table row to a rank.
func RowToRank(row int) int { return row - headerRows }

// ResolveRank returns the rank of name in the main list. A missing level yields
// (0, false, nil); store failures are returned as errors.
func (x *Index) ResolveRank(ctx context.Context, name string) (int, bool, error) {
	row, ok, err := x.Locate(ctx, tabular.Main, name)
	if err != nil || !ok {
		return 0, false, err
	}
	return RowToRank(row), true, nil
}

// ResolveVerifier returns the player holding the verified mark on name's row,
// or types.UnknownVerifier when the level, the mark or the store is unavailable.
func (x *Index) ResolveVerifier(ctx context.Context, name string) string {
	row, ok, err := x.Locate(ctx, tabular.Main, name)
	if err != nil {
		x.log.Warn(ctx, "verifier lookup failed", logger.String("level", name), logger.Error(err))
		return types.UnknownVerifier
	}
	if !ok {
		return types.UnknownVerifier
	}
	header, err := x.store.Row(ctx, tabular.Main, 1)
	if err != nil {
		x.log.Warn(ctx, "verifier lookup failed", logger.String("level", name), logger.Error(err))
		return types.UnknownVerifier
	}
	cells, err := x.store.Row(ctx, tabular.Main, row)
	if err != nil {
		x.log.Warn(ctx, "verifier lookup failed", logger.String("level", name), logger.Error(err))
		return types.UnknownVerifier
	}
	for col := 1; col < len(cells); col++ {
		if tabular.DecodeMark(cells[col]) == types.MarkVerified {
			if player := tabular.Cell(header, col); player != "" {
				return player
			}
		}
	}
	return types.UnknownVerifier
}

// Levels returns the ranked entries inside the tracked window, in rank order.
func (x *Index) Levels(ctx context.Context) ([]types.RankedEntry, error) {
	col, err := x.store.Column(ctx, tabular.Main, 1)
	if err != nil {
		return nil, err
	}
	out := make([]types.RankedEntry, 0, x.maxRank)
	for row := headerRows + 1; row <= len(col) && RowToRank(row) <= x.maxRank; row++ {
		if col[row-1] == "" {
			continue
		}
		out = append(out, types.RankedEntry{Level: col[row-1], Rank: RowToRank(row)})
	}
	return out, nil
}

// Locate returns the 1-based row of the first level in t whose name matches
// name after normalization. The header row is never matched.
func (x *Index) Locate(ctx context.Context, t tabular.Table, name string) (int, bool, error) {
	col, err := x.store.Column(ctx, t, 1)
	if err != nil {
		return 0, false, err
	}
	row, ok := LocateIn(col, name)
	return row, ok, nil
}

// LocateIn is Locate over an already fetched first column.
func LocateIn(col []string, name string) (int, bool) {
	if len(col) <= headerRows {
		return 0, false
	}
	i := names.Index(col[headerRows:], name)
	if i < 0 {
		return 0, false
	}
	return i + headerRows + 1, true
}
