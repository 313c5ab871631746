package mutator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/archive"
	"github.com/iceteam/icelist/internal/domain/names"
	"github.com/iceteam/icelist/internal/domain/rankindex"
	"github.com/iceteam/icelist/internal/domain/types"
	"github.com/iceteam/icelist/internal/domain/validate"
	"github.com/iceteam/icelist/internal/domain/waiting"
	"github.com/iceteam/icelist/pkg/logger"
	"github.com/iceteam/icelist/pkg/metrics"
)

// Operation names used in logs, metrics and errors.
const (
	OpInsert = "insert"
	OpMove   = "move"
	OpPlace  = "place"
)

const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeFailed  = "failed"
	outcomePartial = "partial"
)

// Result describes a completed mutation.
type Result struct {
	OpID        string          `json:"op_id"`
	Level       string          `json:"level"`
	Rank        int             `json:"rank"`
	PrevRank    int             `json:"prev_rank,omitempty"`
	FirstVictor string          `json:"first_victor,omitempty"`
	Tables      []tabular.Table `json:"tables"`
	// Evicted names the level pushed out of the tracked window, if any.
	Evicted string              `json:"evicted,omitempty"`
	Staged  *types.WaitingEntry `json:"staged,omitempty"`
}

// Mutator applies structural changes to the list tables.
type Mutator struct {
	store      tabular.Store
	waiting    *waiting.Manager
	archive    *archive.Log
	maxRank    int
	clock      types.Clock
	dateLayout string
	newID      func() string
	log        logger.Logger
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithMaxRank sets the size of the tracked window.
func WithMaxRank(n int) Option {
	return func(m *Mutator) {
		if n > 0 {
			m.maxRank = n
		}
	}
}

// WithClock overrides the time source used for archive dates.
func WithClock(c types.Clock) Option {
	return func(m *Mutator) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithDateLayout overrides the stored date format.
func WithDateLayout(layout string) Option {
	return func(m *Mutator) {
		if layout != "" {
			m.dateLayout = layout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Mutator) {
		if l != nil {
			m.log = l
		}
	}
}

// WithIDGenerator overrides how operation ids are generated.
func WithIDGenerator(f func() string) Option {
	return func(m *Mutator) {
		if f != nil {
			m.newID = f
		}
	}
}

// New builds a Mutator over store.
func New(store tabular.Store, opts ...Option) *Mutator {
	m := &Mutator{
		store:      store,
		maxRank:    rankindex.DefaultMaxRank,
		clock:      time.Now,
		dateLayout: waiting.DefaultDateLayout,
		newID:      uuid.NewString,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.waiting = waiting.New(store, waiting.WithClock(m.clock), waiting.WithDateLayout(m.dateLayout), waiting.WithLogger(m.log))
	m.archive = archive.New(store)
	m.log = m.log.Named("mutator")
	return m
}

// step is one write of a mutation. wrote reports whether the store changed even
// though err is set.
type step struct {
	table tabular.Table
	run   func(ctx context.Context) (wrote bool, err error)
}

// InsertAt splices a new level into the list at rank. The prior occupant of rank
// and everything below it shift down by one.
func (m *Mutator) InsertAt(ctx context.Context, level, firstVictor string, rank int, meta types.Metadata) (Result, error) {
	return m.insert(ctx, OpInsert, level, firstVictor, rank, meta, nil)
}

// Place ranks a level, taking its first victor and metadata from the first staged
// submission for it. Without one, fallbackVictor is credited and no metadata is
// written. The staged row is deleted only once the level is in the list.
func (m *Mutator) Place(ctx context.Context, level, fallbackVictor string, rank int) (Result, error) {
	if err := validate.Place(level, rank, m.maxRank); err != nil {
		return Result{}, m.rejected(ctx, OpPlace, err)
	}
	staged, err := m.waiting.Find(ctx, level)
	if err != nil {
		m.finish(ctx, OpPlace, outcomeFailed, time.Now())
		return Result{}, err
	}
	victor, meta := fallbackVictor, types.Metadata{}
	if staged != nil {
		meta = m.stagedMetadata(ctx, staged)
		if staged.Submitter != "" {
			victor = staged.Submitter
		}
	}
	return m.insert(ctx, OpPlace, level, victor, rank, meta, staged)
}

// stagedMetadata drops staged scores that were edited out of range in the sheet
// so they cannot block the placement.
func (m *Mutator) stagedMetadata(ctx context.Context, staged *types.WaitingEntry) types.Metadata {
	meta := staged.Metadata()
	for field, score := range map[string]**int{"enjoyment": &meta.Enjoyment, "rating": &meta.Rating} {
		if *score == nil {
			continue
		}
		if err := validate.Score(field, **score); err != nil {
			m.log.Warn(ctx, "dropping invalid staged score",
				logger.String("level", staged.Level), logger.String("field", field), logger.Int("score", **score))
			*score = nil
		}
	}
	return meta
}

// ConsumeWaiting removes and returns the first staged submission for level, or
// nil when none is staged.
func (m *Mutator) ConsumeWaiting(ctx context.Context, level string) (*types.WaitingEntry, error) {
	return m.waiting.Consume(ctx, level)
}

func (m *Mutator) insert(ctx context.Context, op, level, victor string, rank int, meta types.Metadata, staged *types.WaitingEntry) (Result, error) {
	start := time.Now()
	if err := validate.Insert(level, victor, rank, m.maxRank, meta); err != nil {
		return Result{}, m.rejected(ctx, op, err)
	}

	levels, err := m.store.Column(ctx, tabular.Main, 1)
	if err != nil {
		m.finish(ctx, op, outcomeFailed, start)
		return Result{}, err
	}
	if _, dup := rankindex.LocateIn(levels, level); dup {
		m.finish(ctx, op, outcomeInvalid, start)
		return Result{}, fmt.Errorf("%w: %s", ErrDuplicateLevel, level)
	}
	size := max(len(levels)-1, 0)
	if err := validate.Within(op, rank, min(m.maxRank, size+1)); err != nil {
		return Result{}, m.rejected(ctx, op, err)
	}

	header, err := m.store.Row(ctx, tabular.Main, 1)
	if err != nil {
		m.finish(ctx, op, outcomeFailed, start)
		return Result{}, err
	}
	row := rankindex.RankToRow(rank)
	mainRow := make([]string, max(len(header), 1))
	mainRow[0] = level
	for i := 1; i < len(mainRow); i++ {
		mainRow[i] = tabular.EncodeMark(types.MarkNotCompleted)
	}
	if col := playerColumn(header, victor); col > 0 {
		mainRow[col] = tabular.EncodeMark(types.MarkVerified)
	}

	steps := []step{{table: tabular.Main, run: func(ctx context.Context) (bool, error) {
		return false, m.store.InsertRow(ctx, tabular.Main, row, mainRow)
	}}}
	if meta.IsExtreme {
		steps = append(steps, step{table: tabular.Extreme, run: func(ctx context.Context) (bool, error) {
			return false, m.store.InsertRow(ctx, tabular.Extreme, row, []string{level, victor, meta.Comment, meta.Link})
		}})
		if meta.Enjoyment != nil {
			steps = append(steps, m.scoreRowStep(tabular.Enjoyment, level, victor, row, *meta.Enjoyment))
		}
		if meta.Rating != nil {
			steps = append(steps, m.scoreRowStep(tabular.Rating, level, victor, row, *meta.Rating))
		}
	}
	if staged != nil {
		steps = append(steps, step{table: tabular.Waiting, run: func(ctx context.Context) (bool, error) {
			return false, m.waiting.Delete(ctx, staged.Row)
		}})
	}
	record := types.ArchiveRecord{
		Action: types.ActionAdded,
		Player: victor,
		Level:  level,
		Rank:   rank,
		Link:   meta.Link,
		Date:   m.clock().Format(m.dateLayout),
	}
	steps = append(steps, step{table: tabular.Archive, run: func(ctx context.Context) (bool, error) {
		return false, m.archive.Prepend(ctx, record)
	}})

	res := Result{OpID: m.newID(), Level: level, Rank: rank, FirstVictor: victor, Staged: staged}
	// The occupant of the last tracked rank falls out of the window.
	if size >= m.maxRank {
		res.Evicted = levels[m.maxRank]
	}

	tables, err := m.apply(ctx, op, res.OpID, level, steps)
	res.Tables = tables
	if err != nil {
		m.finish(ctx, op, outcomeOf(err), start)
		return res, err
	}
	if res.Evicted != "" {
		metrics.RecordEviction()
		m.log.Info(ctx, "level left the tracked window",
			logger.String("op_id", res.OpID),
			logger.String("level", res.Evicted))
	}
	m.finish(ctx, op, outcomeOK, start)
	m.log.Info(ctx, "level inserted",
		logger.String("op_id", res.OpID),
		logger.String("op", op),
		logger.String("level", level),
		logger.Int("rank", rank),
		logger.String("first_victor", victor),
		logger.Bool("extreme", meta.IsExtreme))
	return res, nil
}

// scoreRowStep inserts a score row holding only the victor's score.
func (m *Mutator) scoreRowStep(t tabular.Table, level, victor string, row, score int) step {
	return step{table: t, run: func(ctx context.Context) (bool, error) {
		header, err := m.store.Row(ctx, t, 1)
		if err != nil {
			return false, err
		}
		values := make([]string, max(len(header), 1))
		values[0] = level
		if col := playerColumn(header, victor); col > 0 {
			values[col] = strconv.Itoa(score)
		}
		return false, m.store.InsertRow(ctx, t, row, values)
	}}
}

// MoveTo relocates level to newRank in every list-like table that holds it.
// Tables lacking the level are skipped; the main list must hold it.
func (m *Mutator) MoveTo(ctx context.Context, level string, newRank int) (Result, error) {
	start := time.Now()
	if err := validate.Move(level, newRank, m.maxRank); err != nil {
		return Result{}, m.rejected(ctx, OpMove, err)
	}
	levels, err := m.store.Column(ctx, tabular.Main, 1)
	if err != nil {
		m.finish(ctx, OpMove, outcomeFailed, start)
		return Result{}, err
	}
	oldRow, ok := rankindex.LocateIn(levels, level)
	if !ok {
		m.finish(ctx, OpMove, outcomeInvalid, start)
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, level)
	}
	if err := validate.Within(OpMove, newRank, min(m.maxRank, len(levels)-1)); err != nil {
		return Result{}, m.rejected(ctx, OpMove, err)
	}

	res := Result{
		OpID:     m.newID(),
		Level:    levels[oldRow-1],
		Rank:     newRank,
		PrevRank: rankindex.RowToRank(oldRow),
	}
	var (
		steps  []step
		moving []string
	)
	for _, t := range []tabular.Table{tabular.Main, tabular.Enjoyment, tabular.Rating, tabular.Extreme} {
		steps = append(steps, step{table: t, run: func(ctx context.Context) (bool, error) {
			moving = nil
			col, err := m.store.Column(ctx, t, 1)
			if err != nil {
				return false, err
			}
			from, ok := rankindex.LocateIn(col, level)
			if !ok {
				return false, errSkip
			}
			content, err := m.store.Row(ctx, t, from)
			if err != nil {
				return false, err
			}
			if err := m.store.DeleteRow(ctx, t, from); err != nil {
				return false, err
			}
			moving = content
			return true, m.store.InsertRow(ctx, t, rankindex.RankToRow(newRank), content)
		}})
	}

	tables, err := m.apply(ctx, OpMove, res.OpID, res.Level, steps)
	res.Tables = tables
	if err != nil {
		var pe *PartialMutationError
		if errors.As(err, &pe) {
			pe.Row = moving
		}
		m.finish(ctx, OpMove, outcomeOf(err), start)
		return res, err
	}
	m.finish(ctx, OpMove, outcomeOK, start)
	m.log.Info(ctx, "level moved",
		logger.String("op_id", res.OpID),
		logger.String("level", res.Level),
		logger.Int("from", res.PrevRank),
		logger.Int("to", newRank),
		logger.Strings("tables", tableNames(tables)))
	return res, nil
}

// errSkip marks a step whose table does not hold the level.
var errSkip = errors.New("skip")

// apply runs steps in order and stops at the first failure. The returned tables
// are the ones written. Once anything was written a failure becomes a
// *PartialMutationError.
func (m *Mutator) apply(ctx context.Context, op, opID, level string, steps []step) ([]tabular.Table, error) {
	completed := make([]tabular.Table, 0, len(steps))
	for _, s := range steps {
		wrote, err := s.run(ctx)
		if errors.Is(err, errSkip) {
			continue
		}
		if err == nil {
			completed = append(completed, s.table)
			continue
		}
		if len(completed) == 0 && !wrote {
			return completed, err
		}
		metrics.RecordPartialMutation(op, string(s.table))
		m.log.Error(ctx, "mutation partially applied",
			logger.String("op_id", opID),
			logger.String("op", op),
			logger.String("level", level),
			logger.Strings("completed", tableNames(completed)),
			logger.String("failed", string(s.table)),
			logger.Error(err))
		return completed, &PartialMutationError{
			OpID:      opID,
			Op:        op,
			Level:     level,
			Completed: completed,
			Failed:    s.table,
			Err:       err,
		}
	}
	return completed, nil
}

func (m *Mutator) rejected(ctx context.Context, op string, err error) error {
	metrics.RecordValidationRejection(op)
	metrics.RecordMutation(op, outcomeInvalid, 0)
	m.log.Debug(ctx, "mutation rejected", logger.String("op", op), logger.Error(err))
	return err
}

func (m *Mutator) finish(_ context.Context, op, outcome string, start time.Time) {
	metrics.RecordMutation(op, outcome, float64(time.Since(start).Microseconds())/1000)
}

func outcomeOf(err error) string {
	var pe *PartialMutationError
	if errors.As(err, &pe) {
		return outcomePartial
	}
	return outcomeFailed
}

// playerColumn returns the 0-based header index of player, skipping column 1.
func playerColumn(header []string, player string) int {
	if len(header) < 2 {
		return -1
	}
	i := names.Index(header[1:], player)
	if i < 0 {
		return -1
	}
	return i + 1
}

func tableNames(tables []tabular.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = string(t)
	}
	return out
}
