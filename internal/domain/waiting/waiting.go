// Package waiting manages staged submissions that wait for a moderator to place them.
package waiting

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/names"
	"github.com/iceteam/icelist/internal/domain/types"
	"github.com/iceteam/icelist/internal/domain/validate"
	"github.com/iceteam/icelist/pkg/logger"
	"github.com/iceteam/icelist/pkg/metrics"
)

// DefaultDateLayout is the day-first date format of stored dates.
const DefaultDateLayout = "02/01/2006"

// Stored column order of the waiting table.
const (
	colLevel = iota
	colSubmitter
	colExtreme
	colPlacement
	colComment
	colEnjoyment
	colRating
	colLink
	colDate
)

// Manager stages and consumes waiting entries.
type Manager struct {
	store      tabular.Store
	clock      types.Clock
	dateLayout string
	log        logger.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used to date submissions.
func WithClock(c types.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithDateLayout overrides the stored date format.
func WithDateLayout(layout string) Option {
	return func(m *Manager) {
		if layout != "" {
			m.dateLayout = layout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// New builds a Manager over store.
func New(store tabular.Store, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		clock:      time.Now,
		dateLayout: DefaultDateLayout,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("waiting")
	return m
}

// Stage appends entry dated today. Duplicate levels are allowed; the first staged
// row wins at placement.
func (m *Manager) Stage(ctx context.Context, entry types.WaitingEntry) (types.WaitingEntry, error) {
	if err := validate.Submission(entry); err != nil {
		metrics.RecordValidationRejection("stage")
		return types.WaitingEntry{}, err
	}
	entry.SubmittedDate = m.clock().Format(m.dateLayout)
	entry.Row = 0
	if err := m.store.AppendRow(ctx, tabular.Waiting, encode(entry)); err != nil {
		return types.WaitingEntry{}, err
	}
	metrics.RecordWaitingStaged()
	m.log.Info(ctx, "submission staged",
		logger.String("level", entry.Level),
		logger.String("submitter", entry.Submitter),
		logger.Bool("extreme", entry.IsExtreme))
	return entry, nil
}

// List returns every staged entry in table order.
func (m *Manager) List(ctx context.Context) ([]types.WaitingEntry, error) {
	rows, err := m.store.Rows(ctx, tabular.Waiting)
	if err != nil {
		return nil, err
	}
	out := make([]types.WaitingEntry, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		if strings.TrimSpace(tabular.Cell(rows[i], colLevel)) == "" {
			continue
		}
		out = append(out, decode(rows[i], i+1))
	}
	return out, nil
}

// Find returns the first staged entry for level, or nil.
func (m *Manager) Find(ctx context.Context, level string) (*types.WaitingEntry, error) {
	rows, err := m.store.Rows(ctx, tabular.Waiting)
	if err != nil {
		return nil, err
	}
	want := names.Normalize(level)
	if want == "" {
		return nil, nil
	}
	for i := 1; i < len(rows); i++ {
		if names.Normalize(tabular.Cell(rows[i], colLevel)) == want {
			e := decode(rows[i], i+1)
			return &e, nil
		}
	}
	return nil, nil
}

// Delete removes the staged row.
func (m *Manager) Delete(ctx context.Context, row int) error {
	if err := m.store.DeleteRow(ctx, tabular.Waiting, row); err != nil {
		return err
	}
	metrics.RecordWaitingConsumed()
	return nil
}

// Consume returns the first staged entry for level and removes it, or nil when
// nothing is staged. A consumed entry is never returned again.
func (m *Manager) Consume(ctx context.Context, level string) (*types.WaitingEntry, error) {
	e, err := m.Find(ctx, level)
	if err != nil || e == nil {
		return nil, err
	}
	if err := m.Delete(ctx, e.Row); err != nil {
		return nil, err
	}
	return e, nil
}

func encode(e types.WaitingEntry) []string {
	return []string{
		e.Level,
		e.Submitter,
		tabular.EncodeExtremeFlag(e.IsExtreme),
		e.PlacementOpinion,
		e.Comment,
		formatScore(e.Enjoyment),
		formatScore(e.Rating),
		e.Link,
		e.SubmittedDate,
	}
}

func decode(row []string, rowIndex int) types.WaitingEntry {
	return types.WaitingEntry{
		Level:            tabular.Cell(row, colLevel),
		Submitter:        tabular.Cell(row, colSubmitter),
		IsExtreme:        tabular.DecodeExtremeFlag(tabular.Cell(row, colExtreme)),
		PlacementOpinion: tabular.Cell(row, colPlacement),
		Comment:          tabular.Cell(row, colComment),
		Enjoyment:        parseScore(tabular.Cell(row, colEnjoyment)),
		Rating:           parseScore(tabular.Cell(row, colRating)),
		Link:             tabular.Cell(row, colLink),
		SubmittedDate:    tabular.Cell(row, colDate),
		Row:              rowIndex,
	}
}

func formatScore(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// parseScore reads a stored score; blank or non-numeric cells are absent scores.
func parseScore(cell string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return nil
	}
	return &n
}
