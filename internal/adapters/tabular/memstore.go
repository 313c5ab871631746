package tabular

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is a volatile Store kept in process memory. It backs the "memory"
// backend and stands in for the spreadsheet in tests.
type MemStore struct {
	mu     sync.RWMutex
	tables map[Table][][]string
	writes int
	faults map[faultKey]error
}

type faultKey struct {
	op    string
	table Table
}

// MemOption configures a MemStore.
type MemOption func(*MemStore)

// WithRows seeds table t with rows (header first).
func WithRows(t Table, rows [][]string) MemOption {
	return func(s *MemStore) {
		s.tables[t] = cloneRows(rows)
	}
}

// NewMemStore returns a MemStore holding every table in AllTables, empty unless seeded.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		tables: make(map[Table][][]string, len(AllTables)),
		faults: make(map[faultKey]error),
	}
	for _, t := range AllTables {
		s.tables[t] = nil
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed replaces the content of table t.
func (s *MemStore) Seed(t Table, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t] = cloneRows(rows)
}

// Snapshot returns a copy of table t with trailing empty cells and rows trimmed.
func (s *MemStore) Snapshot(t Table) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return trimRows(cloneRows(s.tables[t]))
}

// Writes returns how many write calls have succeeded.
func (s *MemStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// FailNext makes the next op call on t return err instead of running.
func (s *MemStore) FailNext(op string, t Table, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[faultKey{op: op, table: t}] = err
}

// Column implements Store.
func (s *MemStore) Column(_ context.Context, t Table, col int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table("Column", t)
	if err != nil {
		return nil, err
	}
	if col < 1 {
		return nil, adapterErr("Column", t, fmt.Errorf("%w: column %d", ErrOutOfRange, col))
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = Cell(r, col-1)
	}
	return trimTrailing(out), nil
}

// Row implements Store.
func (s *MemStore) Row(_ context.Context, t Table, row int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table("Row", t)
	if err != nil {
		return nil, err
	}
	if row < 1 {
		return nil, adapterErr("Row", t, fmt.Errorf("%w: row %d", ErrOutOfRange, row))
	}
	if row > len(rows) {
		return []string{}, nil
	}
	return trimTrailing(append([]string(nil), rows[row-1]...)), nil
}

// Rows implements Store.
func (s *MemStore) Rows(_ context.Context, t Table) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table("Rows", t)
	if err != nil {
		return nil, err
	}
	return trimRows(cloneRows(rows)), nil
}

// WriteCell implements Store.
func (s *MemStore) WriteCell(_ context.Context, t Table, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table("WriteCell", t)
	if err != nil {
		return err
	}
	if row < 1 || col < 1 {
		return adapterErr("WriteCell", t, fmt.Errorf("%w: cell (%d,%d)", ErrOutOfRange, row, col))
	}
	rows = padRows(rows, row)
	rows[row-1] = padCells(rows[row-1], col)
	rows[row-1][col-1] = value
	s.tables[t] = rows
	s.writes++
	return nil
}

// WriteRange implements Store.
func (s *MemStore) WriteRange(_ context.Context, t Table, rowStart, colStart int, values [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table("WriteRange", t)
	if err != nil {
		return err
	}
	if rowStart < 1 || colStart < 1 {
		return adapterErr("WriteRange", t, fmt.Errorf("%w: origin (%d,%d)", ErrOutOfRange, rowStart, colStart))
	}
	rows = padRows(rows, rowStart+len(values)-1)
	for i, vals := range values {
		r := rowStart - 1 + i
		rows[r] = padCells(rows[r], colStart+len(vals)-1)
		copy(rows[r][colStart-1:], vals)
	}
	s.tables[t] = rows
	s.writes++
	return nil
}

// InsertRow implements Store. Inserting past the last row pads with empty rows,
// as the spreadsheet grid would.
func (s *MemStore) InsertRow(_ context.Context, t Table, row int, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table("InsertRow", t)
	if err != nil {
		return err
	}
	if row < 1 {
		return adapterErr("InsertRow", t, fmt.Errorf("%w: row %d", ErrOutOfRange, row))
	}
	rows = padRows(rows, row-1)
	rows = append(rows, nil)
	copy(rows[row:], rows[row-1:])
	rows[row-1] = append([]string(nil), values...)
	s.tables[t] = rows
	s.writes++
	return nil
}

// DeleteRow implements Store. Deleting past the last row is a no-op.
func (s *MemStore) DeleteRow(_ context.Context, t Table, row int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table("DeleteRow", t)
	if err != nil {
		return err
	}
	if row < 1 {
		return adapterErr("DeleteRow", t, fmt.Errorf("%w: row %d", ErrOutOfRange, row))
	}
	if row <= len(rows) {
		rows = append(rows[:row-1], rows[row:]...)
	}
	s.tables[t] = rows
	s.writes++
	return nil
}

// AppendRow implements Store.
func (s *MemStore) AppendRow(_ context.Context, t Table, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.table("AppendRow", t)
	if err != nil {
		return err
	}
	rows = trimRows(rows)
	s.tables[t] = append(rows, append([]string(nil), values...))
	s.writes++
	return nil
}

// table resolves t and consumes any fault injected for op. Callers hold s.mu.
func (s *MemStore) table(op string, t Table) ([][]string, error) {
	if err, ok := s.faults[faultKey{op: op, table: t}]; ok {
		delete(s.faults, faultKey{op: op, table: t})
		return nil, adapterErr(op, t, err)
	}
	rows, ok := s.tables[t]
	if !ok {
		return nil, adapterErr(op, t, ErrUnknownTable)
	}
	return rows, nil
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// trimRows trims trailing empty cells of every row and trailing empty rows.
func trimRows(rows [][]string) [][]string {
	for i := range rows {
		rows[i] = trimTrailing(rows[i])
	}
	n := len(rows)
	for n > 0 && len(rows[n-1]) == 0 {
		n--
	}
	return rows[:n]
}

func padRows(rows [][]string, n int) [][]string {
	for len(rows) < n {
		rows = append(rows, nil)
	}
	return rows
}

func padCells(cells []string, n int) []string {
	for len(cells) < n {
		cells = append(cells, "")
	}
	return cells
}
