// Package archive writes and reads the most-recent-first audit log of list events.
package archive

import (
	"context"
	"strconv"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/names"
	"github.com/iceteam/icelist/internal/domain/types"
)

// newestRow is where new records go: right below the header.
const newestRow = 2

// UnknownDate is reported for levels with no "Added" record.
const UnknownDate = "Unknown"

// Stored column order of the archive table.
const (
	colAction = iota
	colPlayer
	colLevel
	colRank
	colLink
	colDate
)

// Log is the archive table. It is an audit trail, never a source of truth.
type Log struct {
	store tabular.Store
}

// New builds a Log over store.
func New(store tabular.Store) *Log {
	return &Log{store: store}
}

// Prepend records r as the newest entry.
func (l *Log) Prepend(ctx context.Context, r types.ArchiveRecord) error {
	return l.store.InsertRow(ctx, tabular.Archive, newestRow, encode(r))
}

// Records returns the log newest first.
func (l *Log) Records(ctx context.Context) ([]types.ArchiveRecord, error) {
	rows, err := l.store.Rows(ctx, tabular.Archive)
	if err != nil {
		return nil, err
	}
	out := make([]types.ArchiveRecord, 0, len(rows))
	for _, row := range rows[min(1, len(rows)):] {
		if len(row) == 0 {
			continue
		}
		out = append(out, decode(row))
	}
	return out, nil
}

// AddedDate returns the date of the newest "Added" record for level, or UnknownDate.
func (l *Log) AddedDate(ctx context.Context, level string) (string, error) {
	records, err := l.Records(ctx)
	if err != nil {
		return "", err
	}
	for _, r := range records {
		if r.Action == types.ActionAdded && names.Equal(r.Level, level) {
			return r.Date, nil
		}
	}
	return UnknownDate, nil
}

func encode(r types.ArchiveRecord) []string {
	rank := ""
	if r.Rank > 0 {
		rank = strconv.Itoa(r.Rank)
	}
	return []string{r.Action, r.Player, r.Level, rank, r.Link, r.Date}
}

func decode(row []string) types.ArchiveRecord {
	rank, _ := strconv.Atoi(tabular.Cell(row, colRank))
	return types.ArchiveRecord{
		Action: tabular.Cell(row, colAction),
		Player: tabular.Cell(row, colPlayer),
		Level:  tabular.Cell(row, colLevel),
		Rank:   rank,
		Link:   tabular.Cell(row, colLink),
		Date:   tabular.Cell(row, colDate),
	}
}
