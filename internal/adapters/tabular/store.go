// Package tabular is the only code that knows how list data is laid out in the
// remote spreadsheet. Rows and columns are 1-based and include the header row,
// matching the addressing of the spreadsheet itself.
package tabular

import "context"

// Table identifies one logical table of the list.
type Table string

// Tables of the list. Column 1 of Main, Enjoyment, Rating and Extreme is the level
// name; row 1 of every table is its header.
const (
	Main        Table = "main"
	Archive     Table = "archive"
	Enjoyment   Table = "enjoyment"
	Rating      Table = "rating"
	Waiting     Table = "waiting"
	Extreme     Table = "extreme"
	PlayerLists Table = "player_lists"
	Leaderboard Table = "leaderboard"
	Aliases     Table = "aliases"
)

// AllTables lists every table in a stable order.
var AllTables = []Table{Main, Archive, Enjoyment, Rating, Waiting, Extreme, PlayerLists, Leaderboard, Aliases}

// Layout maps each table to the worksheet that stores it.
type Layout map[Table]string

// DefaultLayout returns the worksheet names used by the production spreadsheet.
func DefaultLayout() Layout {
	return Layout{
		Main:        "list0",
		Archive:     "archive",
		Enjoyment:   "LE",
		Rating:      "LR",
		Waiting:     "waitinglist",
		Extreme:     "LX",
		PlayerLists: "Players Lists",
		Leaderboard: "Leaderboard",
		Aliases:     "infoplayer",
	}
}

// Sheet returns the worksheet name for t, falling back to the table id.
func (l Layout) Sheet(t Table) string {
	if name, ok := l[t]; ok && name != "" {
		return name
	}
	return string(t)
}

// Store is a thin synchronous client over a row/column addressed tabular store.
// Reads return fetched copies; trailing empty cells are trimmed the way the
// spreadsheet API trims them. Implementations hold no list logic.
type Store interface {
	// Column returns column col top to bottom, header included.
	Column(ctx context.Context, t Table, col int) ([]string, error)
	// Row returns row row left to right.
	Row(ctx context.Context, t Table, row int) ([]string, error)
	// Rows returns the whole table, header included.
	Rows(ctx context.Context, t Table) ([][]string, error)

	// WriteCell overwrites a single cell.
	WriteCell(ctx context.Context, t Table, row, col int, value string) error
	// WriteRange overwrites the rectangle starting at (rowStart, colStart); its
	// extent is given by values.
	WriteRange(ctx context.Context, t Table, rowStart, colStart int, values [][]string) error
	// InsertRow inserts values as row row, shifting rows at and after it down by one.
	InsertRow(ctx context.Context, t Table, row int, values []string) error
	// DeleteRow removes row row, shifting subsequent rows up by one.
	DeleteRow(ctx context.Context, t Table, row int) error
	// AppendRow writes values after the last non-empty row.
	AppendRow(ctx context.Context, t Table, values []string) error
}

// Cell returns values[i] or "" when the row is shorter.
func Cell(values []string, i int) string {
	if i < 0 || i >= len(values) {
		return ""
	}
	return values[i]
}

func trimTrailing(values []string) []string {
	n := len(values)
	for n > 0 && values[n-1] == "" {
		n--
	}
	return values[:n]
}
