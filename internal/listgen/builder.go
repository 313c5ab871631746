// Package listgen builds list tables for tests and for seeding the memory backend.
package listgen

import (
	"strconv"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/types"
)

// Table headers used by the production spreadsheet.
var (
	ExtremeHeader     = []string{"Level", "Verifier", "Comment", "Link"}
	WaitingHeader     = []string{"Level", "Submitter", "Extreme", "Placement", "Comment", "Enjoyment", "Rating", "Link", "Date"}
	ArchiveHeader     = []string{"Action", "Player", "Level", "Rank", "Link", "Date"}
	LeaderboardHeader = []string{"Rank", "Player", "Points"}
)

// ScoreAggregateHeader is the column 2 header of the enjoyment and rating tables.
const ScoreAggregateHeader = "Average"

// Builder assembles a consistent set of list tables level by level.
type Builder struct {
	players []string
	aliases []string
	tables  map[tabular.Table][][]string
}

// New starts a list with the given registered players.
func New(players ...string) *Builder {
	b := &Builder{
		players: append([]string(nil), players...),
		tables:  make(map[tabular.Table][][]string, len(tabular.AllTables)),
	}
	b.tables[tabular.Main] = [][]string{append([]string{"Level"}, players...)}
	scoreHeader := append([]string{"Level", ScoreAggregateHeader}, players...)
	b.tables[tabular.Enjoyment] = [][]string{scoreHeader}
	b.tables[tabular.Rating] = [][]string{append([]string(nil), scoreHeader...)}
	b.tables[tabular.Extreme] = [][]string{ExtremeHeader}
	b.tables[tabular.Waiting] = [][]string{WaitingHeader}
	b.tables[tabular.Archive] = [][]string{ArchiveHeader}
	b.tables[tabular.Leaderboard] = [][]string{LeaderboardHeader}
	b.tables[tabular.PlayerLists] = [][]string{append([]string(nil), players...)}
	b.aliases = make([]string, len(players))
	return b
}

// Levels appends ranked levels to the main list in order, every player NotCompleted.
func (b *Builder) Levels(levels ...string) *Builder {
	for _, level := range levels {
		row := []string{level}
		for range b.players {
			row = append(row, tabular.EncodeMark(types.MarkNotCompleted))
		}
		b.tables[tabular.Main] = append(b.tables[tabular.Main], row)
	}
	return b
}

// Mark sets player's mark on level in the main list.
func (b *Builder) Mark(level, player string, m types.Mark) *Builder {
	b.set(tabular.Main, level, player, tabular.EncodeMark(m))
	return b
}

// Extreme adds level to the extreme table and seeds matching empty score rows,
// keeping every satellite row at the level's main-list position.
func (b *Builder) Extreme(level, verifier, comment, link string) *Builder {
	b.tables[tabular.Extreme] = append(b.tables[tabular.Extreme], []string{level, verifier, comment, link})
	b.tables[tabular.Enjoyment] = append(b.tables[tabular.Enjoyment], []string{level})
	b.tables[tabular.Rating] = append(b.tables[tabular.Rating], []string{level})
	return b
}

// Enjoyment records player's enjoyment score for level.
func (b *Builder) Enjoyment(level, player string, score int) *Builder {
	b.set(tabular.Enjoyment, level, player, strconv.Itoa(score))
	return b
}

// Rating records player's rating score for level.
func (b *Builder) Rating(level, player string, score int) *Builder {
	b.set(tabular.Rating, level, player, strconv.Itoa(score))
	return b
}

// Aggregate writes the column 2 aggregate of level in the enjoyment or rating table.
func (b *Builder) Aggregate(t tabular.Table, level string, value string) *Builder {
	for i, row := range b.tables[t] {
		if i > 0 && tabular.Cell(row, 0) == level {
			b.tables[t][i] = pad(row, 2)
			b.tables[t][i][1] = value
		}
	}
	return b
}

// Waiting stages an entry.
func (b *Builder) Waiting(w types.WaitingEntry) *Builder {
	b.tables[tabular.Waiting] = append(b.tables[tabular.Waiting], []string{
		w.Level, w.Submitter, tabular.EncodeExtremeFlag(w.IsExtreme), w.PlacementOpinion,
		w.Comment, optInt(w.Enjoyment), optInt(w.Rating), w.Link, w.SubmittedDate,
	})
	return b
}

// Archive appends an archive record below the existing ones.
func (b *Builder) Archive(r types.ArchiveRecord) *Builder {
	b.tables[tabular.Archive] = append(b.tables[tabular.Archive], []string{
		r.Action, r.Player, r.Level, strconv.Itoa(r.Rank), r.Link, r.Date,
	})
	return b
}

// Leaderboard appends a leaderboard row.
func (b *Builder) Leaderboard(player string, points float64) *Builder {
	rank := strconv.Itoa(len(b.tables[tabular.Leaderboard]))
	b.tables[tabular.Leaderboard] = append(b.tables[tabular.Leaderboard], []string{
		rank, player, strconv.FormatFloat(points, 'f', -1, 64),
	})
	return b
}

// Completions fills player's column of the players lists table.
func (b *Builder) Completions(player string, levels ...string) *Builder {
	col := index(b.tables[tabular.PlayerLists][0], player)
	if col < 0 {
		return b
	}
	for i, level := range levels {
		b.setCell(tabular.PlayerLists, i+2, col+1, level)
	}
	return b
}

// Alias maps a communication handle to player.
func (b *Builder) Alias(player, handle string) *Builder {
	if i := index(b.players, player); i >= 0 {
		b.aliases[i] = handle
	}
	return b
}

// Tables returns copies of the built tables.
func (b *Builder) Tables() map[tabular.Table][][]string {
	out := make(map[tabular.Table][][]string, len(b.tables)+1)
	for t, rows := range b.tables {
		cp := make([][]string, len(rows))
		for i, r := range rows {
			cp[i] = append([]string(nil), r...)
		}
		out[t] = cp
	}
	out[tabular.Aliases] = [][]string{
		append([]string(nil), b.players...),
		append([]string(nil), b.aliases...),
	}
	return out
}

// Store returns a memory store seeded with the built tables.
func (b *Builder) Store() *tabular.MemStore {
	var opts []tabular.MemOption
	for t, rows := range b.Tables() {
		opts = append(opts, tabular.WithRows(t, rows))
	}
	return tabular.NewMemStore(opts...)
}

func (b *Builder) set(t tabular.Table, level, player, value string) {
	rows := b.tables[t]
	col := index(rows[0], player)
	if col < 0 {
		return
	}
	for i := 1; i < len(rows); i++ {
		if tabular.Cell(rows[i], 0) == level {
			b.setCell(t, i+1, col+1, value)
			return
		}
	}
}

func (b *Builder) setCell(t tabular.Table, row, col int, value string) {
	rows := b.tables[t]
	for len(rows) < row {
		rows = append(rows, nil)
	}
	rows[row-1] = pad(rows[row-1], col)
	rows[row-1][col-1] = value
	b.tables[t] = rows
}

func pad(cells []string, n int) []string {
	for len(cells) < n {
		cells = append(cells, "")
	}
	return cells
}

func index(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
