package listgen

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/iceteam/icelist/internal/domain/types"
)

// Config controls Generate.
type Config struct {
	Levels  int    // Number of ranked levels
	Players int    // Number of registered players
	Seed    uint64 // Seed of the pseudo-random source; equal seeds give equal lists
}

// Constants for generated data.
const (
	completionChance = 0.3
	scoreChance      = 0.5
	minScore         = 1
	maxScore         = 100
	generatedDate    = "01/01/2024"
)

// Generate builds a synthetic, internally consistent list: every level is
// extreme with one verifier, some players completed and scored some levels,
// and the leaderboard and players lists agree with the main list.
func Generate(cfg Config) *Builder {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	players := make([]string, cfg.Players)
	for i := range players {
		players[i] = fmt.Sprintf("player%02d", i+1)
	}
	b := New(players...)
	for i, p := range players {
		b.Alias(p, fmt.Sprintf("handle%02d", i+1))
	}

	points := make(map[string]float64, len(players))
	completed := make(map[string][]string, len(players))
	for rank := 1; rank <= cfg.Levels; rank++ {
		level := fmt.Sprintf("Level %03d", rank)
		b.Levels(level)
		if len(players) == 0 {
			continue
		}
		verifier := players[rng.IntN(len(players))]
		b.Mark(level, verifier, types.MarkVerified)
		b.Extreme(level, verifier, "", "")
		b.Archive(types.ArchiveRecord{Action: types.ActionAdded, Player: verifier, Level: level, Rank: rank, Date: generatedDate})

		for _, p := range players {
			done := p == verifier
			if !done && rng.Float64() < completionChance {
				b.Mark(level, p, types.MarkCompleted)
				done = true
			}
			if !done {
				continue
			}
			points[p] += float64(cfg.Levels - rank + 1)
			completed[p] = append(completed[p], level)
			if rng.Float64() < scoreChance {
				b.Enjoyment(level, p, minScore+rng.IntN(maxScore))
				b.Rating(level, p, minScore+rng.IntN(maxScore))
			}
		}
	}

	sorted := append([]string(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool { return points[sorted[i]] > points[sorted[j]] })
	for _, p := range sorted {
		if points[p] > 0 {
			b.Leaderboard(p, points[p])
		}
		b.Completions(p, completed[p]...)
	}
	return b
}
