// Package types contains the list entities shared by the domain packages and adapters.
package types

import "time"

// Mark is the completion state of a player on a level row of the main list.
type Mark int

// Completion marks. The stored spellings live in the tabular adapter.
const (
	MarkEmpty Mark = iota
	MarkNotCompleted
	MarkCompleted
	MarkVerified
)

func (m Mark) String() string {
	switch m {
	case MarkNotCompleted:
		return "not_completed"
	case MarkCompleted:
		return "completed"
	case MarkVerified:
		return "verified"
	default:
		return "empty"
	}
}

// IsCompletion reports whether the mark credits the player with a completion.
func (m Mark) IsCompletion() bool {
	return m == MarkCompleted || m == MarkVerified
}

// UnknownVerifier is returned when a level has no verifier mark or cannot be read.
const UnknownVerifier = "Unknown"

// NoLeaderboardRank is returned for players missing from the leaderboard.
const NoLeaderboardRank = "N/A"

// RankedEntry is a level in the main list. Rank equals its row offset from the header.
type RankedEntry struct {
	Level string `json:"level"`
	Rank  int    `json:"rank"`
}

// ExtremeEntry is a row of the extreme subset table.
type ExtremeEntry struct {
	Level       string `json:"level"`
	FirstVictor string `json:"first_victor"`
	Comment     string `json:"comment,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Metadata is what a placement knows about a level beyond its name and first victor.
type Metadata struct {
	IsExtreme bool   `json:"is_extreme"`
	Comment   string `json:"comment,omitempty"`
	Link      string `json:"link,omitempty"`
	// Enjoyment and Rating are nil when the submitter gave no score.
	Enjoyment *int `json:"enjoyment,omitempty"`
	Rating    *int `json:"rating,omitempty"`
}

// WaitingEntry is a staged submission awaiting moderator placement.
type WaitingEntry struct {
	Level            string `json:"level"`
	Submitter        string `json:"submitter"`
	IsExtreme        bool   `json:"is_extreme"`
	PlacementOpinion string `json:"placement_opinion"`
	Comment          string `json:"comment,omitempty"`
	Enjoyment        *int   `json:"enjoyment,omitempty"`
	Rating           *int   `json:"rating,omitempty"`
	Link             string `json:"link,omitempty"`
	SubmittedDate    string `json:"submitted_date"`
	// Row is the 1-based row the entry was read from; zero for entries not yet stored.
	Row int `json:"-"`
}

// Metadata converts the staged fields into placement metadata.
func (w WaitingEntry) Metadata() Metadata {
	return Metadata{
		IsExtreme: w.IsExtreme,
		Comment:   w.Comment,
		Link:      w.Link,
		Enjoyment: w.Enjoyment,
		Rating:    w.Rating,
	}
}

// Archive actions.
const (
	ActionBeat  = "beat"
	ActionAdded = "Added"
)

// ArchiveRecord is one line of the append-only audit log.
type ArchiveRecord struct {
	Action string `json:"action"`
	Player string `json:"player"`
	Level  string `json:"level"`
	// Rank is zero when the level was not ranked at the time.
	Rank int    `json:"rank,omitempty"`
	Link string `json:"link,omitempty"`
	Date string `json:"date"`
}

// ScoredLevel pairs a level with a numeric aggregate.
type ScoredLevel struct {
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

// LeaderboardEntry is a player and their points in leaderboard order.
type LeaderboardEntry struct {
	Rank   int     `json:"rank"`
	Player string  `json:"player"`
	Points float64 `json:"points"`
}

// LevelSummary bundles the per-level statistics shown for a level.
type LevelSummary struct {
	Level            string  `json:"level"`
	Rank             int     `json:"rank"`
	Verifier         string  `json:"verifier"`
	AddedDate        string  `json:"added_date"`
	Completions      int     `json:"completions"`
	AverageEnjoyment float64 `json:"average_enjoyment"`
	AverageRating    float64 `json:"average_rating"`
}

// PlayerProfile bundles the per-player statistics shown for a player.
type PlayerProfile struct {
	Player          string   `json:"player"`
	LeaderboardRank string   `json:"leaderboard_rank"`
	Completions     []string `json:"completions"`
	Favorite        string   `json:"favorite,omitempty"`
	LeastFavorite   string   `json:"least_favorite,omitempty"`
	BestRated       string   `json:"best_rated,omitempty"`
	WorstRated      string   `json:"worst_rated,omitempty"`
}

// Clock returns the current time; injected so dates are testable.
type Clock func() time.Time
