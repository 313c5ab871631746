package stats

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/rankindex"
	"github.com/iceteam/icelist/internal/domain/types"
	"github.com/iceteam/icelist/internal/listgen"
)

func newFixture() (*tabular.MemStore, *Aggregator) {
	store := listgen.New("alice", "bob", "carol").
		Levels("Alpha", "Beta", "Gamma").
		Mark("Alpha", "alice", types.MarkVerified).
		Mark("Alpha", "bob", types.MarkCompleted).
		Mark("Beta", "carol", types.MarkVerified).
		Extreme("Alpha", "alice", "", "").
		Extreme("Beta", "carol", "", "").
		Extreme("Gamma", "bob", "", "").
		Enjoyment("Alpha", "alice", 90).
		Enjoyment("Alpha", "bob", 70).
		Enjoyment("Beta", "alice", 90).
		Enjoyment("Gamma", "alice", 10).
		Rating("Alpha", "bob", 50).
		Rating("Beta", "bob", 80).
		Aggregate(tabular.Enjoyment, "Alpha", "80").
		Aggregate(tabular.Enjoyment, "Beta", "90").
		Aggregate(tabular.Enjoyment, "Gamma", "n/a").
		Aggregate(tabular.Rating, "Alpha", "50").
		Aggregate(tabular.Rating, "Beta", "80,5").
		Leaderboard("bob", 120).
		Leaderboard("alice", 300).
		Completions("alice", "Alpha").
		Archive(types.ArchiveRecord{Action: types.ActionAdded, Player: "alice", Level: "Alpha", Rank: 1, Date: "03/03/2024"}).
		Store()
	return store, New(store, rankindex.New(store))
}

func TestLevelAggregates(t *testing.T) {
	Convey("Given a scored list", t, func() {
		ctx := context.Background()
		store, agg := newFixture()

		Convey("CountCompletions counts the verifier and every victor", func() {
			n, err := agg.CountCompletions(ctx, "alpha")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})

		Convey("Averages ignore the aggregate column and empty cells", func() {
			avg, err := agg.AverageEnjoyment(ctx, "Alpha")
			So(err, ShouldBeNil)
			So(avg, ShouldAlmostEqual, 80.0)
			avg, err = agg.AverageRating(ctx, "Alpha")
			So(err, ShouldBeNil)
			So(avg, ShouldAlmostEqual, 50.0)
		})

		Convey("A level without scores averages to 0", func() {
			avg, err := agg.AverageRating(ctx, "Gamma")
			So(err, ShouldBeNil)
			So(avg, ShouldEqual, 0)
			avg, err = agg.AverageEnjoyment(ctx, "Missing")
			So(err, ShouldBeNil)
			So(avg, ShouldEqual, 0)
		})

		Convey("Store failures are returned, not absorbed", func() {
			store.FailNext("Column", tabular.Enjoyment, errors.New("quota"))
			_, err := agg.AverageEnjoyment(ctx, "Alpha")
			So(errors.Is(err, tabular.ErrAdapter), ShouldBeTrue)
		})

		Convey("LevelSummary bundles rank, verifier, date and aggregates", func() {
			s, ok, err := agg.LevelSummary(ctx, "Alpha")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(s, ShouldResemble, types.LevelSummary{
				Level: "Alpha", Rank: 1, Verifier: "alice", AddedDate: "03/03/2024",
				Completions: 2, AverageEnjoyment: 80, AverageRating: 50,
			})

			_, ok, err = agg.LevelSummary(ctx, "Nope")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given an unsorted leaderboard table", t, func() {
		ctx := context.Background()
		_, agg := newFixture()

		Convey("Leaderboard sorts by points, highest first", func() {
			board, err := agg.Leaderboard(ctx)
			So(err, ShouldBeNil)
			So(board, ShouldResemble, []types.LeaderboardEntry{
				{Rank: 1, Player: "alice", Points: 300},
				{Rank: 2, Player: "bob", Points: 120},
			})
		})

		Convey("LeaderboardRank is 1-based and N/A for unknown players", func() {
			r, err := agg.LeaderboardRank(ctx, "BOB")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, "2")
			r, err = agg.LeaderboardRank(ctx, "zed")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, types.NoLeaderboardRank)
		})
	})
}

func TestPlayerAggregates(t *testing.T) {
	Convey("Given a scored list", t, func() {
		ctx := context.Background()
		_, agg := newFixture()

		Convey("Favorite keeps the first of tied top scores", func() {
			fav, err := agg.Favorite(ctx, "alice")
			So(err, ShouldBeNil)
			So(fav, ShouldEqual, "Alpha")
			least, err := agg.LeastFavorite(ctx, "alice")
			So(err, ShouldBeNil)
			So(least, ShouldEqual, "Gamma")
		})

		Convey("Best and worst rated scan the rating table", func() {
			best, _ := agg.BestRated(ctx, "bob")
			worst, _ := agg.WorstRated(ctx, "bob")
			So(best, ShouldEqual, "Beta")
			So(worst, ShouldEqual, "Alpha")
		})

		Convey("Players without scores have no pick", func() {
			fav, err := agg.Favorite(ctx, "carol")
			So(err, ShouldBeNil)
			So(fav, ShouldEqual, "")
			fav, err = agg.Favorite(ctx, "nobody")
			So(err, ShouldBeNil)
			So(fav, ShouldEqual, "")
		})

		Convey("Profile bundles everything", func() {
			p, err := agg.Profile(ctx, "alice")
			So(err, ShouldBeNil)
			So(p.LeaderboardRank, ShouldEqual, "1")
			So(p.Completions, ShouldResemble, []string{"Alpha"})
			So(p.Favorite, ShouldEqual, "Alpha")
			So(p.BestRated, ShouldEqual, "")
		})

		Convey("PlayerCompletions is empty for unknown players", func() {
			levels, err := agg.PlayerCompletions(ctx, "zed")
			So(err, ShouldBeNil)
			So(levels, ShouldBeEmpty)
		})
	})
}

func TestSortedLists(t *testing.T) {
	Convey("Given aggregate columns", t, func() {
		ctx := context.Background()
		_, agg := newFixture()

		Convey("LovedList skips non-numeric aggregates", func() {
			loved, err := agg.LovedList(ctx)
			So(err, ShouldBeNil)
			So(loved, ShouldResemble, []types.ScoredLevel{{Level: "Beta", Score: 90}, {Level: "Alpha", Score: 80}})
		})

		Convey("BestList accepts decimal commas", func() {
			best, err := agg.BestList(ctx)
			So(err, ShouldBeNil)
			So(best, ShouldResemble, []types.ScoredLevel{{Level: "Beta", Score: 80.5}, {Level: "Alpha", Score: 50}})
		})
	})
}
