package listgen

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/types"
)

func TestBuilder(t *testing.T) {
	Convey("Given a builder with two players", t, func() {
		b := New("alice", "bob").
			Levels("Alpha", "Beta").
			Mark("Alpha", "alice", types.MarkVerified).
			Extreme("Alpha", "alice", "hard", "https://clip").
			Enjoyment("Alpha", "bob", 70).
			Alias("bob", "bobby")
		tables := b.Tables()

		Convey("The main list has a header and one row per level", func() {
			So(tables[tabular.Main], ShouldResemble, [][]string{
				{"Level", "alice", "bob"},
				{"Alpha", "⭐", "X"},
				{"Beta", "X", "X"},
			})
		})

		Convey("Scores land in the player's column after the aggregate column", func() {
			So(tables[tabular.Enjoyment][1], ShouldResemble, []string{"Alpha", "", "", "70"})
		})

		Convey("Aliases hold players on row 1 and handles on row 2", func() {
			So(tables[tabular.Aliases], ShouldResemble, [][]string{{"alice", "bob"}, {"", "bobby"}})
		})

		Convey("Tables returns copies", func() {
			tables[tabular.Main][1][0] = "changed"
			So(b.Tables()[tabular.Main][1][0], ShouldEqual, "Alpha")
		})
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given a generated list", t, func() {
		tables := Generate(Config{Levels: 20, Players: 5, Seed: 7}).Tables()

		Convey("Every level has exactly one verifier mirrored in the extreme table", func() {
			main := tables[tabular.Main]
			So(main, ShouldHaveLength, 21)
			for row := 1; row < len(main); row++ {
				verified := 0
				for _, cell := range main[row][1:] {
					if tabular.DecodeMark(cell) == types.MarkVerified {
						verified++
					}
				}
				So(verified, ShouldEqual, 1)
				So(tables[tabular.Extreme][row][0], ShouldEqual, main[row][0])
			}
		})

		Convey("Equal seeds give equal lists", func() {
			So(Generate(Config{Levels: 20, Players: 5, Seed: 7}).Tables(), ShouldResemble, tables)
		})
	})
}
