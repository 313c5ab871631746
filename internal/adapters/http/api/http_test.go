package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/iceteam/icelist/internal/adapters/http/api"
	"github.com/iceteam/icelist/internal/adapters/tabular"
	service "github.com/iceteam/icelist/internal/app"
	"github.com/iceteam/icelist/internal/domain/types"
	"github.com/iceteam/icelist/internal/listgen"
	"github.com/iceteam/icelist/pkg/logger"
)

func fixedClock() time.Time { return time.Date(2024, time.August, 2, 10, 0, 0, 0, time.UTC) }

// newMux serves a started service over store.
func newMux(store tabular.Store) *http.ServeMux {
	svc := service.New(
		service.WithStore(store),
		service.WithMaxRank(4),
		service.WithClock(fixedClock),
		service.WithLogger(logger.Nop()),
	)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	return mux
}

func fixture() *tabular.MemStore {
	return listgen.New("alice", "bob").
		Levels("Alpha", "Beta", "Gamma").
		Mark("Alpha", "alice", types.MarkVerified).
		Extreme("Alpha", "alice", "", "").
		Alias("bob", "bobby").
		Leaderboard("alice", 120).
		Leaderboard("bob", 80).
		Store()
}

func do(mux *http.ServeMux, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestReadRoutes(t *testing.T) {
	Convey("Given a served list", t, func() {
		mux := newMux(fixture())

		Convey("GET /levels lists the window in rank order", func() {
			w := do(mux, http.MethodGet, "/levels", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var levels []types.RankedEntry
			decodeBody(w, &levels)
			So(levels, ShouldResemble, []types.RankedEntry{
				{Level: "Alpha", Rank: 1}, {Level: "Beta", Rank: 2}, {Level: "Gamma", Rank: 3},
			})
		})

		Convey("GET /levels/{name}/rank matches names loosely", func() {
			w := do(mux, http.MethodGet, "/levels/%20%20gamma%20/rank", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var entry types.RankedEntry
			decodeBody(w, &entry)
			So(entry.Rank, ShouldEqual, 3)
		})

		Convey("GET /levels/{name}/rank of an unknown level is 404", func() {
			w := do(mux, http.MethodGet, "/levels/Nope/rank", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
		})

		Convey("GET /levels/{name}/verifier falls back to Unknown", func() {
			w := do(mux, http.MethodGet, "/levels/Alpha/verifier", "")
			So(w.Body.String(), ShouldContainSubstring, `"verifier":"alice"`)
			w = do(mux, http.MethodGet, "/levels/Nope/verifier", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"verifier":"Unknown"`)
		})

		Convey("GET /levels/{name}/stats returns the summary", func() {
			w := do(mux, http.MethodGet, "/levels/Alpha/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var sum types.LevelSummary
			decodeBody(w, &sum)
			So(sum.Completions, ShouldEqual, 1)
			So(sum.AddedDate, ShouldEqual, "Unknown")
		})

		Convey("GET /leaderboard honours limit", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var board []types.LeaderboardEntry
			decodeBody(w, &board)
			So(board, ShouldHaveLength, 1)
			So(board[0].Player, ShouldEqual, "alice")

			So(do(mux, http.MethodGet, "/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("GET /leaderboard/{player} answers N/A for absent players", func() {
			w := do(mux, http.MethodGet, "/leaderboard/bob", "")
			So(w.Body.String(), ShouldContainSubstring, `"rank":"2"`)
			w = do(mux, http.MethodGet, "/leaderboard/carol", "")
			So(w.Body.String(), ShouldContainSubstring, `"rank":"N/A"`)
		})

		Convey("GET /aliases/{handle} resolves handles", func() {
			So(do(mux, http.MethodGet, "/aliases/BOBBY", "").Body.String(), ShouldContainSubstring, `"player":"bob"`)
			So(do(mux, http.MethodGet, "/aliases/ghost", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("GET /healthz serves Prometheus metrics", func() {
			do(mux, http.MethodGet, "/levels", "")
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("GET /stats reports the service", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"maxRank":4`)
		})
	})
}

func TestWriteRoutes(t *testing.T) {
	Convey("Given a served list", t, func() {
		store := fixture()
		mux := newMux(store)

		Convey("POST /levels/insert shifts lower levels down", func() {
			w := do(mux, http.MethodPost, "/levels/insert",
				`{"level":"Delta","rank":2,"first_victor":"bob","is_extreme":true,"enjoyment":70}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Body.String(), ShouldContainSubstring, `"rank":2`)

			var levels []types.RankedEntry
			decodeBody(do(mux, http.MethodGet, "/levels", ""), &levels)
			So(levels[1].Level, ShouldEqual, "Delta")
			So(levels[2].Level, ShouldEqual, "Beta")
		})

		Convey("POST /levels/insert past the contiguous end is rejected without writes", func() {
			before := store.Writes()
			w := do(mux, http.MethodPost, "/levels/insert", `{"level":"Delta","rank":4,"first_victor":"bob"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			w = do(mux, http.MethodPost, "/levels/insert", `{"level":"Omega","rank":5,"first_victor":"bob"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(store.Writes(), ShouldBeGreaterThan, before)
			after := store.Writes()
			do(mux, http.MethodPost, "/levels/insert", `{"level":"Omega","rank":99,"first_victor":"bob"}`)
			So(store.Writes(), ShouldEqual, after)
		})

		Convey("POST /levels/insert of a listed level conflicts", func() {
			w := do(mux, http.MethodPost, "/levels/insert", `{"level":" beta ","rank":1,"first_victor":"bob"}`)
			So(w.Code, ShouldEqual, http.StatusConflict)
		})

		Convey("Malformed bodies are 400", func() {
			So(do(mux, http.MethodPost, "/levels/move", `{"level":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/levels/move", `{"lvl":"Beta","rank":1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/levels/move", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("POST /levels/move relocates a level", func() {
			w := do(mux, http.MethodPost, "/levels/move", `{"level":"Gamma","rank":1}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"prev_rank":3`)
		})

		Convey("POST /levels/move of an unknown level is 404", func() {
			So(do(mux, http.MethodPost, "/levels/move", `{"level":"Nope","rank":1}`).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("POST /waiting then /levels/place consumes the submission", func() {
			w := do(mux, http.MethodPost, "/waiting", `{"level":"Frost","submitter":"bob","is_extreme":true,"rating":55}`)
			So(w.Code, ShouldEqual, http.StatusCreated)

			w = do(mux, http.MethodPost, "/levels/place", `{"level":"Frost","rank":1,"fallback_victor":"alice"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Body.String(), ShouldContainSubstring, `"first_victor":"bob"`)

			var staged []types.WaitingEntry
			decodeBody(do(mux, http.MethodGet, "/waiting", ""), &staged)
			So(staged, ShouldBeEmpty)
		})

		Convey("DELETE /waiting/{level} withdraws the submission once", func() {
			So(do(mux, http.MethodPost, "/waiting", `{"level":"Frost","submitter":"bob"}`).Code, ShouldEqual, http.StatusCreated)

			w := do(mux, http.MethodDelete, "/waiting/Frost", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"submitter":"bob"`)

			So(do(mux, http.MethodDelete, "/waiting/Frost", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("POST /waiting with an out-of-range score is 400", func() {
			So(do(mux, http.MethodPost, "/waiting", `{"level":"Frost","submitter":"bob","rating":101}`).Code,
				ShouldEqual, http.StatusBadRequest)
		})

		Convey("POST /players registers and rejects duplicates", func() {
			So(do(mux, http.MethodPost, "/players", `{"player":"carol","handle":"Caz"}`).Code, ShouldEqual, http.StatusCreated)
			So(do(mux, http.MethodPost, "/players", `{"player":"Carol","handle":"c2"}`).Code, ShouldEqual, http.StatusConflict)
			So(do(mux, http.MethodGet, "/players", "").Body.String(), ShouldContainSubstring, `"carol"`)
		})

		Convey("POST /completions and /ratings update the player", func() {
			w := do(mux, http.MethodPost, "/completions", `{"player":"bob","level":"Alpha","link":"https://clip"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Body.String(), ShouldContainSubstring, `"rank":1`)

			So(do(mux, http.MethodPost, "/ratings", `{"player":"bob","level":"Alpha","enjoyment":90}`).Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodPost, "/ratings", `{"player":"bob","level":"Alpha"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/ratings", `{"player":"zed","level":"Alpha","rating":9}`).Code, ShouldEqual, http.StatusNotFound)

			w = do(mux, http.MethodGet, "/players/bob/profile", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"favorite":"Alpha"`)
		})
	})
}

func TestIdempotencyAndFailures(t *testing.T) {
	Convey("Given a served list", t, func() {
		store := fixture()
		mux := newMux(store)
		body := `{"level":"Delta","rank":1,"first_victor":"bob"}`

		Convey("A replayed Idempotency-Key is rejected with 409", func() {
			So(do(mux, http.MethodPost, "/levels/insert", body, api.IdempotencyHeader, "k1").Code, ShouldEqual, http.StatusCreated)
			w := do(mux, http.MethodPost, "/levels/insert", body, api.IdempotencyHeader, "k1")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(w.Body.String(), ShouldContainSubstring, "duplicate_request")
		})

		Convey("A key whose request failed before writing can be retried", func() {
			store.FailNext("Column", tabular.Main, errors.New("timeout"))
			w := do(mux, http.MethodPost, "/levels/insert", body, api.IdempotencyHeader, "k2")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(do(mux, http.MethodPost, "/levels/insert", body, api.IdempotencyHeader, "k2").Code, ShouldEqual, http.StatusCreated)
		})

		Convey("A partial mutation is 502 and names the completed tables", func() {
			store.FailNext("InsertRow", tabular.Archive, errors.New("quota"))
			w := do(mux, http.MethodPost, "/levels/insert", body, api.IdempotencyHeader, "k3")
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(w.Body.String(), ShouldContainSubstring, `"completed":["main"]`)
			So(w.Body.String(), ShouldContainSubstring, `"failed":"archive"`)

			Convey("And its key stays taken", func() {
				So(do(mux, http.MethodPost, "/levels/insert", body, api.IdempotencyHeader, "k3").Code, ShouldEqual, http.StatusConflict)
			})
		})
	})
}
