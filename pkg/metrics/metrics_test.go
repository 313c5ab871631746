package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("ranked"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it registers collectors under the namespace", func() {
				So(m, ShouldNotBeNil)
				m.mutations.WithLabelValues("insert", "ok").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_ranked_mutations_total")
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording a mutation", func() {
			before := testutil.ToFloat64(globalManager.mutations.WithLabelValues("move", "ok"))
			RecordMutation("move", "ok", 12)
			after := testutil.ToFloat64(globalManager.mutations.WithLabelValues("move", "ok"))

			Convey("Then the counter increases by one", func() {
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When recording partial mutations and store calls", func() {
			before := testutil.ToFloat64(globalManager.partialMutations.WithLabelValues("insert", "LX"))
			RecordPartialMutation("insert", "LX")
			So(testutil.ToFloat64(globalManager.partialMutations.WithLabelValues("insert", "LX"))-before, ShouldEqual, 1)

			So(func() {
				RecordStoreCall("InsertRow", "list0", "ok", 3)
				RecordValidationRejection("insert")
				RecordEviction()
				RecordWaitingStaged()
				RecordWaitingConsumed()
				RecordDuplicateRequest()
				RecordHTTPRequest("/levels", "GET", "200")
				RecordHTTPRequestDuration("/levels", "GET", "200", 4)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
			}, ShouldNotPanic)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
