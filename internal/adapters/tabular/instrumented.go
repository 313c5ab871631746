package tabular

import (
	"context"
	"time"

	"github.com/iceteam/icelist/pkg/logger"
	"github.com/iceteam/icelist/pkg/metrics"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Instrumented wraps a Store and records latency, outcome and a debug log line
// for every call.
type Instrumented struct {
	next Store
	log  logger.Logger
}

// Instrument decorates next. A nil log disables logging.
func Instrument(next Store, log logger.Logger) *Instrumented {
	if log == nil {
		log = logger.Nop()
	}
	return &Instrumented{next: next, log: log.Named("tabular")}
}

func (s *Instrumented) observe(ctx context.Context, method string, t Table, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
		s.log.Warn(ctx, "store call failed",
			logger.String("method", method),
			logger.String("table", string(t)),
			logger.Error(err))
	} else {
		s.log.Debug(ctx, "store call",
			logger.String("method", method),
			logger.String("table", string(t)),
			logger.Float64("latency_ms", float64(elapsed.Microseconds())/1000))
	}
	metrics.RecordStoreCall(method, string(t), outcome, float64(elapsed.Microseconds())/1000)
}

// Column implements Store.
func (s *Instrumented) Column(ctx context.Context, t Table, col int) (out []string, err error) {
	defer func(start time.Time) { s.observe(ctx, "Column", t, start, err) }(time.Now())
	return s.next.Column(ctx, t, col)
}

// Row implements Store.
func (s *Instrumented) Row(ctx context.Context, t Table, row int) (out []string, err error) {
	defer func(start time.Time) { s.observe(ctx, "Row", t, start, err) }(time.Now())
	return s.next.Row(ctx, t, row)
}

// Rows implements Store.
func (s *Instrumented) Rows(ctx context.Context, t Table) (out [][]string, err error) {
	defer func(start time.Time) { s.observe(ctx, "Rows", t, start, err) }(time.Now())
	return s.next.Rows(ctx, t)
}

// WriteCell implements Store.
func (s *Instrumented) WriteCell(ctx context.Context, t Table, row, col int, value string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "WriteCell", t, start, err) }(time.Now())
	return s.next.WriteCell(ctx, t, row, col, value)
}

// WriteRange implements Store.
func (s *Instrumented) WriteRange(ctx context.Context, t Table, rowStart, colStart int, values [][]string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "WriteRange", t, start, err) }(time.Now())
	return s.next.WriteRange(ctx, t, rowStart, colStart, values)
}

// InsertRow implements Store.
func (s *Instrumented) InsertRow(ctx context.Context, t Table, row int, values []string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "InsertRow", t, start, err) }(time.Now())
	return s.next.InsertRow(ctx, t, row, values)
}

// DeleteRow implements Store.
func (s *Instrumented) DeleteRow(ctx context.Context, t Table, row int) (err error) {
	defer func(start time.Time) { s.observe(ctx, "DeleteRow", t, start, err) }(time.Now())
	return s.next.DeleteRow(ctx, t, row)
}

// AppendRow implements Store.
func (s *Instrumented) AppendRow(ctx context.Context, t Table, values []string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "AppendRow", t, start, err) }(time.Now())
	return s.next.AppendRow(ctx, t, values)
}
