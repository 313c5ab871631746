package tabular

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const (
	dimensionRows    = "ROWS"
	dimensionColumns = "COLUMNS"
	inputRaw         = "RAW"
	insertRows       = "INSERT_ROWS"

	defaultRequestTimeout = 15 * time.Second
)

// SheetsStore is a Store backed by a Google spreadsheet, one worksheet per table.
// Every write is a single synchronous API request, so a failed call leaves the
// worksheet untouched.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	layout        Layout
	timeout       time.Duration
	clientOpts    []option.ClientOption

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// SheetsOption configures a SheetsStore.
type SheetsOption func(*SheetsStore)

// WithLayout overrides the worksheet names.
func WithLayout(l Layout) SheetsOption {
	return func(s *SheetsStore) {
		if len(l) > 0 {
			s.layout = l
		}
	}
}

// WithRequestTimeout bounds every API request.
func WithRequestTimeout(d time.Duration) SheetsOption {
	return func(s *SheetsStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClientOptions passes options (credentials, endpoint, HTTP client) to the API client.
func WithClientOptions(opts ...option.ClientOption) SheetsOption {
	return func(s *SheetsStore) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// NewSheetsStore connects to the spreadsheet spreadsheetID.
func NewSheetsStore(ctx context.Context, spreadsheetID string, opts ...SheetsOption) (*SheetsStore, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is required", ErrAdapter)
	}
	s := &SheetsStore{
		spreadsheetID: spreadsheetID,
		layout:        DefaultLayout(),
		timeout:       defaultRequestTimeout,
		sheetIDs:      make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	svc, err := sheets.NewService(ctx, s.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create sheets service: %v", ErrAdapter, err)
	}
	s.svc = svc
	return s, nil
}

// Column implements Store.
func (s *SheetsStore) Column(ctx context.Context, t Table, col int) ([]string, error) {
	if col < 1 {
		return nil, adapterErr("Column", t, fmt.Errorf("%w: column %d", ErrOutOfRange, col))
	}
	letter := columnLetter(col)
	vals, err := s.get(ctx, "Column", t, s.a1(t, letter+":"+letter), dimensionColumns)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return []string{}, nil
	}
	return trimTrailing(vals[0]), nil
}

// Row implements Store.
func (s *SheetsStore) Row(ctx context.Context, t Table, row int) ([]string, error) {
	if row < 1 {
		return nil, adapterErr("Row", t, fmt.Errorf("%w: row %d", ErrOutOfRange, row))
	}
	vals, err := s.get(ctx, "Row", t, s.a1(t, fmt.Sprintf("%d:%d", row, row)), dimensionRows)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return []string{}, nil
	}
	return trimTrailing(vals[0]), nil
}

// Rows implements Store.
func (s *SheetsStore) Rows(ctx context.Context, t Table) ([][]string, error) {
	vals, err := s.get(ctx, "Rows", t, quoteSheet(s.layout.Sheet(t)), dimensionRows)
	if err != nil {
		return nil, err
	}
	return trimRows(vals), nil
}

// WriteCell implements Store.
func (s *SheetsStore) WriteCell(ctx context.Context, t Table, row, col int, value string) error {
	if row < 1 || col < 1 {
		return adapterErr("WriteCell", t, fmt.Errorf("%w: cell (%d,%d)", ErrOutOfRange, row, col))
	}
	return s.update(ctx, "WriteCell", t, s.a1(t, cellRef(row, col)), [][]string{{value}})
}

// WriteRange implements Store.
func (s *SheetsStore) WriteRange(ctx context.Context, t Table, rowStart, colStart int, values [][]string) error {
	if rowStart < 1 || colStart < 1 {
		return adapterErr("WriteRange", t, fmt.Errorf("%w: origin (%d,%d)", ErrOutOfRange, rowStart, colStart))
	}
	return s.update(ctx, "WriteRange", t, s.a1(t, cellRef(rowStart, colStart)), values)
}

// InsertRow implements Store.
func (s *SheetsStore) InsertRow(ctx context.Context, t Table, row int, values []string) error {
	if row < 1 {
		return adapterErr("InsertRow", t, fmt.Errorf("%w: row %d", ErrOutOfRange, row))
	}
	reqs := []*sheets.Request{{InsertDimension: &sheets.InsertDimensionRequest{
		Range: rowRange(row),
	}}}
	if len(values) > 0 {
		reqs = append(reqs, &sheets.Request{UpdateCells: &sheets.UpdateCellsRequest{
			Start:  rowStart(row),
			Rows:   []*sheets.RowData{{Values: rawCells(values)}},
			Fields: "userEnteredValue",
		}})
	}
	// A batch is applied atomically, so the grid never keeps a blank row.
	return s.batch(ctx, "InsertRow", t, reqs...)
}

// DeleteRow implements Store.
func (s *SheetsStore) DeleteRow(ctx context.Context, t Table, row int) error {
	if row < 1 {
		return adapterErr("DeleteRow", t, fmt.Errorf("%w: row %d", ErrOutOfRange, row))
	}
	req := &sheets.Request{DeleteDimension: &sheets.DeleteDimensionRequest{
		Range: rowRange(row),
	}}
	return s.batch(ctx, "DeleteRow", t, req)
}

// AppendRow implements Store.
func (s *SheetsStore) AppendRow(ctx context.Context, t Table, values []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, quoteSheet(s.layout.Sheet(t)), &sheets.ValueRange{Values: toInterfaces([][]string{values})}).
		ValueInputOption(inputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	return adapterErr("AppendRow", t, err)
}

func (s *SheetsStore) get(ctx context.Context, op string, t Table, rng, dim string) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).MajorDimension(dim).Context(ctx).Do()
	if err != nil {
		return nil, adapterErr(op, t, err)
	}
	return fromInterfaces(resp.Values), nil
}

func (s *SheetsStore) update(ctx context.Context, op string, t Table, rng string, values [][]string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, rng, &sheets.ValueRange{Values: toInterfaces(values)}).
		ValueInputOption(inputRaw).
		Context(ctx).
		Do()
	return adapterErr(op, t, err)
}

func (s *SheetsStore) batch(ctx context.Context, op string, t Table, reqs ...*sheets.Request) error {
	sheetID, err := s.sheetID(ctx, t)
	if err != nil {
		return adapterErr(op, t, err)
	}
	for _, req := range reqs {
		switch {
		case req.InsertDimension != nil:
			req.InsertDimension.Range.SheetId = sheetID
		case req.DeleteDimension != nil:
			req.DeleteDimension.Range.SheetId = sheetID
		case req.UpdateCells != nil:
			req.UpdateCells.Start.SheetId = sheetID
		}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err = s.svc.Spreadsheets.
		BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).
		Do()
	return adapterErr(op, t, err)
}

func rowRange(row int) *sheets.DimensionRange {
	return &sheets.DimensionRange{
		Dimension:  dimensionRows,
		StartIndex: int64(row - 1),
		EndIndex:   int64(row),
		// Zero is a valid sheet id and start index; omitempty would drop them.
		ForceSendFields: []string{"SheetId", "StartIndex"},
	}
}

func rowStart(row int) *sheets.GridCoordinate {
	return &sheets.GridCoordinate{
		RowIndex:        int64(row - 1),
		ForceSendFields: []string{"SheetId", "RowIndex", "ColumnIndex"},
	}
}

// rawCells stores values as literal strings, matching the RAW input option.
func rawCells(values []string) []*sheets.CellData {
	out := make([]*sheets.CellData, len(values))
	for i, v := range values {
		out[i] = &sheets.CellData{UserEnteredValue: &sheets.ExtendedValue{StringValue: &v}}
	}
	return out
}

// sheetID resolves the numeric id of t's worksheet, caching the lookup.
func (s *SheetsStore) sheetID(ctx context.Context, t Table) (int64, error) {
	title := s.layout.Sheet(t)
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.sheetIDs[title]; ok {
		return id, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := s.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("%w: worksheet %q", ErrUnknownTable, title)
	}
	return id, nil
}

func (s *SheetsStore) a1(t Table, ref string) string {
	return quoteSheet(s.layout.Sheet(t)) + "!" + ref
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func cellRef(row, col int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}

// columnLetter converts a 1-based column index to its A1 letters (1 -> A, 27 -> AA).
func columnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func toInterfaces(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}

func fromInterfaces(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				out[i][j] = fmt.Sprint(v)
			}
		}
	}
	return out
}
