package tabular

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors.
var (
	// ErrAdapter is matched by every *AdapterError.
	ErrAdapter      = errors.New("tabular store failure")
	ErrUnknownTable = errors.New("unknown table")
	ErrOutOfRange   = errors.New("row or column out of range")
)

// AdapterError reports a failed store call. It is never a not-found signal:
// callers must propagate it rather than treat the data as missing.
type AdapterError struct {
	Op    string
	Table Table
	Err   error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("tabular %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAdapter) hold for every adapter failure.
func (e *AdapterError) Is(target error) bool { return target == ErrAdapter }

func adapterErr(op string, t Table, err error) error {
	if err == nil {
		return nil
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return err
	}
	return &AdapterError{Op: op, Table: t, Err: err}
}
