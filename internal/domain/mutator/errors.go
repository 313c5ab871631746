package mutator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iceteam/icelist/internal/adapters/tabular"
)

var (
	// ErrNotFound is returned when a move targets a level absent from the main list.
	ErrNotFound = errors.New("level not found")
	// ErrDuplicateLevel is returned when inserting a name already in the main list.
	ErrDuplicateLevel = errors.New("level already listed")
)

// PartialMutationError reports a mutation that wrote some tables and then failed.
type PartialMutationError struct {
	OpID      string
	Op        string
	Level     string
	Completed []tabular.Table
	Failed    tabular.Table
	// Row holds the content of a moved row that was deleted but not reinserted.
	Row []string
	Err error
}

func (e *PartialMutationError) Error() string {
	done := make([]string, len(e.Completed))
	for i, t := range e.Completed {
		done[i] = string(t)
	}
	return fmt.Sprintf("%s %q partially applied (op %s): completed [%s], failed on %s: %v",
		e.Op, e.Level, e.OpID, strings.Join(done, ", "), e.Failed, e.Err)
}

func (e *PartialMutationError) Unwrap() error { return e.Err }
