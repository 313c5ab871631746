package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iceteam/icelist/internal/adapters/tabular"
	"github.com/iceteam/icelist/internal/domain/mutator"
	"github.com/iceteam/icelist/internal/domain/players"
	"github.com/iceteam/icelist/internal/domain/validate"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateRequest = errors.New("duplicate request")
)

// Error tags a failure with the handler operation and an API kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Is matches the kind.
func (e *Error) Is(target error) bool { return e.Kind != nil && target == e.Kind }

// Unwrap exposes the cause.
func (e *Error) Unwrap() error { return e.Err }

// NewKind builds an error of kind without a cause.
func NewKind(op string, kind error) error { return &Error{Op: op, Kind: kind} }

// Wrap tags err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error { return &Error{Op: op, Kind: kind, Err: err} }

// classify maps an error onto an HTTP status and a stable code.
func classify(err error) (int, string) {
	var partial *mutator.PartialMutationError
	switch {
	case errors.As(err, &partial):
		return http.StatusBadGateway, "partial_mutation"
	case errors.Is(err, ErrBadRequest), errors.Is(err, validate.ErrValidation):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, mutator.ErrNotFound), errors.Is(err, players.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrDuplicateRequest):
		return http.StatusConflict, "duplicate_request"
	case errors.Is(err, mutator.ErrDuplicateLevel), errors.Is(err, players.ErrDuplicatePlayer):
		return http.StatusConflict, "conflict"
	case errors.Is(err, tabular.ErrAdapter):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
