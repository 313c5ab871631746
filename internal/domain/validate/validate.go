// Package validate holds the input rules every list operation checks before it
// touches the store.
package validate

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/iceteam/icelist/internal/domain/types"
)

// Score bounds shared by enjoyment and rating.
const (
	MinScore = 1
	MaxScore = 100
)

// ErrValidation is matched by every *Error.
var ErrValidation = errors.New("validation failed")

// Error carries the per-field failures of one operation.
type Error struct {
	Op     string
	Fields validation.Errors
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Fields)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *Error) Is(target error) bool { return target == ErrValidation }

// Unwrap exposes the underlying ozzo errors.
func (e *Error) Unwrap() error { return e.Fields }

func wrap(op string, errs validation.Errors) error {
	if err := errs.Filter(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			return &Error{Op: op, Fields: fields}
		}
		return &Error{Op: op, Fields: validation.Errors{"input": err}}
	}
	return nil
}

var notBlank = validation.By(func(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// rankRules rejects ranks outside [1, maxRank]. Zero is rejected explicitly since
// ozzo threshold rules skip empty values.
func rankRules(maxRank int) []validation.Rule {
	msg := fmt.Sprintf("must be between 1 and %d", maxRank)
	return []validation.Rule{
		validation.Required.Error(msg),
		validation.Min(1).Error(msg),
		validation.Max(maxRank).Error(msg),
	}
}

func scoreRules(score *int) []validation.Rule {
	msg := fmt.Sprintf("must be between %d and %d", MinScore, MaxScore)
	return []validation.Rule{
		validation.When(score != nil,
			validation.Required.Error(msg),
			validation.Min(MinScore).Error(msg),
			validation.Max(MaxScore).Error(msg),
		),
	}
}

// Insert validates an insertion at rank.
func Insert(level, firstVictor string, rank, maxRank int, meta types.Metadata) error {
	return wrap("insert", validation.Errors{
		"level":        validation.Validate(level, notBlank),
		"first_victor": validation.Validate(firstVictor, notBlank),
		"rank":         validation.Validate(rank, rankRules(maxRank)...),
		"enjoyment":    validation.Validate(meta.Enjoyment, scoreRules(meta.Enjoyment)...),
		"rating":       validation.Validate(meta.Rating, scoreRules(meta.Rating)...),
	})
}

// Place validates a moderator placement; the victor may be resolved from the waiting list.
func Place(level string, rank, maxRank int) error {
	return wrap("place", validation.Errors{
		"level": validation.Validate(level, notBlank),
		"rank":  validation.Validate(rank, rankRules(maxRank)...),
	})
}

// Move validates a relocation to newRank.
func Move(level string, newRank, maxRank int) error {
	return wrap("move", validation.Errors{
		"level": validation.Validate(level, notBlank),
		"rank":  validation.Validate(newRank, rankRules(maxRank)...),
	})
}

// Submission validates a staged waiting-list entry.
func Submission(w types.WaitingEntry) error {
	return wrap("stage", validation.Errors{
		"level":     validation.Validate(w.Level, notBlank),
		"submitter": validation.Validate(w.Submitter, notBlank),
		"enjoyment": validation.Validate(w.Enjoyment, scoreRules(w.Enjoyment)...),
		"rating":    validation.Validate(w.Rating, scoreRules(w.Rating)...),
	})
}

// Score validates one enjoyment or rating value recorded by a player.
func Score(field string, score int) error {
	return wrap("score", validation.Errors{
		field: validation.Validate(&score, scoreRules(&score)...),
	})
}

// Player validates a player registration.
func Player(name, handle string) error {
	return wrap("register", validation.Errors{
		"player": validation.Validate(name, notBlank, validation.Length(1, 32)),
		"handle": validation.Validate(handle, notBlank, validation.Length(1, 32)),
	})
}

// Within rejects a rank past limit, the last position that keeps ranks contiguous.
func Within(op string, rank, limit int) error {
	return wrap(op, validation.Errors{
		"rank": validation.Validate(rank, validation.Max(limit).Error(fmt.Sprintf("must be at most %d", limit))),
	})
}
