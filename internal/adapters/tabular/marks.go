package tabular

import (
	"strings"

	"github.com/iceteam/icelist/internal/domain/types"
)

// Stored spellings of completion marks and flags.
const (
	cellNotCompleted = "X"
	cellCompleted    = "✔"
	cellVerified     = "⭐"
	cellExtremeFlag  = "XD"
)

// EncodeMark returns the stored spelling of m.
func EncodeMark(m types.Mark) string {
	switch m {
	case types.MarkNotCompleted:
		return cellNotCompleted
	case types.MarkCompleted:
		return cellCompleted
	case types.MarkVerified:
		return cellVerified
	default:
		return ""
	}
}

// DecodeMark parses a stored cell. Anything unrecognized reads as MarkEmpty.
func DecodeMark(cell string) types.Mark {
	switch strings.TrimSpace(cell) {
	case cellNotCompleted, "x":
		return types.MarkNotCompleted
	case cellCompleted, "✔️", "✅", "✓":
		return types.MarkCompleted
	case cellVerified:
		return types.MarkVerified
	default:
		return types.MarkEmpty
	}
}

// EncodeExtremeFlag returns the waiting-list spelling of the extreme flag.
func EncodeExtremeFlag(extreme bool) string {
	if extreme {
		return cellExtremeFlag
	}
	return ""
}

// DecodeExtremeFlag parses the waiting-list extreme column.
func DecodeExtremeFlag(cell string) bool {
	return strings.EqualFold(strings.TrimSpace(cell), cellExtremeFlag)
}
