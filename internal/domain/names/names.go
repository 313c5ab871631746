// Package names canonicalizes level and player names for lookups across tables
// whose operators typed names with inconsistent spacing and capitalization.
package names

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize trims, collapses inner whitespace runs to one space, applies NFC and
// folds case. Two names refer to the same level when their normalized forms are equal.
func Normalize(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	return folder.String(norm.NFC.String(collapsed))
}

// Equal reports whether a and b normalize to the same name.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Index returns the position of the first element of values equal to name after
// normalization, or -1.
func Index(values []string, name string) int {
	want := Normalize(name)
	if want == "" {
		return -1
	}
	for i, v := range values {
		if Normalize(v) == want {
			return i
		}
	}
	return -1
}
