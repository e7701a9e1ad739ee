package ingredex

import (
	"fmt"
	"strings"
)

// WarningKind classifies a non-fatal issue found while decoding.
type WarningKind int

const (
	// WarningShortRow marks a data row with fewer cells than the layout needs.
	WarningShortRow WarningKind = iota
	// WarningRowFailed marks a data row whose decoding failed unexpectedly.
	WarningRowFailed
	// WarningRowDiscarded marks a row that decoded to no usable entity.
	WarningRowDiscarded
	// WarningFallback marks the substitution of the fallback dataset.
	WarningFallback
)

// String returns the kind name.
func (k WarningKind) String() string {
	switch k {
	case WarningShortRow:
		return "short row"
	case WarningRowFailed:
		return "row failed"
	case WarningRowDiscarded:
		return "row discarded"
	case WarningFallback:
		return "fallback"
	default:
		return "warning"
	}
}

// Warning is a non-fatal issue: decoding succeeded but the result may be
// less complete than the page.
type Warning struct {
	Kind WarningKind
	// Row is the row index in the selected table, or -1.
	Row     int
	Message string
}

// String formats the warning for display.
func (w Warning) String() string {
	if w.Row >= 0 {
		return fmt.Sprintf("%s (row %d): %s", w.Kind, w.Row, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// FormatWarnings joins warnings into one line per warning.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
