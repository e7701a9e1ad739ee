package tables

import (
	"strings"

	"github.com/sleepwiki/ingredex/htmldoc"
)

// DefaultLevelMarker is the text that labels level columns in the header,
// e.g. "Lv.30".
const DefaultLevelMarker = "Lv."

// ClassifyConfig holds classifier configuration
type ClassifyConfig struct {
	// LevelMarker marks stray level-caption rows inside the body.
	// Empty disables that check.
	LevelMarker string
}

// DefaultClassifyConfig returns default configuration
func DefaultClassifyConfig() ClassifyConfig {
	return ClassifyConfig{LevelMarker: DefaultLevelMarker}
}

// DataRow is a body row handed to the pattern decoder.
type DataRow struct {
	// Index is the row's position in the table.
	Index int
	Cells []htmldoc.TableCell
}

// ExcludeReason says why a non-header row was not treated as data.
type ExcludeReason string

const (
	ExcludeEmptyFirstCell ExcludeReason = "empty first cell"
	ExcludeLevelCaption   ExcludeReason = "level caption"
)

// ExcludedRow records a row dropped by the first-cell check.
type ExcludedRow struct {
	Index  int
	Reason ExcludeReason
}

// Classification is the partition of one table's rows.
type Classification struct {
	// Headers lists the indexes of header rows.
	Headers []int
	// Data holds the data rows in table order.
	Data []DataRow
	// Empty lists the indexes of rows without cells.
	Empty []int
	// Excluded lists body rows dropped by the first-cell check.
	Excluded []ExcludedRow
}

// Classify partitions the rows of t into header rows and data rows.
//
// A row is a header when it has a header cell, or when it is the first
// non-empty row and no header has been seen yet. Only that first row is
// taken as an implicit header. Rows without cells are skipped. A remaining
// row is excluded when its first cell resolves to nothing or carries the
// level marker.
func Classify(t *htmldoc.ParsedTable, cfg ClassifyConfig) Classification {
	var c Classification
	if t == nil {
		return c
	}

	headerSeen := false
	firstSeen := false
	for i, row := range t.Rows {
		if len(row) == 0 {
			c.Empty = append(c.Empty, i)
			continue
		}

		first := !firstSeen
		firstSeen = true

		if hasHeaderCell(row) || (first && !headerSeen) {
			headerSeen = true
			c.Headers = append(c.Headers, i)
			continue
		}

		if reason, excluded := excludeRow(row[0], cfg); excluded {
			c.Excluded = append(c.Excluded, ExcludedRow{Index: i, Reason: reason})
			continue
		}

		c.Data = append(c.Data, DataRow{Index: i, Cells: row})
	}

	return c
}

func hasHeaderCell(row []htmldoc.TableCell) bool {
	for _, cell := range row {
		if cell.IsHeader {
			return true
		}
	}
	return false
}

// excludeRow applies the first-cell check to a body row.
func excludeRow(first htmldoc.TableCell, cfg ClassifyConfig) (ExcludeReason, bool) {
	if first.Identifier == "" {
		return ExcludeEmptyFirstCell, true
	}
	if cfg.LevelMarker != "" &&
		(strings.Contains(first.Identifier, cfg.LevelMarker) || strings.Contains(first.Text, cfg.LevelMarker)) {
		return ExcludeLevelCaption, true
	}
	return "", false
}
