package ingredex

import (
	"encoding/json"

	"github.com/sleepwiki/ingredex/model"
)

// Result is the outcome of one decoding pass.
type Result struct {
	// Entities in id order.
	Entities []model.Entity `json:"entities"`
	Report   Report         `json:"report"`
	Warnings []Warning      `json:"-"`
	// Title is the page title, when the document has one.
	Title string `json:"title,omitempty"`
}

// Report counts what a decoding pass saw and dropped.
type Report struct {
	TablesFound int `json:"tablesFound"`
	// SelectedTable is the document index of the decoded table, or -1.
	SelectedTable int `json:"selectedTable"`
	SelectedRows  int `json:"selectedRows"`

	HeaderRows   int `json:"headerRows"`
	DataRows     int `json:"dataRows"`
	EmptyRows    int `json:"emptyRows"`
	ExcludedRows int `json:"excludedRows"`

	ShortRows     int `json:"shortRows"`
	FailedRows    int `json:"failedRows"`
	DiscardedRows int `json:"discardedRows"`

	Entities        int `json:"entities"`
	PatternsDecoded int `json:"patternsDecoded"`
	PatternsSkipped int `json:"patternsSkipped"`

	Fallback bool `json:"fallback"`
	// FallbackReason is one of ErrNoTable, ErrNoDataRows or ErrNoEntities
	// when Fallback is set.
	FallbackReason error `json:"-"`
}

// SkippedRows returns the number of data rows that produced no entity.
func (r Report) SkippedRows() int {
	return r.ShortRows + r.FailedRows + r.DiscardedRows
}

// MarshalJSON renders FallbackReason as text.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	out := struct {
		plain
		FallbackReason string `json:"fallbackReason,omitempty"`
	}{plain: plain(r)}
	if r.FallbackReason != nil {
		out.FallbackReason = r.FallbackReason.Error()
	}
	return json.Marshal(out)
}
