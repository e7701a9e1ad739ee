package ingredex

import "errors"

// ErrEmptyDocument is returned when the input holds no document at all.
// It is the only failure that aborts a decode with the fallback enabled.
var ErrEmptyDocument = errors.New("empty document")

// Structural failures. With the fallback enabled they are recorded in
// Report.FallbackReason; with WithoutFallback they are returned.
var (
	ErrNoTable     = errors.New("no table found")
	ErrNoDataRows  = errors.New("selected table has no data rows")
	ErrNoEntities  = errors.New("no entity decoded")
	ErrUnsupported = errors.New("unsupported input format")
)
