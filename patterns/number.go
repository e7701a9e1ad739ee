package patterns

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/sleepwiki/ingredex/internal/normalize"
)

// ErrNotNumber is returned for value cells that are not plain decimals.
var ErrNotNumber = errors.New("not a plain decimal")

var decimalPattern = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`)

// ParseValue parses a yield cell. Only plain decimal text is accepted, after
// full-width digits are folded to ASCII: "2.1", "３", ".5". Signs, exponents,
// units and thousands separators are rejected.
func ParseValue(s string) (float64, error) {
	v := normalize.Number(s)
	if !decimalPattern.MatchString(v) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, s)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, s)
	}
	return f, nil
}
