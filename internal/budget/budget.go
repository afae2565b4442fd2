// Package budget converts a unit-tagged maximum file size into a byte budget
// and a number of address lines.
package budget

import (
	"math"
	"strconv"

	"github.com/go-faster/errors"
)

// MaxLineBytes is the worst-case size of one line: "255.255.255.255\n".
const MaxLineBytes = 16

// Unit is a binary size unit.
type Unit int64

const (
	KB Unit = 1024
	MB      = KB * 1024
	GB      = MB * 1024
)

// Bytes returns the number of bytes in one unit.
func (u Unit) Bytes() int64 { return int64(u) }

func (u Unit) String() string {
	switch u {
	case KB:
		return "KB"
	case MB:
		return "MB"
	case GB:
		return "GB"
	default:
		return "Unit(" + strconv.FormatInt(int64(u), 10) + ")"
	}
}

// Request holds the user supplied magnitudes. A nil field was not supplied.
type Request struct {
	KB *int64
	MB *int64
	GB *int64
}

// Resolve returns the byte budget for req.
//
// Exactly one unit must be supplied and the result must be positive,
// otherwise a *ConfigError is returned.
func Resolve(req Request) (int64, error) {
	var (
		unit      Unit
		magnitude int64
		supplied  int
	)
	for _, v := range []struct {
		n *int64
		u Unit
	}{
		{req.KB, KB},
		{req.MB, MB},
		{req.GB, GB},
	} {
		if v.n == nil {
			continue
		}
		supplied++
		unit, magnitude = v.u, *v.n
	}
	switch {
	case supplied == 0:
		return 0, configError(ErrNoSizeUnit)
	case supplied > 1:
		return 0, configError(ErrMultipleSizeUnits)
	case magnitude <= 0:
		return 0, configError(errors.Wrapf(ErrNonPositiveBudget, "got %d %s", magnitude, unit))
	case magnitude > math.MaxInt64/unit.Bytes():
		return 0, configError(errors.Wrapf(ErrBudgetOverflow, "got %d %s", magnitude, unit))
	}
	return magnitude * unit.Bytes(), nil
}

// Validate returns a *ConfigError if maxBytes is not a usable budget.
func Validate(maxBytes int64) error {
	if maxBytes <= 0 {
		return configError(errors.Wrapf(ErrNonPositiveBudget, "got %d bytes", maxBytes))
	}
	return nil
}

// LineCount returns how many worst-case lines fit into maxBytes.
//
// Most addresses are shorter than the worst case, so the real file is
// usually smaller than maxBytes.
func LineCount(maxBytes int64) int64 {
	if maxBytes <= 0 {
		return 0
	}
	return maxBytes / MaxLineBytes
}
