package budget

import (
	"github.com/go-faster/errors"
)

// Sentinel errors for size budget resolution.
var (
	ErrNoSizeUnit        = errors.New("max size not specified")
	ErrMultipleSizeUnits = errors.New("only one of kb, mb or gb may be specified")
	ErrNonPositiveBudget = errors.New("max size must be positive")
	ErrBudgetOverflow    = errors.New("max size is too large")
	ErrNoFile            = errors.New("output file is required")
)

// ConfigError reports an invalid configuration detected before any file I/O.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(err error) error {
	return &ConfigError{Err: err}
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
