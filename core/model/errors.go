package model

import (
	"errors"
	"fmt"
)

// ErrConfig marks configuration problems detected before any simulation runs.
// Callers can match it with errors.Is.
var ErrConfig = errors.New("invalid configuration")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
