package fourrooms

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned when the environment cannot be built from the given parameters
	ErrConfig = errors.New("invalid configuration")
	// ErrInvalidState is returned when stepping without a position or goal
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidAction is returned for actions outside the action space
	ErrInvalidAction = errors.New("invalid action")
	// ErrSnapshot is returned for malformed snapshots. It wraps ErrConfig.
	ErrSnapshot = fmt.Errorf("%w: malformed snapshot", ErrConfig)
)

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

func snapshotErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSnapshot, fmt.Sprintf(format, args...))
}
