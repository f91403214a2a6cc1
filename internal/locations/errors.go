package locations

import (
	"errors"
	"fmt"
)

// ErrNonFiniteCoordinate is returned for NaN, infinite or out-of-range coordinates
var ErrNonFiniteCoordinate = errors.New("non-finite coordinate")

// IOError is returned when the location source cannot be read
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to read locations: %v", e.Err)
	}
	return fmt.Sprintf("failed to read locations from %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError is returned when a record is malformed
type ParseError struct {
	Line  int
	ID    string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("line %d (id %s): invalid %s: %v", e.Line, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("line %d: invalid %s: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError is returned when the record set cannot form a tour
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid location set: %s", e.Reason)
}
