package parser

import (
	"context"
	"errors"
)

// LineSource yields the lines of one input in order.
// Implementations must be safe for sequential access (not concurrent) and
// cannot be restarted once exhausted.
type LineSource interface {
	// Next returns the next line.
	// Returns io.EOF when no more lines are available.
	Next(ctx context.Context) (*LogLine, error)

	// Close releases any resources held by the source.
	Close() error
}

// ErrNotRegular is returned when an input path is not a regular file.
var ErrNotRegular = errors.New("not a regular file")
