// Package checker runs the transfer log grammar over a line source and
// reports every invalid line in input order.
package checker

import (
	"context"
	"time"

	"github.com/ccollicutt/verixfer/pkg/xferlog"
)

// Finding is one invalid line.
type Finding struct {
	// Source is the file the line came from.
	Source string `json:"source"`

	// Line is the 1-based line number.
	Line int `json:"line"`

	// Field is the first field that failed, 1-20.
	Field xferlog.Field `json:"field"`

	// FieldName is the short name of Field.
	FieldName string `json:"field_name"`

	// Raw is the original line, terminator included.
	Raw string `json:"raw"`
}

// Sink receives findings in input order.
type Sink interface {
	WriteFinding(ctx context.Context, f Finding) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, f Finding) error

// WriteFinding calls fn.
func (fn SinkFunc) WriteFinding(ctx context.Context, f Finding) error {
	return fn(ctx, f)
}

// MultiSink fans findings out to every sink, stopping at the first error.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, f Finding) error {
		for _, s := range sinks {
			if err := s.WriteFinding(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

// Summary aggregates one or more check runs.
type Summary struct {
	// Sources lists the inputs checked, in order.
	Sources []string `json:"sources"`

	// LinesRead counts every line, blank ones included.
	LinesRead int `json:"lines_read"`

	// LinesInvalid counts lines that failed validation.
	LinesInvalid int `json:"lines_invalid"`

	// InvalidByField counts invalid lines by first failing field.
	InvalidByField map[xferlog.Field]int `json:"invalid_by_field,omitempty"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// HasInvalid returns true if any line failed validation.
func (s *Summary) HasInvalid() bool {
	return s.LinesInvalid > 0
}

// Duration returns the wall time covered by the summary.
func (s *Summary) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Merge adds the counts of other into s.
func (s *Summary) Merge(other *Summary) {
	if other == nil {
		return
	}
	s.Sources = append(s.Sources, other.Sources...)
	s.LinesRead += other.LinesRead
	s.LinesInvalid += other.LinesInvalid
	for f, n := range other.InvalidByField {
		if s.InvalidByField == nil {
			s.InvalidByField = make(map[xferlog.Field]int)
		}
		s.InvalidByField[f] += n
	}
	if s.StartTime.IsZero() || (!other.StartTime.IsZero() && other.StartTime.Before(s.StartTime)) {
		s.StartTime = other.StartTime
	}
	if other.EndTime.After(s.EndTime) {
		s.EndTime = other.EndTime
	}
}

func (s *Summary) record(r xferlog.Result) {
	s.LinesRead++
	if r.OK() {
		return
	}
	s.LinesInvalid++
	if s.InvalidByField == nil {
		s.InvalidByField = make(map[xferlog.Field]int)
	}
	s.InvalidByField[r.Field()]++
}
