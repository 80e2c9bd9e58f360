// Package output provides formatting and output generation for check results.
package output

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/verixfer/pkg/checker"
	"github.com/ccollicutt/verixfer/pkg/xferlog"
)

// Report is the complete output of a check run.
type Report struct {
	// RunID identifies the run across webhook deliveries.
	RunID string `json:"run_id"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Findings holds recorded invalid lines, possibly truncated.
	Findings []checker.Finding `json:"findings,omitempty"`

	// FindingsTruncated is set when more lines failed than were recorded.
	FindingsTruncated bool `json:"findings_truncated,omitempty"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// FilesChecked is the number of inputs read.
	FilesChecked int `json:"files_checked"`

	// LinesRead is the total number of lines read.
	LinesRead int `json:"lines_read"`

	// LinesInvalid is the number of lines that failed validation.
	LinesInvalid int `json:"lines_invalid"`

	// Fields breaks invalid lines down by first failing field, in field order.
	Fields []FieldCount `json:"fields,omitempty"`
}

// FieldCount is the number of lines that first failed at Field.
type FieldCount struct {
	Field xferlog.Field `json:"field"`
	Name  string        `json:"name"`
	Count int           `json:"count"`
}

// Metadata provides context about the run.
type Metadata struct {
	// Sources lists the files that were checked.
	Sources []string `json:"sources"`

	// CheckedAt is when the run finished.
	CheckedAt time.Time `json:"checked_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from a checker summary and recorded findings.
func NewReport(sum *checker.Summary, rec *Recorder) *Report {
	report := &Report{
		RunID: uuid.NewString(),
		Summary: Summary{
			FilesChecked: len(sum.Sources),
			LinesRead:    sum.LinesRead,
			LinesInvalid: sum.LinesInvalid,
		},
		Metadata: Metadata{
			Sources:   sum.Sources,
			CheckedAt: sum.EndTime,
			Duration:  sum.Duration(),
		},
	}

	for f, n := range sum.InvalidByField {
		report.Summary.Fields = append(report.Summary.Fields, FieldCount{Field: f, Name: f.Name(), Count: n})
	}
	sort.Slice(report.Summary.Fields, func(i, j int) bool {
		return report.Summary.Fields[i].Field < report.Summary.Fields[j].Field
	})

	if rec != nil {
		report.Findings = rec.Findings()
		report.FindingsTruncated = rec.Truncated()
	}

	return report
}

// HasInvalid returns true if any line failed validation.
func (r *Report) HasInvalid() bool {
	return r.Summary.LinesInvalid > 0
}

// Recorder is a Sink that keeps the first findings of a run.
type Recorder struct {
	limit    int
	findings []checker.Finding
	dropped  int
}

// NewRecorder keeps at most limit findings. A limit of 0 or less keeps none.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// WriteFinding records f if there is room.
func (r *Recorder) WriteFinding(_ context.Context, f checker.Finding) error {
	if len(r.findings) >= r.limit {
		r.dropped++
		return nil
	}
	r.findings = append(r.findings, f)
	return nil
}

// Findings returns the recorded findings in input order.
func (r *Recorder) Findings() []checker.Finding {
	return r.findings
}

// Truncated reports whether findings were dropped.
func (r *Recorder) Truncated() bool {
	return r.dropped > 0
}
