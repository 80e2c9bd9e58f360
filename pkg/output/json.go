package output

import (
	"context"
	"io"

	"github.com/goccy/go-json"

	"github.com/ccollicutt/verixfer/pkg/checker"
)

// JSONFormatter writes newline-delimited JSON: one object per finding
// followed by one summary object.
type JSONFormatter struct {
	enc  *json.Encoder
	opts FormatOptions
}

type jsonFinding struct {
	Type string `json:"type"`
	checker.Finding
}

type jsonSummary struct {
	Type              string   `json:"type"`
	RunID             string   `json:"run_id"`
	Summary           Summary  `json:"summary"`
	FindingsTruncated bool     `json:"findings_truncated,omitempty"`
	Metadata          Metadata `json:"metadata"`
}

// NewJSONFormatter creates a new JSON formatter writing to w.
func NewJSONFormatter(w io.Writer, opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{enc: json.NewEncoder(w), opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// WriteFinding encodes one finding object.
func (f *JSONFormatter) WriteFinding(_ context.Context, finding checker.Finding) error {
	if f.opts.Quiet {
		return nil
	}
	return f.enc.Encode(jsonFinding{Type: "finding", Finding: finding})
}

// WriteSummary encodes the summary object.
func (f *JSONFormatter) WriteSummary(_ context.Context, report *Report) error {
	return f.enc.Encode(jsonSummary{
		Type:              "summary",
		RunID:             report.RunID,
		Summary:           report.Summary,
		FindingsTruncated: report.FindingsTruncated,
		Metadata:          report.Metadata,
	})
}
