package output

import (
	"context"
	"io"

	"github.com/ccollicutt/verixfer/pkg/checker"
)

// Formatter renders findings as they arrive and a summary at the end.
type Formatter interface {
	checker.Sink

	// WriteSummary renders the end-of-run report.
	WriteSummary(ctx context.Context, report *Report) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds a summary after the findings.
	Verbose bool

	// Quiet suppresses findings and prints the summary only.
	Quiet bool

	// ShowSource prefixes each finding with its file path.
	ShowSource bool

	// SummaryWriter receives the verbose summary. Defaults to the findings writer.
	SummaryWriter io.Writer
}
