package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ccollicutt/verixfer/pkg/checker"
)

// TextFormatter writes findings in the classic "<line>-<field>: <line text>" form.
type TextFormatter struct {
	w    io.Writer
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter writing findings to w.
func NewTextFormatter(w io.Writer, opts FormatOptions) *TextFormatter {
	if opts.SummaryWriter == nil {
		opts.SummaryWriter = w
	}
	return &TextFormatter{w: w, opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// WriteFinding writes one invalid line. The original text is written
// verbatim; a newline is added only when the line had none.
func (f *TextFormatter) WriteFinding(_ context.Context, finding checker.Finding) error {
	if f.opts.Quiet {
		return nil
	}

	var sb strings.Builder
	if f.opts.ShowSource {
		sb.WriteString(finding.Source)
		sb.WriteByte(':')
	}
	fmt.Fprintf(&sb, "%d-%d: %s", finding.Line, int(finding.Field), finding.Raw)
	if !strings.HasSuffix(finding.Raw, "\n") {
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(f.w, sb.String())
	return err
}

// WriteSummary renders the report summary. Nothing is written unless
// Quiet or Verbose is set.
func (f *TextFormatter) WriteSummary(_ context.Context, report *Report) error {
	switch {
	case f.opts.Quiet:
		return f.formatQuiet(report, f.w)
	case f.opts.Verbose:
		return f.formatFull(report, f.opts.SummaryWriter)
	default:
		return nil
	}
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "verixfer: %d file(s), %d lines checked, %d invalid\n",
		report.Summary.FilesChecked,
		report.Summary.LinesRead,
		report.Summary.LinesInvalid)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "Summary: %d file(s), %d lines checked, %d invalid\n",
		report.Summary.FilesChecked,
		report.Summary.LinesRead,
		report.Summary.LinesInvalid)

	for _, fc := range report.Summary.Fields {
		fmt.Fprintf(&sb, "  field %2d %-14s %d\n", int(fc.Field), fc.Name, fc.Count)
	}

	fmt.Fprintf(&sb, "Duration: %s\n", report.Metadata.Duration.Round(1e6))

	_, err := io.WriteString(w, sb.String())
	return err
}
