package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/verixfer/pkg/checker"
	"github.com/ccollicutt/verixfer/pkg/xferlog"
)

const badMonth = "Mon Jän 01 00:05:30 2016 0 example.com 1024 /path/file.txt b _ i r user group 0 ident\n"

func createTestReport() *Report {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	sum := &checker.Summary{
		Sources:      []string{"/var/log/xferlog"},
		LinesRead:    10,
		LinesInvalid: 3,
		InvalidByField: map[xferlog.Field]int{
			xferlog.FieldTransferType: 1,
			xferlog.FieldMonth:        2,
		},
		StartTime: start,
		EndTime:   start.Add(25 * time.Millisecond),
	}
	rec := NewRecorder(10)
	_ = rec.WriteFinding(context.Background(), checker.Finding{
		Source: "/var/log/xferlog", Line: 2, Field: xferlog.FieldMonth, FieldName: "month", Raw: badMonth,
	})
	return NewReport(sum, rec)
}

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(&bytes.Buffer{}, FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_WriteFinding(t *testing.T) {
	tests := []struct {
		name    string
		opts    FormatOptions
		finding checker.Finding
		want    string
	}{
		{
			name:    "classic format",
			finding: checker.Finding{Source: "x", Line: 7, Field: xferlog.FieldMonth, Raw: badMonth},
			want:    "7-2: " + badMonth,
		},
		{
			name:    "missing newline added",
			finding: checker.Finding{Source: "x", Line: 9, Field: xferlog.FieldWeekday, Raw: "junk"},
			want:    "9-1: junk\n",
		},
		{
			name:    "blank line",
			finding: checker.Finding{Source: "x", Line: 3, Field: xferlog.FieldWeekday, Raw: "\n"},
			want:    "3-1: \n",
		},
		{
			name:    "crlf kept verbatim",
			finding: checker.Finding{Source: "x", Line: 1, Field: xferlog.FieldDay, Raw: "Mon Jan 99\r\n"},
			want:    "1-3: Mon Jan 99\r\n",
		},
		{
			name:    "with source",
			opts:    FormatOptions{ShowSource: true},
			finding: checker.Finding{Source: "xferlog.1", Line: 4, Field: xferlog.FieldTerminator, Raw: "x\n"},
			want:    "xferlog.1:4-20: x\n",
		},
		{
			name:    "quiet",
			opts:    FormatOptions{Quiet: true},
			finding: checker.Finding{Source: "x", Line: 4, Field: xferlog.FieldDay, Raw: "x\n"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := NewTextFormatter(&buf, tt.opts)
			if err := f.WriteFinding(context.Background(), tt.finding); err != nil {
				t.Fatalf("WriteFinding() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("WriteFinding() wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestTextFormatter_WriteSummary_Default(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, FormatOptions{})
	if err := f.WriteSummary(context.Background(), createTestReport()); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("default summary should be silent, got %q", buf.String())
	}
}

func TestTextFormatter_WriteSummary_Quiet(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf, FormatOptions{Quiet: true})
	if err := f.WriteSummary(context.Background(), createTestReport()); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}

	output := buf.String()
	if output != "verixfer: 1 file(s), 10 lines checked, 3 invalid\n" {
		t.Errorf("quiet summary = %q", output)
	}
}

func TestTextFormatter_WriteSummary_Verbose(t *testing.T) {
	var out, summary bytes.Buffer
	f := NewTextFormatter(&out, FormatOptions{Verbose: true, SummaryWriter: &summary})
	if err := f.WriteSummary(context.Background(), createTestReport()); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}

	if out.Len() != 0 {
		t.Errorf("verbose summary leaked into findings writer: %q", out.String())
	}
	output := summary.String()
	if !strings.Contains(output, "10 lines checked, 3 invalid") {
		t.Error("Output missing summary counts")
	}
	month := strings.Index(output, "month")
	tt := strings.Index(output, "transfer-type")
	if month < 0 || tt < 0 || month > tt {
		t.Errorf("field breakdown missing or out of order:\n%s", output)
	}
	if !strings.Contains(output, "Duration: 25ms") {
		t.Errorf("Output missing duration:\n%s", output)
	}
}

func TestNewReport(t *testing.T) {
	report := createTestReport()

	if report.RunID == "" {
		t.Error("RunID not set")
	}
	if !report.HasInvalid() {
		t.Error("HasInvalid() = false")
	}
	if report.Summary.FilesChecked != 1 {
		t.Errorf("FilesChecked = %d, want 1", report.Summary.FilesChecked)
	}
	if len(report.Summary.Fields) != 2 || report.Summary.Fields[0].Field != xferlog.FieldMonth {
		t.Errorf("Fields = %+v", report.Summary.Fields)
	}
	if len(report.Findings) != 1 || report.FindingsTruncated {
		t.Errorf("Findings = %d (truncated %v)", len(report.Findings), report.FindingsTruncated)
	}
}

func TestRecorder_Limit(t *testing.T) {
	rec := NewRecorder(2)
	for i := 1; i <= 3; i++ {
		if err := rec.WriteFinding(context.Background(), checker.Finding{Line: i}); err != nil {
			t.Fatal(err)
		}
	}
	if len(rec.Findings()) != 2 || rec.Findings()[1].Line != 2 {
		t.Errorf("Findings() = %+v", rec.Findings())
	}
	if !rec.Truncated() {
		t.Error("Truncated() = false after dropping a finding")
	}
}
