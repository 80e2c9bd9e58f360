package output

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/ccollicutt/verixfer/pkg/checker"
	"github.com/ccollicutt/verixfer/pkg/xferlog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var obj map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &obj); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		out = append(out, obj)
	}
	return out
}

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(&bytes.Buffer{}, FormatOptions{})
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_Stream(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf, FormatOptions{})
	ctx := context.Background()

	finding := checker.Finding{
		Source: "/var/log/xferlog", Line: 2, Field: xferlog.FieldMonth, FieldName: "month", Raw: badMonth,
	}
	if err := f.WriteFinding(ctx, finding); err != nil {
		t.Fatalf("WriteFinding() error = %v", err)
	}
	if err := f.WriteSummary(ctx, createTestReport()); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}

	objs := decodeLines(t, &buf)
	if len(objs) != 2 {
		t.Fatalf("got %d JSON objects, want 2", len(objs))
	}

	first := objs[0]
	if first["type"] != "finding" || first["line"] != float64(2) || first["field"] != float64(2) {
		t.Errorf("finding object = %v", first)
	}
	if first["raw"] != badMonth || first["field_name"] != "month" {
		t.Errorf("finding raw/field_name = %v / %v", first["raw"], first["field_name"])
	}

	second := objs[1]
	if second["type"] != "summary" || second["run_id"] == "" {
		t.Errorf("summary object = %v", second)
	}
	summary, ok := second["summary"].(map[string]interface{})
	if !ok {
		t.Fatalf("summary field missing: %v", second)
	}
	if summary["lines_read"] != float64(10) || summary["lines_invalid"] != float64(3) {
		t.Errorf("summary counts = %v", summary)
	}
	if _, ok := second["findings"]; ok {
		t.Error("summary object should not repeat findings")
	}
}

func TestJSONFormatter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf, FormatOptions{Quiet: true})
	ctx := context.Background()

	if err := f.WriteFinding(ctx, checker.Finding{Line: 1, Field: xferlog.FieldDay}); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteSummary(ctx, createTestReport()); err != nil {
		t.Fatal(err)
	}

	objs := decodeLines(t, &buf)
	if len(objs) != 1 || objs[0]["type"] != "summary" {
		t.Errorf("quiet output = %v, want only the summary", objs)
	}
}
