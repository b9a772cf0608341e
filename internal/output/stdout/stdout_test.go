package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hejijunhao/triage/internal/model"
	"github.com/hejijunhao/triage/internal/output"
)

func testReport() model.Report {
	return model.Report{
		RunID:      "run-1",
		SourceFile: "log1.txt",
		AnalyzedAt: time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Records:    model.RecordCounts{Total: 2, Structured: 2},
		Matches:    []model.MatchResult{{DefectID: "D1", Description: "CAN overload", Team: "CAN Layer Team"}},
		Predictions: []model.Prediction{
			{Label: "CAN_TIMEOUT", Message: "CAN1 timeout"},
		},
		Summary:       []model.LabelSummary{{Label: "CAN_TIMEOUT", Count: 1, Sample: "CAN1 timeout"}},
		SequenceLabel: "CAN_FAILURE",
		Preview:       "2024-01-01 00:00:02 [ECU1] [NAV] [ERROR] CAN1 timeout",
	}
}

// captureStdout redirects os.Stdout to capture output.
func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestOutputCompactJSON(t *testing.T) {
	result := captureStdout(func() {
		out := New("json", output.Full, false)
		out.Write(context.Background(), testReport())
	})

	lines := strings.Split(strings.TrimSpace(result), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["sequence_label"] != "CAN_FAILURE" {
		t.Fatalf("expected sequence_label=CAN_FAILURE, got %v", m["sequence_label"])
	}
}

func TestOutputPrettyJSON(t *testing.T) {
	result := captureStdout(func() {
		out := New("json", output.Full, true)
		out.Write(context.Background(), testReport())
	})

	if !strings.Contains(result, "  ") {
		t.Fatal("expected indented output for pretty mode")
	}
	lines := strings.Split(strings.TrimSpace(result), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected multi-line pretty output, got %d lines", len(lines))
	}
}

func TestOutputSummaryOmitsFields(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, "json", output.Summary, false)
	if err := out.Write(context.Background(), testReport()); err != nil {
		t.Fatal(err)
	}

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := m["preview"]; ok {
		t.Fatal("preview should be omitted at Summary")
	}
	if m["predictions"] != nil {
		t.Fatalf("predictions should be null at Summary, got %v", m["predictions"])
	}
	if m["run_id"] != "run-1" {
		t.Fatalf("run_id should be preserved, got %v", m["run_id"])
	}
}

func TestOutputText(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, "text", output.Full, true)
	if err := out.Write(context.Background(), testReport()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "D1 - CAN overload (Team: CAN Layer Team)") {
		t.Fatalf("unexpected text output:\n%s", buf.String())
	}
	if json.Valid(buf.Bytes()) {
		t.Fatal("text format should not produce JSON")
	}
}
