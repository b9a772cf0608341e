package engine

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hejijunhao/triage/internal/engine/catalog"
	"github.com/hejijunhao/triage/internal/engine/classifier"
	"github.com/hejijunhao/triage/internal/engine/filter"
	"github.com/hejijunhao/triage/internal/engine/testdata"
	"github.com/hejijunhao/triage/internal/engine/textclf"
)

var fixedNow = time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.ParseJSON(testdata.CatalogJSON())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func testModels(t *testing.T) (*classifier.LineModel, *classifier.SequenceModel) {
	t.Helper()
	lines, err := testdata.LineExamples()
	if err != nil {
		t.Fatalf("line examples: %v", err)
	}
	line, _, err := classifier.TrainLine(lines, textclf.DefaultConfig())
	if err != nil {
		t.Fatalf("TrainLine: %v", err)
	}
	seqs, err := testdata.SequenceExamples()
	if err != nil {
		t.Fatalf("sequence examples: %v", err)
	}
	seq, _, err := classifier.TrainSequence(seqs, textclf.DefaultConfig())
	if err != nil {
		t.Fatalf("TrainSequence: %v", err)
	}
	return line, seq
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	line, seq := testModels(t)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(testCatalog(t), line, seq, opts...)
}

func TestAnalyzeSampleLog(t *testing.T) {
	eng := newTestEngine(t)

	report, err := eng.Analyze(context.Background(), "sample_log.txt", testdata.SampleLog())
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if _, err := uuid.Parse(report.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", report.RunID, err)
	}
	if report.SourceFile != "sample_log.txt" {
		t.Errorf("SourceFile = %q", report.SourceFile)
	}
	if !report.AnalyzedAt.Equal(fixedNow) {
		t.Errorf("AnalyzedAt = %v, want %v", report.AnalyzedAt, fixedNow)
	}
	if report.Records.Total != 4 || report.Records.Structured != 3 || report.Records.Unstructured != 1 {
		t.Errorf("Records = %+v, want 4 total, 3 structured, 1 unstructured", report.Records)
	}

	if len(report.Matches) != 1 || report.Matches[0].DefectID != "D1" {
		t.Fatalf("Matches = %+v, want exactly D1", report.Matches)
	}
	if report.Matches[0].Team != "CAN Layer Team" {
		t.Errorf("D1 team = %q", report.Matches[0].Team)
	}

	if len(report.Predictions) != 3 {
		t.Fatalf("got %d predictions, want 3", len(report.Predictions))
	}
	labels := eng.line.Labels()
	total := 0
	for _, p := range report.Predictions {
		if !slices.Contains(labels, p.Label) {
			t.Errorf("prediction label %q not in model labels %v", p.Label, labels)
		}
		if p.Confidence <= 0 || p.Confidence > 1 {
			t.Errorf("confidence %v out of range", p.Confidence)
		}
	}
	for _, s := range report.Summary {
		total += s.Count
	}
	if total != 3 {
		t.Errorf("summary counts sum to %d, want 3", total)
	}
	if report.Summary[0].Sample != report.Predictions[0].Message {
		t.Errorf("first summary sample = %q, want first message", report.Summary[0].Sample)
	}

	if !slices.Contains(eng.sequence.Labels(), report.SequenceLabel) {
		t.Errorf("SequenceLabel %q not in model labels", report.SequenceLabel)
	}
	if report.Preview != testdata.SampleLog() {
		t.Errorf("short log should be previewed in full, got %q", report.Preview)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	a, err := eng.Analyze(ctx, "a", testdata.SampleLog())
	if err != nil {
		t.Fatal(err)
	}
	b, err := eng.Analyze(ctx, "a", testdata.SampleLog())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Predictions, b.Predictions) {
		t.Errorf("predictions differ between runs:\n%v\n%v", a.Predictions, b.Predictions)
	}
	if a.SequenceLabel != b.SequenceLabel {
		t.Errorf("sequence label differs: %q vs %q", a.SequenceLabel, b.SequenceLabel)
	}
	if a.RunID == b.RunID {
		t.Error("each run should get a fresh id")
	}
}

func TestAnalyzeWithoutModels(t *testing.T) {
	eng := New(testCatalog(t), nil, nil)

	report, err := eng.Analyze(context.Background(), "sample", testdata.SampleLog())
	if !errors.Is(err, classifier.ErrModelUnavailable) {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
	if len(report.Matches) != 1 {
		t.Errorf("rule matches should survive a missing model, got %+v", report.Matches)
	}
	if report.Predictions != nil || report.Summary != nil {
		t.Error("predictions should be empty without a line model")
	}
	if report.SequenceLabel != "" {
		t.Errorf("SequenceLabel = %q, want empty", report.SequenceLabel)
	}
}

func TestAnalyzeOnlySequenceMissing(t *testing.T) {
	line, _ := testModels(t)
	eng := New(testCatalog(t), line, nil)

	report, err := eng.Analyze(context.Background(), "sample", testdata.SampleLog())
	if !errors.Is(err, classifier.ErrModelUnavailable) {
		t.Fatalf("err = %v, want ErrModelUnavailable", err)
	}
	if len(report.Predictions) != 3 {
		t.Errorf("got %d line predictions, want 3", len(report.Predictions))
	}
}

func TestAnalyzeWithFilter(t *testing.T) {
	f, err := filter.Compile(`severity == "INFO"`)
	if err != nil {
		t.Fatal(err)
	}
	eng := newTestEngine(t, WithFilter(f))

	report, err := eng.Analyze(context.Background(), "sample", testdata.SampleLog())
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(report.Matches) != 0 {
		t.Errorf("filtered run should not match D1, got %+v", report.Matches)
	}
	if len(report.Predictions) != 1 || report.Predictions[0].Message != "Recovery started" {
		t.Errorf("Predictions = %+v, want only the INFO record", report.Predictions)
	}
	if report.Records.Total != 1 {
		t.Errorf("Records.Total = %d, want 1", report.Records.Total)
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	eng := newTestEngine(t)

	report, err := eng.Analyze(context.Background(), "empty", "")
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if report.Records.Total != 0 || len(report.Matches) != 0 || len(report.Predictions) != 0 {
		t.Errorf("empty input produced %+v", report)
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	eng := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Analyze(ctx, "sample", testdata.SampleLog())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type countingRecorder struct {
	runs        int
	runErr      error
	matches     []string
	predictions map[string]int
	unavailable []string
}

func (r *countingRecorder) ObserveRun(_ time.Duration, err error) {
	r.runs++
	r.runErr = err
}
func (r *countingRecorder) ObserveMatch(id string) { r.matches = append(r.matches, id) }
func (r *countingRecorder) ObservePrediction(kind, _ string) {
	if r.predictions == nil {
		r.predictions = map[string]int{}
	}
	r.predictions[kind]++
}
func (r *countingRecorder) ObserveUnavailable(kind string) {
	r.unavailable = append(r.unavailable, kind)
}

func TestRecorder(t *testing.T) {
	rec := &countingRecorder{}
	eng := newTestEngine(t, WithRecorder(rec))

	if _, err := eng.Analyze(context.Background(), "sample", testdata.SampleLog()); err != nil {
		t.Fatal(err)
	}
	if rec.runs != 1 || rec.runErr != nil {
		t.Errorf("runs = %d, err = %v", rec.runs, rec.runErr)
	}
	if !slices.Equal(rec.matches, []string{"D1"}) {
		t.Errorf("matches = %v", rec.matches)
	}
	if rec.predictions[classifier.KindLine] != 3 || rec.predictions[classifier.KindSequence] != 1 {
		t.Errorf("predictions = %v", rec.predictions)
	}

	rec = &countingRecorder{}
	eng = New(testCatalog(t), nil, nil, WithRecorder(rec))
	_, _ = eng.Analyze(context.Background(), "sample", testdata.SampleLog())
	if !slices.Equal(rec.unavailable, []string{classifier.KindLine, classifier.KindSequence}) {
		t.Errorf("unavailable = %v", rec.unavailable)
	}
	if rec.runErr == nil {
		t.Error("run error should be recorded")
	}
}

func TestWithPreviewLen(t *testing.T) {
	eng := New(testCatalog(t), nil, nil, WithPreviewLen(10))
	report, _ := eng.Analyze(context.Background(), "sample", testdata.SampleLog())
	if report.Preview != "2024-01-01..." {
		t.Errorf("Preview = %q", report.Preview)
	}
}
