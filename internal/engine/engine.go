package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hejijunhao/triage/internal/engine/catalog"
	"github.com/hejijunhao/triage/internal/engine/classifier"
	"github.com/hejijunhao/triage/internal/engine/filter"
	"github.com/hejijunhao/triage/internal/engine/matcher"
	"github.com/hejijunhao/triage/internal/engine/parser"
	"github.com/hejijunhao/triage/internal/engine/summary"
	"github.com/hejijunhao/triage/internal/model"
)

// Recorder receives per-run observations. internal/metrics provides the
// Prometheus implementation.
type Recorder interface {
	ObserveRun(d time.Duration, err error)
	ObserveMatch(defectID string)
	ObservePrediction(kind, label string)
	ObserveUnavailable(kind string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRun(time.Duration, error)  {}
func (nopRecorder) ObserveMatch(string)              {}
func (nopRecorder) ObservePrediction(string, string) {}
func (nopRecorder) ObserveUnavailable(string)        {}

// Option configures an Engine.
type Option func(*Engine)

// WithFilter restricts matching and line classification to records passing f.
func WithFilter(f *filter.Filter) Option {
	return func(e *Engine) { e.filter = f }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithClock overrides the time source used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPreviewLen sets how much of the raw text is kept in Report.Preview.
// 0 disables truncation.
func WithPreviewLen(n int) Option {
	return func(e *Engine) { e.previewLen = n }
}

// Engine runs the parse → match → classify pipeline over one uploaded file at
// a time. The catalog and models it holds are read-only, so one Engine may
// serve concurrent analyses.
type Engine struct {
	catalog    *catalog.Catalog
	line       *classifier.LineModel
	sequence   *classifier.SequenceModel
	filter     *filter.Filter
	recorder   Recorder
	now        func() time.Time
	previewLen int
}

// New creates an Engine. Either model may be nil; analyses then report
// classifier.ErrModelUnavailable for the missing stage.
func New(cat *catalog.Catalog, line *classifier.LineModel, seq *classifier.SequenceModel, opts ...Option) *Engine {
	e := &Engine{
		catalog:    cat,
		line:       line,
		sequence:   seq,
		recorder:   nopRecorder{},
		now:        time.Now,
		previewLen: summary.DefaultPreviewLen,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the defect catalog the engine matches against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Analyze processes the full decoded text of one log file. When a model is
// unavailable, the report holds every stage that did complete and the
// returned error wraps classifier.ErrModelUnavailable.
func (e *Engine) Analyze(ctx context.Context, source, text string) (model.Report, error) {
	start := time.Now()
	report, err := e.analyze(ctx, source, text)
	e.recorder.ObserveRun(time.Since(start), err)
	if err != nil {
		slog.Warn("analysis incomplete", "run_id", report.RunID, "source", source, "error", err)
	} else {
		slog.Info("analysis complete",
			"run_id", report.RunID,
			"source", source,
			"records", report.Records.Total,
			"matches", len(report.Matches),
			"sequence_label", report.SequenceLabel,
			"duration", time.Since(start),
		)
	}
	return report, err
}

func (e *Engine) analyze(ctx context.Context, source, text string) (model.Report, error) {
	report := model.Report{
		RunID:      uuid.NewString(),
		SourceFile: source,
		AnalyzedAt: e.now(),
		Preview:    summary.Preview(text, e.previewLen),
	}

	records := parser.LoadStructured(parser.SplitLines(text))
	records, err := e.filter.Apply(records)
	if err != nil {
		return report, err
	}
	report.Records = model.CountRecords(records)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	report.Matches = e.Detect(records)

	var errs []error
	preds, err := e.PredictLines(ctx, records)
	switch {
	case errors.Is(err, classifier.ErrModelUnavailable):
		errs = append(errs, err)
	case err != nil:
		return report, err
	default:
		report.Predictions = preds
		report.Summary = summary.Summarize(preds)
	}

	label, err := e.PredictSequence(text)
	if err != nil {
		errs = append(errs, err)
	} else {
		report.SequenceLabel = label
	}

	return report, errors.Join(errs...)
}

// Detect matches the catalog against a batch of records.
func (e *Engine) Detect(records []model.LogRecord) []model.MatchResult {
	matches := matcher.DetectDefects(records, e.catalog.Defects())
	for _, m := range matches {
		e.recorder.ObserveMatch(m.DefectID)
	}
	return matches
}

// PredictLines classifies every structured record with a non-empty message,
// in record order. Other records are skipped.
func (e *Engine) PredictLines(ctx context.Context, records []model.LogRecord) ([]model.Prediction, error) {
	if e.line == nil {
		e.recorder.ObserveUnavailable(classifier.KindLine)
		return nil, fmt.Errorf("engine: line predictions: %w", classifier.ErrModelUnavailable)
	}

	preds := make([]model.Prediction, 0, len(records))
	for i, r := range records {
		if !r.HasMessage() {
			continue
		}
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		res, err := e.line.Classify(r.Message)
		if err != nil {
			return nil, fmt.Errorf("engine: line predictions: %w", err)
		}
		e.recorder.ObservePrediction(classifier.KindLine, res.Label)
		preds = append(preds, model.Prediction{Label: res.Label, Message: r.Message, Confidence: res.Confidence})
	}
	return preds, nil
}

// PredictSequence classifies the raw text of a whole log file.
func (e *Engine) PredictSequence(text string) (string, error) {
	label, err := e.sequence.Predict(text)
	if err != nil {
		if errors.Is(err, classifier.ErrModelUnavailable) {
			e.recorder.ObserveUnavailable(classifier.KindSequence)
		}
		return "", fmt.Errorf("engine: sequence prediction: %w", err)
	}
	e.recorder.ObservePrediction(classifier.KindSequence, label)
	return label, nil
}
