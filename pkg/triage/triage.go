package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hejijunhao/triage/internal/engine"
	"github.com/hejijunhao/triage/internal/engine/catalog"
	"github.com/hejijunhao/triage/internal/engine/classifier"
	"github.com/hejijunhao/triage/internal/engine/filter"
	"github.com/hejijunhao/triage/internal/engine/parser"
	"github.com/hejijunhao/triage/internal/model"
)

var (
	// ErrModelUnavailable is wrapped by Analyze when a classifier has not
	// been trained. The report still carries every other stage.
	ErrModelUnavailable = classifier.ErrModelUnavailable
	// ErrInvalidEncoding is returned by AnalyzeBytes for content that is
	// not UTF-8.
	ErrInvalidEncoding = parser.ErrInvalidEncoding
)

// Triage analyses logs against a defect catalog and the trained models.
// Safe for concurrent use.
type Triage struct {
	engine *engine.Engine
}

// New loads the catalog and any trained models. A malformed catalog or a
// corrupt model artifact is an error; a missing artifact is not.
func New(opts ...Option) (*Triage, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var (
		cat *catalog.Catalog
		err error
	)
	if o.defects != nil {
		patterns := make([]model.DefectPattern, len(o.defects))
		for i, d := range o.defects {
			patterns[i] = defectToModel(d)
		}
		cat, err = catalog.New(patterns)
	} else {
		cat, err = catalog.Load(o.catalogPath)
	}
	if err != nil {
		return nil, fmt.Errorf("triage: %w", err)
	}

	linePath, seqPath := resolvePaths(o)
	line, err := classifier.LoadLine(linePath)
	if err != nil && !errors.Is(err, ErrModelUnavailable) {
		return nil, fmt.Errorf("triage: %w", err)
	}
	seq, err := classifier.LoadSequence(seqPath)
	if err != nil && !errors.Is(err, ErrModelUnavailable) {
		return nil, fmt.Errorf("triage: %w", err)
	}

	engOpts := []engine.Option{engine.WithPreviewLen(o.previewLen)}
	if o.filter != "" {
		f, err := filter.Compile(o.filter)
		if err != nil {
			return nil, fmt.Errorf("triage: %w", err)
		}
		engOpts = append(engOpts, engine.WithFilter(f))
	}

	return &Triage{engine: engine.New(cat, line, seq, engOpts...)}, nil
}

// Analyze runs rule-based matching and both classifiers over text. source
// names the log file in the report.
func (t *Triage) Analyze(ctx context.Context, source, text string) (Report, error) {
	r, err := t.engine.Analyze(ctx, source, text)
	return reportFromModel(r), err
}

// AnalyzeBytes is Analyze for raw uploaded content. A leading byte order
// mark is dropped and content that is not UTF-8 is rejected.
func (t *Triage) AnalyzeBytes(ctx context.Context, source string, data []byte) (Report, error) {
	text, err := parser.Decode(data)
	if err != nil {
		return Report{}, fmt.Errorf("triage: %s: %w", source, err)
	}
	return t.Analyze(ctx, source, text)
}

// Defects returns the catalog in file order.
func (t *Triage) Defects() []Defect {
	ds := t.engine.Catalog().Defects()
	out := make([]Defect, len(ds))
	for i, d := range ds {
		out[i] = defectFromModel(d)
	}
	return out
}
