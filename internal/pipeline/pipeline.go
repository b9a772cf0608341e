package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hejijunhao/triage/internal/engine/classifier"
	"github.com/hejijunhao/triage/internal/engine/parser"
	"github.com/hejijunhao/triage/internal/model"
	"github.com/hejijunhao/triage/internal/output"
)

// Analyzer produces a report for the decoded text of one log file.
// *engine.Engine implements it.
type Analyzer interface {
	Analyze(ctx context.Context, source, text string) (model.Report, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets how many files are analysed concurrently. Default: 1.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Stats summarises a batch run.
type Stats struct {
	Files    int // sources given
	Analyzed int // reports written, including partial ones
	Partial  int // reports missing a model stage
	Failed   int // sources that could not be read, decoded or analysed
}

// Pipeline analyses a batch of log files and writes one report per file to
// an output.
type Pipeline struct {
	analyzer Analyzer
	output   output.Output
	workers  int
}

// New creates a Pipeline from the given components.
func New(a Analyzer, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{analyzer: a, output: out, workers: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type result struct {
	report model.Report
	err    error
	done   bool
}

// Run analyses every source and writes the reports in source order. A file
// that cannot be read or decoded is logged and skipped; its error is part of
// the joined error returned with the stats. Reports missing a model stage are
// still written. An output failure or context cancellation stops the run.
func (p *Pipeline) Run(ctx context.Context, sources []Source) (Stats, error) {
	stats := Stats{Files: len(sources)}
	results := make([]result, len(sources))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(p.workers, max(len(sources), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.analyze(ctx, sources[i])
			}
		}()
	}
feed:
	for i := range sources {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	var errs []error
	for i, res := range results {
		switch {
		case !res.done:
			continue
		case res.err != nil && !errors.Is(res.err, classifier.ErrModelUnavailable):
			stats.Failed++
			errs = append(errs, res.err)
			slog.Warn("skipping log file", "source", sources[i].Name, "error", res.err)
			continue
		case res.err != nil:
			stats.Partial++
		}
		if err := p.output.Write(ctx, res.report); err != nil {
			return stats, fmt.Errorf("pipeline output: %w", err)
		}
		stats.Analyzed++
	}

	slog.Info("batch complete",
		"files", stats.Files,
		"analyzed", stats.Analyzed,
		"partial", stats.Partial,
		"failed", stats.Failed,
	)
	return stats, errors.Join(errs...)
}

func (p *Pipeline) analyze(ctx context.Context, src Source) result {
	data, err := src.read()
	if err != nil {
		return result{err: fmt.Errorf("pipeline: %w", err), done: true}
	}
	text, err := parser.Decode(data)
	if err != nil {
		return result{err: fmt.Errorf("pipeline: %s: %w", src.Name, err), done: true}
	}
	report, err := p.analyzer.Analyze(ctx, src.Name, text)
	return result{report: report, err: err, done: true}
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
