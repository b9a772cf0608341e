package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hejijunhao/triage/internal/config"
	"github.com/hejijunhao/triage/internal/engine"
	"github.com/hejijunhao/triage/internal/engine/catalog"
	"github.com/hejijunhao/triage/internal/engine/classifier"
	"github.com/hejijunhao/triage/internal/engine/filter"
	"github.com/hejijunhao/triage/internal/logging"
	"github.com/hejijunhao/triage/internal/metrics"
	"github.com/hejijunhao/triage/internal/output"
	"github.com/hejijunhao/triage/internal/output/file"
	"github.com/hejijunhao/triage/internal/output/multi"
	"github.com/hejijunhao/triage/internal/output/stdout"
	"github.com/hejijunhao/triage/internal/output/webhook"
)

// app holds what one command invocation shares: the validated config, the
// process logger and the metrics registry.
type app struct {
	cfg       config.Config
	metrics   *metrics.Metrics
	logCloser io.Closer
}

func newApp(cfg config.Config, jsonLogs bool) *app {
	closer := logging.Init(logging.Options{
		Level:      logging.ParseLevel(cfg.Log.Level),
		JSON:       jsonLogs,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	return &app{cfg: cfg, metrics: metrics.New(), logCloser: closer}
}

// engine loads the catalog and both models. A model that has not been
// trained yet is logged and left nil so analyses still run the rule-based
// stage.
func (a *app) engine() (*engine.Engine, error) {
	cat, err := catalog.Load(a.cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	slog.Info("catalog loaded", "path", a.cfg.CatalogPath, "defects", cat.Len())

	line, err := classifier.LoadLine(a.cfg.Models.LinePath)
	if err != nil {
		if !errors.Is(err, classifier.ErrModelUnavailable) {
			return nil, err
		}
		slog.Warn("line model unavailable", "path", a.cfg.Models.LinePath)
		line = nil
	}
	seq, err := classifier.LoadSequence(a.cfg.Models.SequencePath)
	if err != nil {
		if !errors.Is(err, classifier.ErrModelUnavailable) {
			return nil, err
		}
		slog.Warn("sequence model unavailable", "path", a.cfg.Models.SequencePath)
		seq = nil
	}

	opts := []engine.Option{
		engine.WithRecorder(a.metrics),
		engine.WithPreviewLen(a.cfg.Output.PreviewLen),
	}
	if a.cfg.Filter != "" {
		f, err := filter.Compile(a.cfg.Filter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithFilter(f))
	}
	return engine.New(cat, line, seq, opts...), nil
}

// sinks builds the file and webhook outputs that are configured. The
// returned Multi may be empty.
func (a *app) sinks() *multi.Multi {
	oc := a.cfg.Output
	var fileOut, hookOut output.Output
	if oc.File != "" {
		fileOut = file.New(oc.File, output.ParseDetail(oc.Detail))
	}
	if oc.WebhookURL != "" {
		hookOut = webhook.New(oc.WebhookURL)
	}
	return multi.New(fileOut, hookOut)
}

// outputs is sinks plus the report writer for the terminal.
func (a *app) outputs(w io.Writer) *multi.Multi {
	oc := a.cfg.Output
	return multi.New(stdout.NewWriter(w, oc.Format, output.ParseDetail(oc.Detail), oc.Pretty), a.sinks())
}

// close writes the metrics textfile, if configured, and releases the log
// file.
func (a *app) close() error {
	var errs []error
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("metrics textfile: %w", err))
		}
	}
	if err := a.logCloser.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
