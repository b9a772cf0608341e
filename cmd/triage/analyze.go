package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/triage/internal/pipeline"
)

type analyzeOptions struct {
	where         string
	format        string
	detail        string
	pretty        bool
	outputFile    string
	webhook       string
	workers       int
	catalogPath   string
	lineModel     string
	sequenceModel string
	metricsFile   string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze log files and print a report per file",
		Long: `Analyze parses each log file, matches its records against the defect
catalog and classifies them with the line and sequence models. Use "-" to
read from stdin. Reports are written in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.where, "where", "", `keep only records matching an expression, e.g. 'severity == "ERROR"'`)
	f.StringVar(&opts.format, "format", "", "report format: json or text")
	f.StringVar(&opts.detail, "detail", "", "report detail: full or summary")
	f.BoolVar(&opts.pretty, "pretty", false, "indent JSON reports")
	f.StringVar(&opts.outputFile, "output-file", "", "also append reports to a rotating NDJSON file")
	f.StringVar(&opts.webhook, "webhook", "", "also POST reports to this URL")
	f.IntVar(&opts.workers, "workers", 4, "files analyzed concurrently")
	f.StringVar(&opts.catalogPath, "catalog", "", "defect catalog file (JSON or YAML)")
	f.StringVar(&opts.lineModel, "line-model", "", "line classifier artifact")
	f.StringVar(&opts.sequenceModel, "sequence-model", "", "sequence classifier artifact")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions, args []string) (err error) {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	overrides := []struct {
		dst *string
		val string
	}{
		{&cfg.Filter, opts.where},
		{&cfg.Output.Format, opts.format},
		{&cfg.Output.Detail, opts.detail},
		{&cfg.Output.File, opts.outputFile},
		{&cfg.Output.WebhookURL, opts.webhook},
		{&cfg.CatalogPath, opts.catalogPath},
		{&cfg.Models.LinePath, opts.lineModel},
		{&cfg.Models.SequencePath, opts.sequenceModel},
		{&cfg.MetricsFile, opts.metricsFile},
	}
	for _, o := range overrides {
		if o.val != "" {
			*o.dst = o.val
		}
	}
	if opts.pretty {
		cfg.Output.Pretty = true
	}
	if opts.workers < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", opts.workers)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a := newApp(cfg, cfg.Output.Format == "json")
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()

	eng, err := a.engine()
	if err != nil {
		return err
	}

	p := pipeline.New(eng, a.outputs(cmd.OutOrStdout()), pipeline.WithWorkers(opts.workers))
	defer func() {
		if cerr := p.Close(); err == nil {
			err = cerr
		}
	}()

	sources := make([]pipeline.Source, len(args))
	for i, arg := range args {
		if arg == "-" {
			sources[i] = pipeline.Source{
				Name: "stdin",
				Open: func() (io.ReadCloser, error) { return io.NopCloser(cmd.InOrStdin()), nil },
			}
			continue
		}
		sources[i] = pipeline.FileSource(arg)
	}

	stats, err := p.Run(cmd.Context(), sources)
	if err != nil {
		return err
	}
	if stats.Partial > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d of %d reports are missing model predictions; run 'triage train'\n",
			stats.Partial, stats.Files)
	}
	return nil
}
