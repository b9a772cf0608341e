package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/triage/internal/engine/classifier"
	"github.com/hejijunhao/triage/internal/engine/textclf"
)

type trainOptions struct {
	data     string
	model    string
	testSize float64
	seed     uint64
	maxIter  int
	c        float64
}

func newTrainCmd(root *rootOptions) *cobra.Command {
	opts := &trainOptions{}
	cmd := &cobra.Command{
		Use:   "train line|sequence",
		Short: "Train a classifier from labeled CSV data",
		Long: `Train fits the line classifier (one log message per row) or the sequence
classifier (one whole log per row), prints a classification report for the
held-out split and saves the model artifact.`,
		ValidArgs: []string{classifier.KindLine, classifier.KindSequence},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, root, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.data, "data", "", "labeled CSV training data")
	f.StringVar(&opts.model, "model", "", "artifact output path")
	f.Float64Var(&opts.testSize, "test-size", 0, "fraction of rows held out for evaluation")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed for the train/test split")
	f.IntVar(&opts.maxIter, "max-iter", 0, "maximum optimiser iterations")
	f.Float64Var(&opts.c, "c", 0, "inverse regularisation strength")
	return cmd
}

func runTrain(cmd *cobra.Command, root *rootOptions, opts *trainOptions, kind string) (err error) {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("test-size") {
		cfg.Training.TestSize = opts.testSize
	}
	if flags.Changed("seed") {
		cfg.Training.Seed = opts.seed
	}
	if flags.Changed("max-iter") {
		cfg.Training.MaxIter = opts.maxIter
	}
	if flags.Changed("c") {
		cfg.Training.C = opts.c
	}
	if err := cfg.ValidateSettings(); err != nil {
		return err
	}

	a := newApp(cfg, false)
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()

	data, modelPath := cfg.Training.LineData, cfg.Models.LinePath
	if kind == classifier.KindSequence {
		data, modelPath = cfg.Training.SequenceData, cfg.Models.SequencePath
	}
	if opts.data != "" {
		data = opts.data
	}
	if opts.model != "" {
		modelPath = opts.model
	}

	tc := cfg.Training.Classifier()
	var report textclf.Report
	switch kind {
	case classifier.KindLine:
		examples, err := classifier.LoadLineExamples(data)
		if err != nil {
			return err
		}
		m, r, err := classifier.TrainLine(examples, tc)
		if err != nil {
			return err
		}
		if err := m.Save(modelPath); err != nil {
			return err
		}
		report = r
	case classifier.KindSequence:
		examples, err := classifier.LoadSequenceExamples(data)
		if err != nil {
			return err
		}
		m, r, err := classifier.TrainSequence(examples, tc)
		if err != nil {
			return err
		}
		if err := m.Save(modelPath); err != nil {
			return err
		}
		report = r
	}

	slog.Info("model saved", "kind", kind, "data", data, "path", modelPath)
	fmt.Fprint(cmd.OutOrStdout(), report.String())
	fmt.Fprintf(cmd.OutOrStdout(), "\nsaved %s model to %s\n", kind, modelPath)
	return nil
}
