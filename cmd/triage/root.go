package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/triage/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Defect triage for embedded-network diagnostic logs",
		Long: `triage matches uploaded ECU logs against a catalog of known defect
signatures and classifies them with trained line and sequence models.
Confirmed defects are recorded to a CSV file and assigned to a team.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", os.Getenv("TRIAGE_CONFIG"), "path to YAML config file")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&opts.logFile, "log-file", "", "write logs to a rotating file instead of stderr")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newTrainCmd(opts),
		newConfirmCmd(opts),
		newServeCmd(opts),
		newCatalogCmd(opts),
	)
	return cmd
}

// load reads the config file and environment, then applies the persistent
// flag overrides.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	return cfg, nil
}
