package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/triage/internal/output/async"
	"github.com/hejijunhao/triage/internal/server"
	"github.com/hejijunhao/triage/internal/store"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the triage HTTP API",
		Long: `Serve exposes analysis, the defect catalog and confirmations over HTTP
until interrupted. Analysis reports are also forwarded to the configured
report file and webhook in the background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a := newApp(cfg, true)
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()

			eng, err := a.engine()
			if err != nil {
				return err
			}
			st, err := store.New(cfg.Store.ConfirmationsPath, cfg.Store.Teams)
			if err != nil {
				return err
			}

			opts := []server.Option{
				server.WithMetrics(a.metrics),
				server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
				server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
			}
			if sinks := a.sinks(); sinks.Len() > 0 {
				out := async.New(sinks, async.WithOnError(func(err error) {
					slog.Warn("report forwarding failed", "error", err)
				}))
				defer out.Close()
				opts = append(opts, server.WithOutput(out))
			}

			return server.New(eng, st, opts...).ListenAndServe(cmd.Context(), cfg.Server.Addr, cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	return cmd
}
