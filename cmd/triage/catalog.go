package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/triage/internal/engine/catalog"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the known defect patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if path != "" {
				cfg.CatalogPath = path
			}
			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTEAM\tPATTERN\tDESCRIPTION")
			for _, d := range cat.Defects() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Team, strings.Join(d.Pattern, " + "), d.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&path, "catalog", "", "defect catalog file (JSON or YAML)")
	return cmd
}
