package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/triage/internal/engine/summary"
	"github.com/hejijunhao/triage/internal/model"
	"github.com/hejijunhao/triage/internal/store"
)

type confirmOptions struct {
	label  string
	count  int
	sample string
	team   string
	source string
	list   bool
}

func newConfirmCmd(root *rootOptions) *cobra.Command {
	opts := &confirmOptions{}
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm a predicted defect and assign it to a team",
		Long: `Confirm appends a confirmation record to the confirmations CSV and prints
a ticket summary ready to paste into an issue tracker. With --list it
prints the recorded confirmations instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfirm(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.label, "label", "", "predicted defect label")
	f.IntVar(&opts.count, "count", 0, "number of log lines predicted with the label")
	f.StringVar(&opts.sample, "sample", "", "example log message")
	f.StringVar(&opts.team, "team", "", "team to assign the defect to")
	f.StringVar(&opts.source, "source", "", "source log file name")
	f.BoolVar(&opts.list, "list", false, "list recorded confirmations")
	return cmd
}

func runConfirm(cmd *cobra.Command, root *rootOptions, opts *confirmOptions) (err error) {
	cfg, err := root.load()
	if err != nil {
		return err
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

	st, err := store.New(cfg.Store.ConfirmationsPath, cfg.Store.Teams)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.list {
		cs, err := st.List()
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			fmt.Fprintln(out, "No confirmations recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIMESTAMP\tLABEL\tCOUNT\tTEAM\tSOURCE")
		for _, c := range cs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
				c.Timestamp.Format(summary.TimeLayout), c.Label, c.LogCount, c.AssignedTeam, c.SourceFile)
		}
		return tw.Flush()
	}

	if opts.label == "" || opts.team == "" {
		return errors.New("--label and --team are required (teams: " + strings.Join(st.Teams(), ", ") + ")")
	}
	c, err := st.Append(model.Confirmation{
		Label:         opts.label,
		LogCount:      opts.count,
		SampleMessage: opts.sample,
		AssignedTeam:  opts.team,
		SourceFile:    opts.source,
	})
	if err != nil {
		return err
	}
	a.metrics.ObserveConfirmation(c.AssignedTeam)

	fmt.Fprintf(out, "%s confirmed and assigned to %s, saved to %s\n\n", c.Label, c.AssignedTeam, st.Path())
	fmt.Fprintln(out, summary.Ticket(c))
	return nil
}
