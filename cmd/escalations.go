package cmd

import (
	"fmt"
	"time"

	"github.com/bnema/helpdesk-agent/internal/adapters/escalation/sqlite"
	tracerender "github.com/bnema/helpdesk-agent/internal/adapters/render/trace"
	"github.com/spf13/cobra"
)

func newEscalationsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escalations",
		Short: "Inspect the human escalation queue",
	}

	cmd.AddCommand(newEscalationsListCmd(opts))

	return cmd
}

func newEscalationsListCmd(opts *rootOptions) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued escalations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			queue, err := sqlite.Open(cfg.Escalations.Path)
			if err != nil {
				return err
			}
			defer func() { _ = queue.Close() }()

			tickets, err := queue.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), tickets)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tracerender.Escalations(tickets, tracerender.RenderOptions{Now: time.Now()}))
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of tickets")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
