package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	tracerender "github.com/bnema/helpdesk-agent/internal/adapters/render/trace"
	"github.com/bnema/helpdesk-agent/internal/application"
	"github.com/spf13/cobra"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start sessions, send messages and inspect traces",
	}

	cmd.AddCommand(
		newSessionStartCmd(opts),
		newSessionSendCmd(opts),
		newSessionTraceCmd(opts),
		newSessionListCmd(opts),
	)

	return cmd
}

type customerFlags struct {
	email      string
	firstName  string
	lastName   string
	customerID string
}

func (f *customerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "Customer email")
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "Customer first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "Customer last name")
	cmd.Flags().StringVar(&f.customerID, "customer-id", "", "Commerce customer id, e.g. gid://shopify/Customer/...")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
}

func (f *customerFlags) command() application.StartSessionCommand {
	return application.StartSessionCommand{
		Email:      f.email,
		FirstName:  f.firstName,
		LastName:   f.lastName,
		CustomerID: f.customerID,
	}
}

func newSessionStartCmd(opts *rootOptions) *cobra.Command {
	var customer customerFlags

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app) error {
				id, err := a.orchestrator.StartSession(cmd.Context(), customer.command())
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}
	customer.register(cmd)

	return cmd
}

func newSessionSendCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "send <session-id> <message>...",
		Short: "Send one customer message and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app) error {
				result, err := a.orchestrator.SendMessage(cmd.Context(), application.SendMessageCommand{
					SessionID: args[0],
					Message:   strings.Join(args[1:], " "),
				})
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				return writeTurn(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newSessionTraceCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	var withMessages bool

	cmd := &cobra.Command{
		Use:   "trace <session-id>",
		Short: "Show the trace of the most recent turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app) error {
				trace, err := a.orchestrator.GetTrace(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), trace)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), tracerender.Trace(trace, tracerender.RenderOptions{
					Now:      time.Now(),
					Messages: withMessages,
				}))
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&withMessages, "messages", false, "Include the conversation transcript")

	return cmd
}

func newSessionListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app) error {
				summaries, err := a.orchestrator.ListSessions(cmd.Context())
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), summaries)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), tracerender.Sessions(summaries, tracerender.RenderOptions{Now: time.Now()}))
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeTurn(w io.Writer, result application.TurnResult) error {
	if _, err := fmt.Fprintln(w, result.Response); err != nil {
		return err
	}

	meta := fmt.Sprintf("[%s", labelOrDash(string(result.Agent)))
	if result.Intent != "" {
		meta += fmt.Sprintf(" %s %d%%", result.Intent, result.IntentConfidence)
	}
	if result.Escalated {
		meta += " escalated"
	}
	if result.Revised {
		meta += " revised"
	}
	if result.IntentShifted {
		meta += " intent-shifted"
	}
	meta += "]"

	_, err := fmt.Fprintln(w, meta)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func labelOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
