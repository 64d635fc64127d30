package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	tracerender "github.com/bnema/helpdesk-agent/internal/adapters/render/trace"
	"github.com/bnema/helpdesk-agent/internal/application"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const chatHelp = "Type a message and press enter. Commands: /trace, /reset, /help, /quit"

func newChatCmd(opts *rootOptions) *cobra.Command {
	var customer customerFlags
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant as a customer",
		Long: "chat starts a session (or resumes one with --session) and reads customer messages from stdin. " +
			"/reset restores the mock commerce seed data when commerce.mode is mock.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app) error {
				if sessionID == "" {
					if customer.email == "" || customer.firstName == "" {
						return fmt.Errorf("--email and --first-name are required to start a new session")
					}
					id, err := a.orchestrator.StartSession(cmd.Context(), customer.command())
					if err != nil {
						return err
					}
					sessionID = id
				}

				return runChat(cmd, a, sessionID)
			})
		},
	}

	cmd.Flags().StringVar(&customer.email, "email", "", "Customer email")
	cmd.Flags().StringVar(&customer.firstName, "first-name", "", "Customer first name")
	cmd.Flags().StringVar(&customer.lastName, "last-name", "", "Customer last name")
	cmd.Flags().StringVar(&customer.customerID, "customer-id", "", "Commerce customer id")
	cmd.Flags().StringVar(&sessionID, "session", "", "Resume an existing session")

	return cmd
}

type chatPalette struct {
	prompt *color.Color
	agent  *color.Color
	meta   *color.Color
	warn   *color.Color
}

func newChatPalette() chatPalette {
	return chatPalette{
		prompt: color.New(color.FgCyan, color.Bold),
		agent:  color.New(color.FgHiMagenta, color.Bold),
		meta:   color.New(color.FgHiBlack),
		warn:   color.New(color.FgYellow),
	}
}

func runChat(cmd *cobra.Command, a *app, sessionID string) error {
	out := cmd.OutOrStdout()
	p := newChatPalette()
	agentName := a.cfg.Persona.AgentName

	_, _ = fmt.Fprintf(out, "%s %s\n", p.meta.Sprint("session"), sessionID)
	_, _ = fmt.Fprintln(out, p.meta.Sprint(chatHelp))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		_, _ = fmt.Fprint(out, p.prompt.Sprint("you> "))
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			_, _ = fmt.Fprintln(out, p.meta.Sprint(chatHelp))
			continue
		case "/trace":
			trace, err := a.orchestrator.GetTrace(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, tracerender.Trace(trace, tracerender.RenderOptions{Now: time.Now()}))
			continue
		case "/reset":
			if a.mockCommerce == nil {
				_, _ = fmt.Fprintln(out, p.warn.Sprint("reset is only available with the mock commerce backend"))
				continue
			}
			a.mockCommerce.Reset()
			_, _ = fmt.Fprintln(out, p.meta.Sprint("mock commerce data restored"))
			continue
		}

		result, err := a.orchestrator.SendMessage(cmd.Context(), application.SendMessageCommand{
			SessionID: sessionID,
			Message:   line,
		})
		if err != nil {
			return err
		}
		writeChatTurn(out, p, agentName, result)
	}
}

func writeChatTurn(out io.Writer, p chatPalette, agentName string, result application.TurnResult) {
	_, _ = fmt.Fprintf(out, "%s %s\n", p.agent.Sprintf("%s>", strings.ToLower(agentName)), result.Response)

	meta := []string{labelOrDash(string(result.Agent))}
	if result.Intent != "" {
		meta = append(meta, fmt.Sprintf("%s %d%%", result.Intent, result.IntentConfidence))
	}
	if len(result.ActionsTaken) > 0 {
		meta = append(meta, "actions: "+strings.Join(result.ActionsTaken, "; "))
	}
	_, _ = fmt.Fprintln(out, p.meta.Sprint("  "+strings.Join(meta, " | ")))

	if result.Escalated {
		_, _ = fmt.Fprintln(out, p.warn.Sprint("  conversation escalated to a human"))
	}
}
