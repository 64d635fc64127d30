package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	filestore "github.com/bnema/helpdesk-agent/internal/adapters/secrets/file"
	"github.com/spf13/cobra"
)

func newSecretCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage API keys in the secret store",
		Long: "Secrets resolve from HDA_* environment variables first and fall back to one file per key " +
			"under secrets_dir. set and remove only touch the file store.",
	}

	cmd.AddCommand(newSecretSetCmd(opts), newSecretRemoveCmd(opts), newSecretListCmd(opts))

	return cmd
}

func newSecretSetCmd(opts *rootOptions) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret, e.g. reasoning_api_key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("secret value for %q is empty", args[0])
			}

			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			if err := newSecretStore(cfg).Put(cmd.Context(), args[0], value); err != nil {
				return fmt.Errorf("store secret %q: %w", args[0], err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", args[0])
			return err
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Secret value")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newSecretRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			if err := newSecretStore(cfg).Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("remove secret %q: %w", args[0], err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return err
		},
	}
}

func newSecretListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored secret keys and where each one resolves from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}

			keys, err := filestore.NewStore(cfg.SecretsDir).Keys(cmd.Context())
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no stored secrets")
				return err
			}

			secrets := newSecretStore(cfg)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, key := range keys {
				_, source, err := secrets.Lookup(cmd.Context(), key)
				if err != nil {
					source = "unreadable"
				}
				fmt.Fprintf(w, "%s\t%s\n", key, source)
			}

			return w.Flush()
		},
	}
}
