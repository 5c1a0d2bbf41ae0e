package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions, factory RuntimeFactory) *cobra.Command {
	return &cobra.Command{
		Use:           "provision",
		Short:         "Create the interface interaction type on the platform if missing",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), rootOpts.Timeout)
			defer cancel()

			runtime, err := factory(ctx)
			if err != nil {
				return err
			}
			defer runtime.Close()

			if err := runtime.Provisioner.EnsureProvisioned(ctx); err != nil {
				return fmt.Errorf("provision: %w", err)
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"interactionTypeKey": runtime.InteractionTypeKey,
					"status":             "ready",
				})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "interaction type %q ready\n", runtime.InteractionTypeKey)
			return err
		},
	}
}
