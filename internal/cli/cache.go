package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/myndigheter/internal/app"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the document cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Describe the cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(ctx context.Context, a *app.App) error {
				return writeOutput(cmd.OutOrStdout(), rootOpts.Format, a.Store.Info(ctx))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(ctx context.Context, a *app.App) error {
				a.Store.Clear(ctx)
				fmt.Fprintln(cmd.ErrOrStderr(), "cache cleared")
				return nil
			})
		},
	})

	return cmd
}
