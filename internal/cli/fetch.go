package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/myndigheter/internal/app"
	"github.com/Ramsey-B/myndigheter/pkg/dataset"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	Force    bool
	Progress bool
	Output   string
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Load the agency records once and print them",
		Long: `Load the agency records through the cache and print them.

A fresh cache entry is used unless --force is given. --progress reports the
loading stages on stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(ctx context.Context, a *app.App) error {
				return runFetch(ctx, a, rootOpts, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "clear the cache and refetch from upstream")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "report progress on stderr")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write records to a file instead of stdout")

	return cmd
}

func runFetch(ctx context.Context, a *app.App, rootOpts *RootOptions, opts *FetchOptions, stdout, stderr io.Writer) error {
	var (
		result *dataset.Result
		err    error
	)
	if opts.Progress {
		result, err = a.Dataset.LoadWithProgress(ctx, opts.Force, func(percent int, message string) {
			fmt.Fprintf(stderr, "[%3d%%] %s\n", percent, message)
		})
	} else {
		result, err = a.Dataset.Load(ctx, opts.Force)
	}
	if err != nil {
		return err
	}

	out := stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.Output, err)
		}
		defer f.Close()
		out = f
	}

	if err := writeOutput(out, rootOpts.Format, result.Records); err != nil {
		return err
	}

	source := "upstream"
	if result.FromCache {
		source = "cache"
	}
	fmt.Fprintf(stderr, "%d agencies loaded from %s\n", len(result.Records), source)
	return nil
}
