// Package cli implements the myndigheter command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/myndigheter/config"
	"github.com/Ramsey-B/myndigheter/internal/app"
	"github.com/Ramsey-B/myndigheter/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string
	Format  string // "json" | "yaml"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"json", "yaml"}

// NewRootCommand creates the root command for the myndigheter CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "myndigheter",
		Short: "Swedish government agency data service",
		Long: `Fetches the published agency documents, merges them into one compact
record per agency, caches the raw documents and serves the records over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "env file to load before reading the environment (default .env)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|yaml)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}

// newApp loads config and a logger and wires the service. The returned func
// flushes the logger.
func newApp(opts *RootOptions) (*app.App, func(), error) {
	var envFiles []string
	if opts.EnvFile != "" {
		envFiles = append(envFiles, opts.EnvFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, err
	}

	logger, flush, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return nil, nil, err
	}

	return app.New(cfg, logger), flush, nil
}

// withApp starts the service dependencies around fn
func withApp(ctx context.Context, opts *RootOptions, fn func(ctx context.Context, a *app.App) error) error {
	a, flush, err := newApp(opts)
	if err != nil {
		return err
	}
	defer flush()

	if err := a.Start(ctx); err != nil {
		_ = a.Stop(context.Background())
		return err
	}
	defer func() {
		_ = a.Stop(context.Background())
	}()

	return fn(ctx, a)
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}
