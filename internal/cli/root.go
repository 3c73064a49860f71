package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-inject/framework/app"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFiles   []string
	ValuesFile string
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the inject CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "inject",
		Short:         "Resolve keys through an ordered rule injector",
		Long:          "Boot the application injector from .env files and seed values, then serve it over HTTP or query it.",
		Version:       app.Version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env", nil, ".env files to load (default .env)")
	cmd.PersistentFlags().StringVar(&opts.ValuesFile, "values", "", "YAML file of seed values")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))

	return cmd
}

// boot builds and boots the application for a command.
func boot(opts *RootOptions) (*app.Application, error) {
	a, err := app.New(app.Options{EnvFiles: opts.EnvFiles, ValuesFile: opts.ValuesFile})
	if err != nil {
		return nil, err
	}
	if err := a.Boot(); err != nil {
		return nil, err
	}
	return a, nil
}
