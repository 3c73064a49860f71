package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <key>",
		Short: "Resolve one key and print its value",
		Long: `Resolve a key through its rules, newest first, and print the first
non-empty value. A key with no rules fails and lists the known keys.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(rootOpts)
			if err != nil {
				return err
			}
			v, err := a.Get(args[0])
			if err != nil {
				return err
			}
			return writeValue(cmd.OutOrStdout(), rootOpts.Format, args[0], v)
		},
	}
}

type resolved struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

func writeValue(w io.Writer, format, key string, v any) error {
	out := resolved{Key: key, Type: fmt.Sprintf("%T", v), Value: fmt.Sprintf("%v", v)}
	if v == nil {
		out.Value = ""
	}
	if format == "json" {
		return json.NewEncoder(w).Encode(out)
	}
	_, err := fmt.Fprintln(w, out.Value)
	return err
}
