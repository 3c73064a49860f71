package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-inject/framework/injector"
)

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "keys",
		Short:        "List registered keys and their rule identifiers",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(rootOpts)
			if err != nil {
				return err
			}
			return writeKeys(cmd.OutOrStdout(), rootOpts.Format, a.Injector)
		},
	}
}

type keyEntry struct {
	Key   string   `json:"key"`
	Rules []string `json:"rules"`
}

func writeKeys(w io.Writer, format string, inj *injector.Injector) error {
	entries := make([]keyEntry, 0)
	for _, key := range inj.Keys() {
		e := keyEntry{Key: key, Rules: []string{}}
		for _, r := range inj.Rules(key) {
			e.Rules = append(e.Rules, r.Identifier())
		}
		entries = append(entries, e)
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%v\n", e.Key, e.Rules)
	}
	return nil
}
