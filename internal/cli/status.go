package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print every stored key",
		Args:  cobra.NoArgs,
		RunE:  a.runStatus,
	}
}

func (a *app) runStatus(cmd *cobra.Command, args []string) error {
	backend, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.detach(backend)

	entries, err := backend.All()
	if err != nil {
		return sysError("read store: %w", err)
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, key := range slices.Sorted(maps.Keys(entries)) {
		fmt.Fprintf(out, "%s=%s\n", key, entries[key])
	}
	return nil
}
