package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engage/internal/engagement"
)

func newShareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "share accept|decline|dismiss",
		Short:     "Record the response to the share prompt",
		Long:      "Record the user's answer to the share prompt. Accepting or declining stops\nthe prompt permanently; dismissing leaves eligibility unchanged.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"accept", "decline", "dismiss"},
		RunE:      a.runShare,
	}
}

func (a *app) runShare(cmd *cobra.Command, args []string) error {
	outcome, err := engagement.ParseOutcome(args[0])
	if err != nil {
		return userError("%w", err)
	}

	backend, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.detach(backend)

	reg, m, err := newMetrics()
	if err != nil {
		return err
	}
	engagement.NewRecorder(backend, engagement.WithLogger(a.logger), engagement.WithMetrics(m)).Record(outcome)
	if err := a.exportMetrics(reg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return json.NewEncoder(out).Encode(map[string]string{"outcome": outcome.String()})
	}
	fmt.Fprintln(out, "share response recorded:", outcome)
	return nil
}
