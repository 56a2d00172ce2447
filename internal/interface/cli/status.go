package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roleflow/roleflow/internal/app/journal"
	"github.com/roleflow/roleflow/internal/app/state"
	"github.com/roleflow/roleflow/internal/domain/plan"
	"github.com/roleflow/roleflow/internal/infra/artifact"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted run state and plan progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()
			paths, cfg, err := loadConfig(fsys)
			if err != nil {
				return err
			}

			st, err := state.Load(fsys, paths.State)
			if errors.Is(err, state.ErrNoState) {
				fmt.Fprintln(cmd.OutOrStdout(), "no run state; start one with `roleflow run`")
				return nil
			}
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "run:     %s\n", st.RunID)
			fmt.Fprintf(w, "role:    %s\n", st.CurrentRole)
			fmt.Fprintf(w, "cycle:   %d\n", st.CycleIndex)
			if st.ActiveStepID != "" {
				fmt.Fprintf(w, "step:    %s\n", st.ActiveStepID)
			}
			if st.ReplanRequired {
				fmt.Fprintln(w, "replan:  requested")
			}
			if st.Terminal {
				fmt.Fprintf(w, "halted:  %s\n", st.TerminalReason)
			}

			store := artifact.NewStore(fsys, cfg.WorkDir())
			planText, err := store.Read(artifact.PlanFile)
			if err == nil {
				steps := plan.Parse(planText)
				done := 0
				for _, s := range steps {
					if s.Status == plan.StatusDone {
						done++
					}
				}
				if len(steps) > 0 {
					fmt.Fprintf(w, "plan:    %d/%d steps done\n", done, len(steps))
				}
			}

			entries, err := journal.ReadTail(fsys, paths.Journal, 1)
			if err == nil && len(entries) > 0 {
				last := entries[len(entries)-1]
				fmt.Fprintf(w, "last:    %s %s -> %s", last.TS, last.Role, last.Decision)
				if last.Reason != "" {
					fmt.Fprintf(w, " (%s)", last.Reason)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw state record as JSON")
	return cmd
}
