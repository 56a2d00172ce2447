package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roleflow/roleflow/internal/app"
	"github.com/roleflow/roleflow/internal/app/state"
	"github.com/roleflow/roleflow/internal/interface/external/agentcli"
	"github.com/roleflow/roleflow/internal/usecase/orchestrator"
)

// ExitError carries the terminal reason of a halted run so main can map it
// to a distinct process exit code.
type ExitError struct {
	Reason state.TerminalReason
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("run halted: %s", e.Reason)
}

// Code returns the process exit code for the terminal reason
func (e *ExitError) Code() int {
	return e.Reason.ExitCode()
}

func newRunCmd() *cobra.Command {
	var workDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the workflow until it reaches a terminal state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if workDir != "" {
				// Highest-priority override short of setting.json
				os.Setenv("ROLEFLOW_WORKDIR", workDir)
			}

			fsys := afero.NewOsFs()
			paths, cfg, err := loadConfig(fsys)
			if err != nil {
				return err
			}

			log := app.GetLogger()
			log.Info("config source: %s, workdir: %s, agent: %s",
				cfg.ConfigSource(), cfg.WorkDir(), cfg.AgentBin())

			// Ctrl-C cancels the context; the scheduler records USER_STOP and
			// the runner tears down the agent's process group.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := &agentcli.Runner{
				Bin:          cfg.AgentBin(),
				BaseArgs:     cfg.AgentArgs(),
				IdleTimeout:  cfg.IdleTimeout(),
				RepeatWindow: cfg.RepeatWindow(),
				RepeatLimit:  cfg.RepeatLimit(),
				Logf:         log.Info,
			}

			sched := orchestrator.New(fsys, cfg, runner, paths, log)
			reason, err := sched.Run(ctx)
			if err != nil {
				return err
			}
			if reason != state.ReasonComplete {
				return &ExitError{Reason: reason}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workDir, "workdir", "w", "", "workspace directory the roles operate on")
	return cmd
}
