// Package cli wires the cobra command tree. Commands stay thin: they load
// configuration, build the dependencies, and delegate to the use case layer.
package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roleflow/roleflow/internal/app"
	appconfig "github.com/roleflow/roleflow/internal/app/config"
	"github.com/roleflow/roleflow/internal/buildinfo"
	infraconfig "github.com/roleflow/roleflow/internal/infra/config"
)

// NewRootCmd creates the root command with all subcommands
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "roleflow",
		Version:       buildinfo.GetVersion(),
		Short:         "Resumable role-cycling orchestrator for an external agent CLI",
		Long:          "roleflow cycles planner, architect, developer, reviewer, tester and compliance\nroles over a shared workspace, parsing each role's status markers to decide the\nnext transition. State persists after every cycle, so a stopped run resumes\nexactly where it left off.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// loadConfig resolves the home layout and the effective configuration
func loadConfig(fsys afero.Fs) (app.Paths, appconfig.Config, error) {
	paths := app.ResolvePaths()
	cfg, err := infraconfig.LoadSettings(fsys, paths.Home)
	if err != nil {
		return paths, nil, err
	}
	return paths, cfg, nil
}
