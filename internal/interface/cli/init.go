package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roleflow/roleflow/internal/app"
	"github.com/roleflow/roleflow/internal/app/workflow"
	"github.com/roleflow/roleflow/internal/infra/fs"
)

const briefTemplate = `# Brief

## Idea
(describe what should be built)

## Guidelines
(constraints, stack preferences, quality bars)

## Role Preferences
(optional per-role instructions)
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the home directory and seed a brief template",
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()
			paths := app.ResolvePaths()

			for _, dir := range []string{paths.Etc, paths.Var} {
				if err := fsys.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
			}

			if ok, _ := afero.Exists(fsys, paths.Workflow); !ok {
				seed, err := workflow.Seed()
				if err != nil {
					return err
				}
				if err := fs.WriteFileAtomic(fsys, paths.Workflow, seed); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", paths.Workflow)
			}

			_, cfg, err := loadConfig(fsys)
			if err != nil {
				return err
			}
			briefPath := cfg.BriefFile()
			if !filepath.IsAbs(briefPath) {
				briefPath = filepath.Join(cfg.WorkDir(), briefPath)
			}
			if ok, _ := afero.Exists(fsys, briefPath); !ok {
				if err := fs.WriteFileAtomic(fsys, briefPath, []byte(briefTemplate)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", briefPath)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", paths.Home)
			return nil
		},
	}
}
