package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/drawer"
)

func newGraphCommand(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:       "graph {build|dist}",
		Short:     "Print the composed pipeline as a DOT graph without running it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"build", "dist"},
		RunE: func(cmd *cobra.Command, args []string) error {
			task, ok := tasks[args[0]]
			if !ok {
				return errors.Errorf("unknown pipeline %q (expected build or dist)", args[0])
			}
			cfg, err := loadConfig(root.v, root.configFile)
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			dotDrawer := drawer.NewDOTDrawer(fs, output)
			_, err = pipeline.Compose(args[0], task.New(cfg), pipeline.WithOption(drawer.PipelineDrawer(dotDrawer, nil)))
			if err != nil {
				return err
			}
			if output != "" {
				return dotDrawer.Draw()
			}

			return dotDrawer.Render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the graph to this file instead of stdout")

	return cmd
}
