package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/askiada/go-assetpipe/internal/logging"
	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/drawer"
	"github.com/askiada/go-assetpipe/pkg/pipeline/measure"
	"github.com/askiada/go-assetpipe/pkg/stages"
)

var tasks = map[string]*pipeline.Stage[stages.Config]{
	"build": stages.BuildTask,
	"dist":  stages.DistTask,
}

type runOptions struct {
	graphOut string
}

func newTaskCommand(root *rootOptions, name, short string) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTask(cmd.Context(), cmd.OutOrStdout(), root, opts, name)
		},
	}
	cmd.Flags().StringVar(&opts.graphOut, "graph-out", "", "Write the pipeline graph annotated with timings to this DOT file")

	return cmd
}

func newBuildCommand(root *rootOptions) *cobra.Command {
	return newTaskCommand(root, "build", "Compile the sources into the temporary directory")
}

func newDistCommand(root *rootOptions) *cobra.Command {
	return newTaskCommand(root, "dist", "Optimise and revision the temporary directory into the distribution directory")
}

func runTask(ctx context.Context, out io.Writer, root *rootOptions, opts *runOptions, name string) error {
	logger, err := logging.New(root.logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := loadConfig(root.v, root.configFile)
	if err != nil {
		return err
	}

	pipeOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if opts.graphOut != "" {
		msr := measure.NewDefaultMeasure()
		pipeOpts = append(pipeOpts, pipeline.WithOption(
			measure.PipelineMeasure(msr),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(afero.NewOsFs(), opts.graphOut), msr),
		))
	}

	start := time.Now()
	pipe, err := pipeline.Compose(name, tasks[name].New(cfg), pipeOpts...)
	if err != nil {
		return err
	}
	logger.Debug("running pipeline", zap.String("pipeline", name), zap.Int("nodes", len(pipe.Nodes())))

	err = pipe.Run(ctx)
	if err != nil {
		fmt.Fprintf(out, "%s %s failed after %s\n", color.RedString("✗"), name, time.Since(start).Round(time.Millisecond))

		return err
	}
	if handled := pipe.Handled(); handled != nil {
		fmt.Fprintf(out, "%s %s finished in %s, %d branch(es) ended on error\n",
			color.YellowString("!"), name, time.Since(start).Round(time.Millisecond), len(multierr.Errors(handled)))

		return nil
	}
	fmt.Fprintf(out, "%s %s finished in %s\n", color.GreenString("✓"), name, time.Since(start).Round(time.Millisecond))

	return nil
}
