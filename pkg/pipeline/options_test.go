package pipeline_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/drawer"
	"github.com/askiada/go-assetpipe/pkg/pipeline/measure"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

func TestMeasureAndDrawer(t *testing.T) {
	t.Parallel()

	stage := pipeline.Define("build", func(b *pipeline.Builder, _ noOptions) error {
		b.Filter(pipeline.MustGlob("*.css")).Pipe(suffix("min", "!"))
		b.Pipe(suffix("js", "?"))

		return nil
	})

	fs := afero.NewMemMapFs()
	msr := measure.NewDefaultMeasure()
	pipe, err := pipeline.Compose("test", stage.Default(),
		pipeline.WithInput(createFiles(t, "a.css", "b.js", "c.js")...),
		pipeline.WithOption(
			measure.PipelineMeasure(msr),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(fs, "graph.dot"), msr),
		),
	)
	require.NoError(t, err)
	require.NoError(t, pipe.Run(context.Background()))

	metrics := msr.AllMetrics()
	assert.Len(t, metrics, len(pipe.Nodes()))
	assert.Equal(t, int64(3), metrics[model.EndNode.ID].Total())
	for _, node := range pipe.Nodes() {
		switch node.Name {
		case "min":
			assert.Equal(t, int64(1), metrics[node.ID].Total())
		case "js":
			assert.Equal(t, int64(2), metrics[node.ID].Total())
		}
	}

	content, err := afero.ReadFile(fs, "graph.dot")
	require.NoError(t, err)
	assert.Contains(t, string(content), "strict digraph")
	assert.Contains(t, string(content), `rankdir="LR"`)
	assert.Contains(t, string(content), "files: 3")
	assert.Contains(t, string(content), `"start" -> "build/filter#1"`)
}

func TestDrawerWithoutMeasure(t *testing.T) {
	t.Parallel()

	stage := pipeline.Define("dist", func(b *pipeline.Builder, _ noOptions) error {
		b.Copy(pipeline.MustGlob("*.css"))

		return nil
	})

	fs := afero.NewMemMapFs()
	pipe, err := pipeline.Compose("test", stage.Default(),
		pipeline.WithOption(drawer.PipelineDrawer(drawer.NewDOTDrawer(fs, "graph.dot"), nil)),
	)
	require.NoError(t, err)
	require.NoError(t, pipe.Run(context.Background()))

	content, err := afero.ReadFile(fs, "graph.dot")
	require.NoError(t, err)
	assert.Contains(t, string(content), `shape="hexagon"`)
	assert.Contains(t, string(content), `shape="point"`)
	assert.NotContains(t, string(content), "files:")
}
