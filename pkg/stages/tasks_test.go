package stages_test

import (
	"context"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/stages"
)

func runTask(t *testing.T, task *pipeline.Instance) {
	t.Helper()

	p, err := pipeline.Compose("task", task)
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, p.Handled())
}

func TestBuildThenDistTasks(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	sources := map[string]string{
		"src/styles/app.scss":   "a{}",
		"src/styles/_vars.scss": "$a: 1;",
		"src/js/app.js":         "export const a = 1;\n",
		"src/vendor/a.woff":     "font",
	}
	for p, c := range sources {
		require.NoError(t, afero.WriteFile(fs, p, []byte(c), 0o644))
	}
	cfg := stages.Config{Fs: fs, Compiler: stubCompiler{}}

	runTask(t, stages.BuildTask.New(cfg))

	for _, p := range []string{".tmp/styles/app.css", ".tmp/styles/app.css.map", ".tmp/js/app.js", ".tmp/js/app.js.map", ".tmp/fonts/a.woff"} {
		ok, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
	for _, p := range []string{".tmp/styles/app.scss", ".tmp/styles/_vars.scss", ".tmp/styles/_vars.css"} {
		ok, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.False(t, ok, p)
	}

	runTask(t, stages.DistTask.New(cfg))

	raw, err := afero.ReadFile(fs, "dist/rev-manifest.json")
	require.NoError(t, err)
	manifest := map[string]string{}
	require.NoError(t, jsoniter.Unmarshal(raw, &manifest))
	require.Contains(t, manifest, "styles/app.css")
	require.Contains(t, manifest, "styles/app.min.css")
	require.Contains(t, manifest, "js/app.js")

	for _, revved := range manifest {
		ok, err := afero.Exists(fs, "dist/"+revved)
		require.NoError(t, err)
		assert.True(t, ok, revved)
	}
	ok, err := afero.Exists(fs, "dist/"+manifest["styles/app.css"]+".map")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = afero.Exists(fs, "dist/styles/app.css")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildTaskRemovesStaleFiles(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "src/fonts/a.woff", []byte("font"), 0o644))
	require.NoError(t, afero.WriteFile(fs, ".tmp/fonts/removed.woff", []byte("old"), 0o644))

	runTask(t, stages.BuildTask.New(stages.Config{Fs: fs, Compiler: stubCompiler{}}))

	ok, err := afero.Exists(fs, ".tmp/fonts/a.woff")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = afero.Exists(fs, ".tmp/fonts/removed.woff")
	require.NoError(t, err)
	assert.False(t, ok)
}
