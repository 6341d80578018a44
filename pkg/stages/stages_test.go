package stages_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
	"github.com/askiada/go-assetpipe/pkg/stages"
	"github.com/askiada/go-assetpipe/pkg/transforms/autoprefix"
	"github.com/askiada/go-assetpipe/pkg/transforms/sass"
	"github.com/askiada/go-assetpipe/pkg/transforms/sourcemaps"
)

type stubCompiler struct{}

func (stubCompiler) Compile(file *model.File, _ sass.Options, withSourceMap bool) (sass.Result, error) {
	res := sass.Result{CSS: []byte("a{color:red}\n")}
	if withSourceMap {
		res.SourceMap = []byte(`{"version":3,"sources":["` + file.Basename() + `"],"names":[],"mappings":"AAAA"}`)
	}

	return res, nil
}

func run(t *testing.T, root *pipeline.Instance, files ...*model.File) map[string]*model.File {
	t.Helper()

	var mu sync.Mutex
	got := map[string]*model.File{}
	p, err := pipeline.Compose("test", root,
		pipeline.WithInput(files...),
		pipeline.WithSink(func(_ context.Context, file *model.File) error {
			mu.Lock()
			defer mu.Unlock()
			got[file.Path] = file

			return nil
		}),
	)
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, p.Handled())

	return got
}

func keys(files map[string]*model.File) []string {
	res := make([]string, 0, len(files))
	for k := range files {
		res = append(res, k)
	}
	sort.Strings(res)

	return res
}

func contents(files map[string]*model.File) map[string]string {
	res := make(map[string]string, len(files))
	for k, f := range files {
		res[k] = string(f.Contents)
	}

	return res
}

func TestBuildCompilesStylesWithLegacy(t *testing.T) {
	t.Parallel()

	cfg := stages.Config{
		Legacy:   true,
		Filters:  stages.Filters{Sass: []string{"**/*.scss"}},
		Compiler: stubCompiler{},
	}
	got := run(t, stages.Build.New(cfg), model.NewFile("styles/app.scss", []byte("$c: red; a{color:$c}")))

	assert.Equal(t, []string{"styles/app-legacy.css", "styles/app.css", "styles/app.css.map"}, keys(got))
	assert.Equal(t, "a{color:red}\n/*# sourceMappingURL=app.css.map */\n", string(got["styles/app.css"].Contents))
	assert.NotContains(t, string(got["styles/app-legacy.css"].Contents), "sourceMappingURL")
	assert.Nil(t, got["styles/app-legacy.css"].SourceMap)
}

func TestBuildWithoutLegacyMatchesBuildWithoutTheStage(t *testing.T) {
	t.Parallel()

	withoutLegacy := pipeline.Define("build", func(b *pipeline.Builder, cfg stages.Config) error {
		cfg, err := cfg.WithDefaults()
		if err != nil {
			return err
		}
		b.Pipe(stages.Babel.New(stages.BabelOptions{Filter: cfg.Filters.Babel, Babel: cfg.Babel})).
			Pipe(stages.Styles.New(stages.StylesOptions{
				Filter:   cfg.Filters.Sass,
				Sass:     cfg.Sass,
				Compiler: cfg.Compiler,
			})).
			Pipe(stages.Fonts.Default())

		return nil
	})
	input := func() []*model.File {
		return []*model.File{
			model.NewFile("styles/app.scss", []byte("a{}")),
			model.NewFile("vendor/icons/a.woff", []byte("font")),
			model.NewFile("readme.txt", []byte("hello")),
		}
	}
	cfg := stages.Config{Compiler: stubCompiler{}}

	got := run(t, stages.Build.New(cfg), input()...)
	want := run(t, withoutLegacy.New(cfg), input()...)

	assert.Equal(t, contents(want), contents(got))
	assert.Equal(t, []string{"fonts/a.woff", "readme.txt", "styles/app.css", "styles/app.css.map"}, keys(got))
}

func TestLegacyAndOptimizeBothReceiveEveryStylesheet(t *testing.T) {
	t.Parallel()

	root := pipeline.Define("root", func(b *pipeline.Builder, _ struct{}) error {
		b.Pipe(stages.Legacy.Default()).Pipe(stages.Optimize.Default())

		return nil
	})
	got := run(t, root.Default(),
		model.NewFile("a.css", []byte("a { color: red; }")),
		model.NewFile("b.css", []byte("b { color: blue; }")),
	)

	assert.Equal(t, []string{
		"a-legacy.css", "a.css", "a.min.css", "a.min.css.map",
		"b-legacy.css", "b.css", "b.min.css", "b.min.css.map",
	}, keys(got))
	assert.Equal(t, "a { color: red; }", string(got["a.css"].Contents))
	assert.Equal(t, "a{color:red}", string(got["a-legacy.css"].Contents))
}

func TestStageOptionsAreIsolated(t *testing.T) {
	t.Parallel()

	root := pipeline.Define("root", func(b *pipeline.Builder, _ struct{}) error {
		b.Pipe(stages.Fonts.New(stages.FontsOptions{Dirname: "first"}))
		b.Pipe(stages.Fonts.New(stages.FontsOptions{Dirname: "second"}))

		return nil
	})
	got := run(t, root.Default(), model.NewFile("x/a.woff", nil))

	assert.Equal(t, []string{"second/a.woff"}, keys(got))
	assert.Equal(t, []string{"x/a.woff", "first/a.woff"}, got["second/a.woff"].History)
}

func TestPreprocess(t *testing.T) {
	t.Parallel()

	opts := stagesPreprocess(map[string]interface{}{"API": "prod"})
	got := run(t, stages.Preprocess.New(opts),
		model.NewFile("js/config.js", []byte(`var api = "{{ .API }}";`)),
		model.NewFile("index.html", []byte(`<p>{{ .API }}</p>`)),
		model.NewFile("raw.txt", []byte(`{{ .API }}`)),
	)

	assert.Equal(t, `var api = "prod";`, string(got["js/config.js"].Contents))
	assert.Equal(t, `<p>prod</p>`, string(got["index.html"].Contents))
	assert.Equal(t, `{{ .API }}`, string(got["raw.txt"].Contents))
}

func TestComposeErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]*pipeline.Instance{
		"preprocess without filter": stages.Preprocess.Default(),
		"babel without filter":      stages.Babel.Default(),
		"diffmerge without dest":    stages.DiffMerge.Default(),
		"rev with invalid glob":     stages.Rev.New(stages.RevOptions{Filter: []string{"[a"}}),
		"styles with bad command":   stages.Styles.New(stages.StylesOptions{Filter: []string{"*.scss"}, Autoprefixer: autoprefixBadCommand()}),
	}

	for name, inst := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := pipeline.Compose("test", inst)
			assert.Error(t, err)
		})
	}
}

func TestDiffMerge(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "dist/css/same.css", []byte("same"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "dist/css/old.css", []byte("old"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "dist/notes/keep.md", []byte("keep"), 0o644))

	got := run(t, stages.DiffMerge.New(stages.DiffMergeOptions{Dest: "dist", Filter: []string{"css"}, Fs: fs}),
		model.NewFile("css/same.css", []byte("same")),
		model.NewFile("css/new.css", []byte("new")),
		model.NewFile("LICENSE", []byte("mit")),
	)
	assert.Equal(t, []string{"css/new.css"}, keys(got))

	tests := map[string]bool{
		"dist/css/same.css":  true,
		"dist/css/new.css":   true,
		"dist/css/old.css":   false,
		"dist/LICENSE":       false,
		"dist/notes/keep.md": true,
	}
	for p, want := range tests {
		ok, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.Equal(t, want, ok, p)
	}
}

func TestStylesWarnsWithoutAutoprefixer(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		command string
		want    int
	}{
		"no command":    {want: 1},
		"blank command": {command: "  ", want: 1},
		"command":       {command: "cat", want: 0},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.WarnLevel)
			_, err := pipeline.Compose("test", stages.Styles.New(stages.StylesOptions{
				Filter:       []string{"**/*.scss"},
				Autoprefixer: autoprefix.Options{Command: tc.command},
				Compiler:     stubCompiler{},
			}), pipeline.WithLogger(zap.New(core)))
			require.NoError(t, err)

			assert.Equal(t, tc.want, logs.FilterMessage("no autoprefixer command configured, stylesheets are not prefixed").Len())
		})
	}
}

func TestOptimizeLoadsSiblingMaps(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "tmp/styles/app.css.map",
		[]byte(`{"version":3,"sources":["app.scss"],"names":[],"mappings":"AAAA"}`), 0o644))
	file := model.NewFile("styles/app.css", []byte("a { color: red; }\n/*# sourceMappingURL=app.css.map */\n"))
	file.Base = "tmp"

	got := run(t, stages.Optimize.New(stages.OptimizeOptions{Fs: fs}), file)

	require.Contains(t, got, "styles/app.min.css.map")
	m, err := sourcemaps.Parse(got["styles/app.min.css.map"].Contents)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.scss"}, m.Sources)
	assert.Contains(t, string(got["styles/app.min.css"].Contents), "sourceMappingURL=app.min.css.map")
	assert.NotContains(t, string(got["styles/app.min.css"].Contents), "app.css.map")
}
