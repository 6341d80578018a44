package babel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
	"github.com/askiada/go-assetpipe/pkg/transforms/babel"
)

func run(t *testing.T, opts babel.Options, file *model.File) (*model.File, error) {
	t.Helper()

	tr, err := babel.Transpile(opts)
	require.NoError(t, err)

	in := make(chan *model.File, 1)
	in <- file
	close(in)
	out := make(chan *model.File, 1)
	err = tr.Apply(context.Background(), in, out)
	close(out)

	return <-out, err
}

func TestTranspile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts        babel.Options
		in          *model.File
		wantPath    string
		contains    string
		notContains string
	}{
		"es5 target": {
			opts:        babel.Options{Target: "es5"},
			in:          model.NewFile("js/app.js", []byte("var f = function(a) { return a * 2; };\n")),
			wantPath:    "js/app.js",
			contains:    "function",
			notContains: "=>",
		},
		"typescript": {
			in:          model.NewFile("js/app.ts", []byte("const a: number = 1;\nexport { a };\n")),
			wantPath:    "js/app.js",
			contains:    "const a = 1",
			notContains: ": number",
		},
		"commonjs": {
			opts:     babel.Options{Format: "cjs"},
			in:       model.NewFile("lib.js", []byte("export const a = 1;\n")),
			wantPath: "lib.js",
			contains: "module.exports",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := run(t, tt.opts, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Contains(t, string(got.Contents), tt.contains)
			if tt.notContains != "" {
				assert.NotContains(t, string(got.Contents), tt.notContains)
			}
		})
	}
}

func TestTranspileSourceMap(t *testing.T) {
	t.Parallel()

	file := model.NewFile("app.js", []byte("export const a = 1;\n"))
	file.SourceMap = []byte(`{"version":3}`)

	got, err := run(t, babel.Options{}, file)
	require.NoError(t, err)
	assert.Contains(t, string(got.SourceMap), `"sources"`)
	assert.Contains(t, string(got.SourceMap), "app.js")
}

func TestTranspileSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := run(t, babel.Options{}, model.NewFile("broken.js", []byte("var = ;")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.js")
}

func TestTranspileUnsupported(t *testing.T) {
	t.Parallel()

	_, err := babel.Transpile(babel.Options{Format: "system"})
	require.ErrorIs(t, err, babel.ErrUnsupported)
}
