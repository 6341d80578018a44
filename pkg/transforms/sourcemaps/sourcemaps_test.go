package sourcemaps_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
	"github.com/askiada/go-assetpipe/pkg/transforms/sourcemaps"
)

func apply(t *testing.T, tr pipeline.Transform, files ...*model.File) []*model.File {
	t.Helper()

	in := make(chan *model.File, len(files))
	for _, f := range files {
		in <- f
	}
	close(in)
	out := make(chan *model.File, 10)
	require.NoError(t, tr.Apply(context.Background(), in, out))
	close(out)

	res := []*model.File{}
	for f := range out {
		res = append(res, f)
	}

	return res
}

func TestStripComment(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in      string
		wantOut string
		wantURL string
	}{
		"css": {
			in:      "a{}\n/*# sourceMappingURL=app.css.map */\n",
			wantOut: "a{}\n",
			wantURL: "app.css.map",
		},
		"js": {
			in:      "var a;\n//# sourceMappingURL=app.js.map\n",
			wantOut: "var a;\n",
			wantURL: "app.js.map",
		},
		"none": {
			in:      "a{}\n",
			wantOut: "a{}\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			out, url := sourcemaps.StripComment([]byte(tt.in))
			assert.Equal(t, tt.wantOut, string(out))
			assert.Equal(t, tt.wantURL, url)
		})
	}
}

func TestInitAndWriteExternal(t *testing.T) {
	t.Parallel()

	files := apply(t, sourcemaps.Init(false), model.NewFile("css/app.css", []byte("a{}\n")))
	require.Len(t, files, 1)
	require.NotNil(t, files[0].SourceMap)

	got := apply(t, sourcemaps.Write(".", "/source"), files...)
	require.Len(t, got, 2)
	assert.Equal(t, "css/app.css", got[0].Path)
	assert.True(t, strings.HasSuffix(string(got[0].Contents), "/*# sourceMappingURL=app.css.map */\n"))
	assert.Equal(t, "css/app.css.map", got[1].Path)

	m, err := sourcemaps.Parse(got[1].Contents)
	require.NoError(t, err)
	assert.Equal(t, "app.css", m.File)
	assert.Equal(t, "/source", m.SourceRoot)
	assert.Equal(t, []string{"css/app.css"}, m.Sources)
}

func TestWriteInlineThenLoad(t *testing.T) {
	t.Parallel()

	files := apply(t, sourcemaps.Init(false), model.NewFile("app.js", []byte("var a;\n")))
	inlined := apply(t, sourcemaps.Write("", ""), files...)
	require.Len(t, inlined, 1)
	assert.Contains(t, string(inlined[0].Contents), "//# sourceMappingURL=data:application/json;charset=utf-8;base64,")

	raw := append([]byte(nil), inlined[0].SourceMap...)
	inlined[0].SourceMap = nil
	loaded := apply(t, sourcemaps.Init(true), inlined[0])
	require.Len(t, loaded, 1)
	assert.Equal(t, "var a;\n", string(loaded[0].Contents))
	assert.JSONEq(t, string(raw), string(loaded[0].SourceMap))
}

func TestWriteWithoutMap(t *testing.T) {
	t.Parallel()

	got := apply(t, sourcemaps.Write(".", ""), model.NewFile("a.css", []byte("a{}")))
	require.Len(t, got, 1)
	assert.Equal(t, "a{}", string(got[0].Contents))
}

func TestInitLoadsExternalMap(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	compiled := `{"version":3,"file":"app.css","sources":["app.scss"],"names":[],"mappings":"AAAA"}`
	require.NoError(t, afero.WriteFile(fs, filepath.Join("tmp", "styles", "app.css.map"), []byte(compiled), 0o644))

	newFile := func(base string) *model.File {
		file := model.NewFile("styles/app.css", []byte("a{color:red}\n/*# sourceMappingURL=app.css.map */\n"))
		file.Base = base
		file.Rename("styles/app.min.css")

		return file
	}

	tests := map[string]struct {
		file        *model.File
		opts        []sourcemaps.InitOption
		wantSources []string
		wantComment bool
	}{
		"sibling map": {
			file:        newFile("tmp"),
			opts:        []sourcemaps.InitOption{sourcemaps.WithFs(fs)},
			wantSources: []string{"app.scss"},
		},
		"no filesystem": {
			file:        newFile("tmp"),
			wantSources: []string{"styles/app.min.css"},
			wantComment: true,
		},
		"missing map": {
			file:        newFile("elsewhere"),
			opts:        []sourcemaps.InitOption{sourcemaps.WithFs(fs)},
			wantSources: []string{"styles/app.min.css"},
			wantComment: true,
		},
		"not read from disk": {
			file:        newFile(""),
			opts:        []sourcemaps.InitOption{sourcemaps.WithFs(fs)},
			wantSources: []string{"styles/app.min.css"},
			wantComment: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := apply(t, sourcemaps.Init(true, tt.opts...), tt.file)
			require.Len(t, got, 1)
			m, err := sourcemaps.Parse(got[0].SourceMap)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSources, m.Sources)
			assert.Equal(t, tt.wantComment, strings.Contains(string(got[0].Contents), "sourceMappingURL"))
		})
	}
}

func TestStrip(t *testing.T) {
	t.Parallel()

	file := model.NewFile("app-legacy.css", []byte("a{color:red}/*# sourceMappingURL=app.css.map */"))
	file.SourceMap = []byte(`{"version":3}`)

	got := apply(t, sourcemaps.Strip(), file, model.NewFile("b.css", []byte("b{}\n")))
	require.Len(t, got, 2)
	assert.Equal(t, "a{color:red}\n", string(got[0].Contents))
	assert.Nil(t, got[0].SourceMap)
	assert.Equal(t, "b{}\n", string(got[1].Contents))
}
