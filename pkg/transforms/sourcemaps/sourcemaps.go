// Package sourcemaps attaches v3 source maps to files and writes them out.
package sourcemaps

import (
	"context"
	"encoding/base64"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const dataURLPrefix = "data:application/json;charset=utf-8;base64,"

var commentRe = regexp.MustCompile(`(?m)(?:/\*# sourceMappingURL=(\S+?)\s*\*/|//# sourceMappingURL=(\S+))\s*$`)

// Map is a v3 source map.
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Parse decodes a raw source map.
func Parse(raw []byte) (*Map, error) {
	m := &Map{}
	err := json.Unmarshal(raw, m)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode source map")
	}

	return m, nil
}

// Encode returns the JSON form of m.
func (m *Map) Encode() ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode source map")
	}

	return raw, nil
}

// Identity returns a map pointing every generated position at the file itself.
func Identity(file *model.File) *Map {
	return &Map{
		Version:        3,
		File:           file.Basename(),
		Sources:        []string{file.Path},
		SourcesContent: []string{string(file.Contents)},
		Names:          []string{},
	}
}

// StripComment removes the sourceMappingURL comment and returns its URL.
func StripComment(contents []byte) ([]byte, string) {
	loc := commentRe.FindSubmatchIndex(contents)
	if loc == nil {
		return contents, ""
	}
	url := ""
	switch {
	case loc[2] >= 0:
		url = string(contents[loc[2]:loc[3]])
	case loc[4] >= 0:
		url = string(contents[loc[4]:loc[5]])
	}
	res := make([]byte, 0, len(contents))
	res = append(res, contents[:loc[0]]...)
	res = append(res, contents[loc[1]:]...)

	return []byte(strings.TrimRight(string(res), "\n") + "\n"), url
}

// Comment returns the sourceMappingURL comment for file, in the syntax of its type.
func Comment(file *model.File, url string) string {
	if file.Ext() == ".css" {
		return "/*# sourceMappingURL=" + url + " */"
	}

	return "//# sourceMappingURL=" + url
}

func loadInline(url string) ([]byte, bool) {
	if !strings.HasPrefix(url, "data:application/json") {
		return nil, false
	}
	_, encoded, ok := strings.Cut(url, "base64,")
	if !ok {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}

	return raw, true
}

func withComment(contents []byte, comment string) []byte {
	res := make([]byte, 0, len(contents)+len(comment)+1)
	res = append(res, contents...)
	if len(res) > 0 && res[len(res)-1] != '\n' {
		res = append(res, '\n')
	}

	return append(res, comment+"\n"...)
}

// InitOption configures Init.
type InitOption func(o *initOptions)

type initOptions struct {
	fs afero.Fs
}

// WithFs lets Init load external maps: a relative sourceMappingURL is resolved against the
// directory the file was read from.
func WithFs(fs afero.Fs) InitOption {
	return func(o *initOptions) {
		o.fs = fs
	}
}

func loadExternal(fs afero.Fs, file *model.File, url string) ([]byte, bool) {
	if fs == nil || file.Base == "" || url == "" || path.IsAbs(url) || strings.Contains(url, ":") {
		return nil, false
	}
	target := filepath.Join(file.Base, filepath.FromSlash(path.Join(file.Dir(), url)))
	raw, err := afero.ReadFile(fs, target)
	if err != nil {
		return nil, false
	}
	_, err = Parse(raw)
	if err != nil {
		return nil, false
	}

	return raw, true
}

// Init attaches a source map to every file that has none. With loadMaps, a map referenced
// by the contents is used instead of an identity map: inline maps always, external ones
// when WithFs is set.
func Init(loadMaps bool, opts ...InitOption) pipeline.Transform {
	o := &initOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return pipeline.Map("sourcemaps.init", func(_ context.Context, file *model.File) (*model.File, error) {
		if file.SourceMap != nil {
			return file, nil
		}
		if loadMaps {
			stripped, url := StripComment(file.Contents)
			raw, ok := loadInline(url)
			if !ok {
				raw, ok = loadExternal(o.fs, file, url)
			}
			if ok {
				file.Contents = stripped
				file.SourceMap = raw

				return file, nil
			}
		}
		raw, err := Identity(file).Encode()
		if err != nil {
			return nil, err
		}
		file.SourceMap = raw

		return file, nil
	})
}

// Write emits the source map of every file. With an empty dir, the map is inlined in a
// comment. Otherwise it becomes a new ".map" file in dir, relative to the file, and the
// file points at it.
func Write(dir, sourceRoot string) pipeline.Transform {
	return pipeline.FlatMap("sourcemaps.write", func(_ context.Context, file *model.File) ([]*model.File, error) {
		if file.SourceMap == nil {
			return []*model.File{file}, nil
		}
		m, err := Parse(file.SourceMap)
		if err != nil {
			return nil, err
		}
		m.File = file.Basename()
		if sourceRoot != "" {
			m.SourceRoot = sourceRoot
		}
		raw, err := m.Encode()
		if err != nil {
			return nil, err
		}
		file.SourceMap = raw
		contents, _ := StripComment(file.Contents)

		if dir == "" {
			url := dataURLPrefix + base64.StdEncoding.EncodeToString(raw)
			file.Contents = withComment(contents, Comment(file, url))

			return []*model.File{file}, nil
		}

		url := path.Join(dir, file.Basename()+".map")
		file.Contents = withComment(contents, Comment(file, url))
		mapFile := model.NewFile(path.Join(file.Dir(), url), raw)
		mapFile.Base = file.Base
		mapFile.ModTime = file.ModTime

		return []*model.File{file, mapFile}, nil
	})
}

// Strip removes the sourceMappingURL comment and the attached map of every file.
func Strip() pipeline.Transform {
	return pipeline.Map("sourcemaps.strip", func(_ context.Context, file *model.File) (*model.File, error) {
		file.Contents, _ = StripComment(file.Contents)
		file.SourceMap = nil

		return file, nil
	})
}
