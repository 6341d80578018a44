// Package sass compiles SCSS and Sass files to CSS.
package sass

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bep/golibsass/libsass"
	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
	"github.com/askiada/go-assetpipe/pkg/transforms/sourcemaps"
)

// Options configures the compiler.
type Options struct {
	IncludePaths []string `mapstructure:"includePaths" yaml:"includePaths"`
	// OutputStyle is one of nested, expanded, compact or compressed.
	OutputStyle string `mapstructure:"outputStyle" yaml:"outputStyle"`
	Precision   int    `mapstructure:"precision" yaml:"precision"`
}

// Result is the output of a compilation.
type Result struct {
	CSS       []byte
	SourceMap []byte
}

// Compiler compiles a single stylesheet.
type Compiler interface {
	Compile(file *model.File, opts Options, withSourceMap bool) (Result, error)
}

// LibSass compiles with libsass. Imports are resolved on the OS filesystem, from the
// directory of the file and the include paths.
type LibSass struct{}

// Compile implements Compiler.
func (LibSass) Compile(file *model.File, opts Options, withSourceMap bool) (Result, error) {
	includePaths := append([]string{filepath.Join(file.Base, filepath.FromSlash(file.Dir()))}, opts.IncludePaths...)
	libOpts := libsass.Options{
		IncludePaths: includePaths,
		OutputStyle:  libsass.ParseOutputStyle(opts.OutputStyle),
		Precision:    opts.Precision,
		SassSyntax:   file.Ext() == ".sass",
	}
	cssPath := strings.TrimSuffix(file.Basename(), file.Ext()) + ".css"
	if withSourceMap {
		libOpts.SourceMapOptions = libsass.SourceMapOptions{
			Filename:   cssPath + ".map",
			OutputPath: cssPath,
		}
	}

	transpiler, err := libsass.New(libOpts)
	if err != nil {
		return Result{}, errors.Wrap(err, "unable to create libsass transpiler")
	}
	res, err := transpiler.Execute(string(file.Contents))
	if err != nil {
		return Result{}, errors.Wrap(err, "unable to compile")
	}
	css, _ := sourcemaps.StripComment([]byte(res.CSS))

	return Result{
		CSS:       css,
		SourceMap: []byte(res.SourceMapContent),
	}, nil
}

// IsPartial reports whether the file is only meant to be imported.
func IsPartial(file *model.File) bool {
	return strings.HasPrefix(file.Basename(), "_")
}

// Compile turns every stylesheet into a ".css" file. Partials are dropped. When a file
// carries a source map, it is replaced by the one produced by the compiler. A nil
// compiler means LibSass.
func Compile(opts Options, compiler Compiler) pipeline.Transform {
	if compiler == nil {
		compiler = LibSass{}
	}

	return pipeline.Map("sass", func(_ context.Context, file *model.File) (*model.File, error) {
		if IsPartial(file) {
			return nil, nil
		}
		res, err := compiler.Compile(file, opts, file.SourceMap != nil)
		if err != nil {
			return nil, err
		}
		file.Contents = res.CSS
		file.SetExt(".css")
		if file.SourceMap != nil && len(res.SourceMap) > 0 {
			file.SourceMap = res.SourceMap
		}

		return file, nil
	})
}
