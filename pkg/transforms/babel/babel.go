// Package babel transpiles modern JavaScript and TypeScript down to an older target.
package babel

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Options configures the transpiler.
type Options struct {
	// Format is the module format of the output: esm, cjs or iife. Empty keeps the input format.
	Format string `mapstructure:"format" yaml:"format"`
	// Target is the language level of the output, es5 to es2020 or esnext.
	Target string `mapstructure:"target" yaml:"target"`
	Minify bool   `mapstructure:"minify" yaml:"minify"`
}

var formats = map[string]api.Format{
	"":     api.FormatDefault,
	"esm":  api.FormatESModule,
	"cjs":  api.FormatCommonJS,
	"iife": api.FormatIIFE,
}

var targets = map[string]api.Target{
	"":       api.ES2015,
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"esnext": api.ESNext,
}

var loaders = map[string]api.Loader{
	".js":  api.LoaderJS,
	".mjs": api.LoaderJS,
	".jsx": api.LoaderJSX,
	".ts":  api.LoaderTS,
	".tsx": api.LoaderTSX,
}

// ErrUnsupported is returned for an unknown format or target.
var ErrUnsupported = errors.New("unsupported option")

func (o Options) transformOptions() (api.TransformOptions, error) {
	format, ok := formats[strings.ToLower(o.Format)]
	if !ok {
		return api.TransformOptions{}, errors.Wrapf(ErrUnsupported, "format %q", o.Format)
	}
	target, ok := targets[strings.ToLower(o.Target)]
	if !ok {
		return api.TransformOptions{}, errors.Wrapf(ErrUnsupported, "target %q", o.Target)
	}

	return api.TransformOptions{
		Format:            format,
		Target:            target,
		MinifyWhitespace:  o.Minify,
		MinifyIdentifiers: o.Minify,
		MinifySyntax:      o.Minify,
	}, nil
}

func messagesError(msgs []api.Message) error {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Location == nil {
			lines = append(lines, msg.Text)

			continue
		}
		lines = append(lines, fmt.Sprintf("%d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text))
	}

	return errors.New(strings.Join(lines, "\n"))
}

// Transpile rewrites every script to a ".js" file. When a file carries a source map, it is
// replaced by the one esbuild produces.
func Transpile(opts Options) (pipeline.Transform, error) {
	base, err := opts.transformOptions()
	if err != nil {
		return nil, err
	}

	return pipeline.Map("babel", func(_ context.Context, file *model.File) (*model.File, error) {
		tOpts := base
		tOpts.Sourcefile = file.Path
		tOpts.Loader = api.LoaderJS
		if loader, ok := loaders[file.Ext()]; ok {
			tOpts.Loader = loader
		}
		if file.SourceMap != nil {
			tOpts.Sourcemap = api.SourceMapExternal
		}

		res := api.Transform(string(file.Contents), tOpts)
		if len(res.Errors) > 0 {
			return nil, messagesError(res.Errors)
		}
		file.Contents = res.Code
		file.SetExt(".js")
		if file.SourceMap != nil && len(res.Map) > 0 {
			file.SourceMap = res.Map
		}

		return file, nil
	}), nil
}
