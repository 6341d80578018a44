// Package preprocess renders files as text templates.
package preprocess

import (
	"bytes"
	"context"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Options configures the rendering.
type Options struct {
	// Context is the data the templates are executed with.
	Context map[string]interface{} `mapstructure:"context" yaml:"context"`
	// Delims replaces the default "{{" and "}}" delimiters when both are set.
	Delims [2]string `mapstructure:"delims" yaml:"delims"`
	// Filter selects the files to render. Filters takes precedence when set.
	Filter  string   `mapstructure:"filter" yaml:"filter"`
	Filters []string `mapstructure:"filters" yaml:"filters"`
}

// Globs returns the file selections, one per filter.
func (o Options) Globs() []string {
	if len(o.Filters) > 0 {
		return o.Filters
	}
	if o.Filter != "" {
		return []string{o.Filter}
	}

	return nil
}

// Render executes every file as a template.
func Render(opts Options) pipeline.Transform {
	return pipeline.Map("preprocess", func(_ context.Context, file *model.File) (*model.File, error) {
		tpl := template.New(file.Path).Funcs(sprig.TxtFuncMap())
		if opts.Delims[0] != "" && opts.Delims[1] != "" {
			tpl = tpl.Delims(opts.Delims[0], opts.Delims[1])
		}
		tpl, err := tpl.Parse(string(file.Contents))
		if err != nil {
			return nil, errors.Wrap(err, "unable to parse template")
		}
		var buf bytes.Buffer
		err = tpl.Execute(&buf, opts.Context)
		if err != nil {
			return nil, errors.Wrap(err, "unable to render template")
		}
		file.Contents = buf.Bytes()

		return file, nil
	})
}
