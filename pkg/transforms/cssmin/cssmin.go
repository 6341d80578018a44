// Package cssmin minifies stylesheets.
package cssmin

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

const mediaType = "text/css"

// Options configures the minifier.
type Options struct {
	// Precision is the number of significant digits kept in numbers, 0 keeps them all.
	Precision int `mapstructure:"precision" yaml:"precision"`
}

// Minify removes whitespace and comments from every stylesheet and shortens values.
func Minify(opts Options) pipeline.Transform {
	m := minify.New()
	m.Add(mediaType, &css.Minifier{Precision: opts.Precision})

	return pipeline.Map("cssmin", func(_ context.Context, file *model.File) (*model.File, error) {
		res, err := m.Bytes(mediaType, file.Contents)
		if err != nil {
			return nil, errors.Wrap(err, "unable to minify")
		}
		file.Contents = res

		return file, nil
	})
}
