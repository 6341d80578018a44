package stages

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/transforms/babel"
	"github.com/askiada/go-assetpipe/pkg/transforms/preprocess"
	"github.com/askiada/go-assetpipe/pkg/transforms/sourcemaps"
)

// BabelOptions configures Babel.
type BabelOptions struct {
	Filter []string
	Babel  babel.Options
}

// Babel transpiles the matching scripts and writes their source maps next to them.
var Babel = pipeline.Define("babel", func(b *pipeline.Builder, opts BabelOptions) error {
	m, err := filter("babel", opts.Filter)
	if err != nil {
		return err
	}
	transpile, err := babel.Transpile(opts.Babel)
	if err != nil {
		return err
	}

	b.Filter(m).
		Pipe(sourcemaps.Init(false)).
		Pipe(transpile).
		Pipe(sourcemaps.Write(".", ""))

	return nil
})

// ErrNoPreprocessFilter is returned when Preprocess has nothing to select files with.
var ErrNoPreprocessFilter = errors.New("preprocess needs a filter")

// Preprocess renders the files matching each of its filters as templates.
var Preprocess = pipeline.Define("preprocess", func(b *pipeline.Builder, opts preprocess.Options) error {
	globs := opts.Globs()
	if len(globs) == 0 {
		return ErrNoPreprocessFilter
	}
	for _, glob := range globs {
		m, err := filter("preprocess", []string{glob})
		if err != nil {
			return err
		}
		b.Filter(m).Pipe(preprocess.Render(opts))
	}

	return nil
})
