package stages

import (
	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/transforms/rename"
)

// FontsOptions configures Fonts.
type FontsOptions struct {
	// Dirname is the directory fonts are moved to. Empty means "fonts".
	Dirname string
}

// Fonts moves every font file to a single directory.
var Fonts = pipeline.Define("fonts", func(b *pipeline.Builder, opts FontsOptions) error {
	if opts.Dirname == "" {
		opts.Dirname = "fonts"
	}
	b.Filter(pipeline.MustGlob("**/*.{eot,svg,ttf,woff,woff2,otf}")).
		Pipe(rename.Rename(rename.Options{Dirname: opts.Dirname}))

	return nil
})
