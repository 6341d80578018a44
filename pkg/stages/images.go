package stages

import (
	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/transforms/imagemin"
	"github.com/askiada/go-assetpipe/pkg/transforms/size"
)

// ImagesOptions configures Images.
type ImagesOptions struct {
	Imagemin imagemin.Options
}

// Images optimises everything under the images directory and logs the sizes before and
// after.
var Images = pipeline.Define("images", func(b *pipeline.Builder, opts ImagesOptions) error {
	logger := b.Logger()

	b.Filter(pipeline.MustGlob("images/**")).
		Pipe(size.Report(logger, size.Options{Title: "Images - Uncompressed"})).
		Pipe(imagemin.Optimize(opts.Imagemin)).
		Pipe(size.Report(logger, size.Options{Title: "Images - Compressed"}))

	return nil
})
