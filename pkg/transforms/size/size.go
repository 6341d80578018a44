// Package size logs the size of the files flowing through a stream.
package size

import (
	"context"

	"github.com/docker/go-units"
	"go.uber.org/zap"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Options configures the report.
type Options struct {
	Title     string
	ShowFiles bool
}

// Totals is a running count of files and bytes.
type Totals struct {
	Files int
	Bytes int64
}

// Add counts one more file.
func (t *Totals) Add(file *model.File) {
	t.Files++
	t.Bytes += int64(len(file.Contents))
}

// Human returns the byte count with a decimal unit, such as "1.5kB".
func (t Totals) Human() string {
	return units.HumanSize(float64(t.Bytes))
}

// Report passes every file through unchanged and logs the total once the stream ends.
// With ShowFiles, every file is logged as well.
func Report(logger *zap.Logger, opts Options) pipeline.Transform {
	if logger == nil {
		logger = zap.NewNop()
	}

	return pipeline.Named("size", pipeline.TransformFunc(func(ctx context.Context, in <-chan *model.File, out chan<- *model.File) error {
		totals := &Totals{}
		for {
			file, ok, err := pipeline.Receive(ctx, in)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			totals.Add(file)
			if opts.ShowFiles {
				logger.Info(opts.Title,
					zap.String("file", file.Path),
					zap.String("size", units.HumanSize(float64(len(file.Contents)))),
				)
			}
			err = pipeline.Send(ctx, out, file)
			if err != nil {
				return err
			}
		}
		logger.Info(opts.Title,
			zap.String("size", totals.Human()),
			zap.Int("files", totals.Files),
		)

		return nil
	}))
}
