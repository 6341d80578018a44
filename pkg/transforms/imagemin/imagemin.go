// Package imagemin re-encodes images and keeps whichever version is smaller.
package imagemin

import (
	"bytes"
	"context"
	"image/gif"
	"image/png"
	"strings"

	"github.com/pkg/errors"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Options configures the optimisers.
type Options struct {
	// OptimizationLevel goes from 0 to 7. PNG files use the best compression from 5.
	OptimizationLevel int `mapstructure:"optimizationLevel" yaml:"optimizationLevel"`
	// Concurrency is the number of images optimised at the same time.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

type optimizer func(contents []byte) ([]byte, error)

func pngOptimizer(level int) optimizer {
	enc := &png.Encoder{CompressionLevel: png.DefaultCompression}
	switch {
	case level <= 0:
		enc.CompressionLevel = png.NoCompression
	case level < 3:
		enc.CompressionLevel = png.BestSpeed
	case level >= 5:
		enc.CompressionLevel = png.BestCompression
	}

	return func(contents []byte) ([]byte, error) {
		img, err := png.Decode(bytes.NewReader(contents))
		if err != nil {
			return nil, errors.Wrap(err, "unable to decode png")
		}
		var buf bytes.Buffer
		err = enc.Encode(&buf, img)
		if err != nil {
			return nil, errors.Wrap(err, "unable to encode png")
		}

		return buf.Bytes(), nil
	}
}

func gifOptimizer(contents []byte) ([]byte, error) {
	img, err := gif.DecodeAll(bytes.NewReader(contents))
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode gif")
	}
	var buf bytes.Buffer
	err = gif.EncodeAll(&buf, img)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode gif")
	}

	return buf.Bytes(), nil
}

func svgOptimizer() optimizer {
	m := minify.New()
	m.AddFunc("image/svg+xml", svg.Minify)

	return func(contents []byte) ([]byte, error) {
		res, err := m.Bytes("image/svg+xml", contents)
		if err != nil {
			return nil, errors.Wrap(err, "unable to minify svg")
		}

		return res, nil
	}
}

// Optimize re-encodes PNG and GIF images losslessly and minifies SVG images. The
// result replaces the file only when it is smaller. Other files pass through.
func Optimize(opts Options) pipeline.Transform {
	optimizers := map[string]optimizer{
		".png": pngOptimizer(opts.OptimizationLevel),
		".gif": gifOptimizer,
		".svg": svgOptimizer(),
	}

	return pipeline.Concurrent("imagemin", opts.Concurrency, func(_ context.Context, file *model.File) (*model.File, error) {
		opt, ok := optimizers[strings.ToLower(file.Ext())]
		if !ok {
			return file, nil
		}
		res, err := opt(file.Contents)
		if err != nil {
			return nil, err
		}
		if len(res) < len(file.Contents) {
			file.Contents = res
		}

		return file, nil
	})
}
