package imagemin_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
	"github.com/askiada/go-assetpipe/pkg/transforms/imagemin"
)

func uncompressedPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := range 64 {
		for y := range 64 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(&buf, img))

	return buf.Bytes()
}

func run(t *testing.T, opts imagemin.Options, files ...*model.File) map[string]*model.File {
	t.Helper()

	in := make(chan *model.File, len(files))
	for _, f := range files {
		in <- f
	}
	close(in)
	out := make(chan *model.File, len(files))
	require.NoError(t, imagemin.Optimize(opts).Apply(context.Background(), in, out))
	close(out)

	res := map[string]*model.File{}
	for f := range out {
		res[f.Path] = f
	}

	return res
}

func TestOptimize(t *testing.T) {
	t.Parallel()

	raw := uncompressedPNG(t)
	svgSrc := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">  <!-- icon -->  <rect width="10" height="10"/></svg>`

	got := run(t, imagemin.Options{OptimizationLevel: 7, Concurrency: 2},
		model.NewFile("images/red.png", raw),
		model.NewFile("images/icon.svg", []byte(svgSrc)),
		model.NewFile("images/readme.txt", []byte("keep me")),
	)
	require.Len(t, got, 3)

	assert.Less(t, len(got["images/red.png"].Contents), len(raw))
	decoded, err := png.Decode(bytes.NewReader(got["images/red.png"].Contents))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), decoded.Bounds())

	assert.Less(t, len(got["images/icon.svg"].Contents), len(svgSrc))
	assert.NotContains(t, string(got["images/icon.svg"].Contents), "icon")
	assert.Equal(t, "keep me", string(got["images/readme.txt"].Contents))
}

func TestOptimizeKeepsSmallerOriginal(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	require.NoError(t, enc.Encode(&buf, img))
	orig := buf.Bytes()

	got := run(t, imagemin.Options{OptimizationLevel: 0}, model.NewFile("a.png", orig))
	assert.Equal(t, orig, got["a.png"].Contents)
}

func TestOptimizeInvalidImage(t *testing.T) {
	t.Parallel()

	in := make(chan *model.File, 1)
	in <- model.NewFile("broken.png", []byte("not a png"))
	close(in)
	out := make(chan *model.File, 1)
	assert.Error(t, imagemin.Optimize(imagemin.Options{}).Apply(context.Background(), in, out))
}
