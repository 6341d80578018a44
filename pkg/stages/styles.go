package stages

import (
	"strings"

	"dario.cat/mergo"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/transforms/autoprefix"
	"github.com/askiada/go-assetpipe/pkg/transforms/bless"
	"github.com/askiada/go-assetpipe/pkg/transforms/cssmin"
	"github.com/askiada/go-assetpipe/pkg/transforms/rename"
	"github.com/askiada/go-assetpipe/pkg/transforms/sass"
	"github.com/askiada/go-assetpipe/pkg/transforms/size"
	"github.com/askiada/go-assetpipe/pkg/transforms/sourcemaps"
)

// StylesOptions configures Styles.
type StylesOptions struct {
	Filter       []string
	Sass         sass.Options
	Autoprefixer autoprefix.Options
	// Compiler compiles stylesheets. Nil means libsass.
	Compiler sass.Compiler
}

// Styles compiles the matching stylesheets, prefixes them and writes their source maps.
// Sources left in the stream are dropped.
var Styles = pipeline.Define("styles", func(b *pipeline.Builder, opts StylesOptions) error {
	m, err := filter("sass", opts.Filter)
	if err != nil {
		return err
	}
	err = mergo.Merge(&opts.Sass, DefaultConfig().Sass)
	if err != nil {
		return errors.Wrap(err, "unable to apply default sass options")
	}
	prefix, err := autoprefix.Exec(opts.Autoprefixer)
	if err != nil {
		return err
	}
	if strings.TrimSpace(opts.Autoprefixer.Command) == "" {
		b.Logger().Warn("no autoprefixer command configured, stylesheets are not prefixed", zap.String("stage", b.Path()))
	}

	b.Filter(m).
		Pipe(sourcemaps.Init(false)).
		Pipe(sass.Compile(opts.Sass, opts.Compiler)).
		Pipe(prefix).
		Pipe(sourcemaps.Write(".", "."))
	b.Pipe(pipeline.Exclude(pipeline.MustGlob("**/*.{scss,sass}")))

	return nil
})

// OptimizeOptions configures Optimize.
type OptimizeOptions struct {
	CSSMin cssmin.Options
	// Fs is where the source maps of the stylesheets are read from. Nil means the OS
	// filesystem.
	Fs afero.Fs
}

// Optimize adds a minified ".min.css" copy of every stylesheet but the legacy ones.
var Optimize = pipeline.Define("optimize", func(b *pipeline.Builder, opts OptimizeOptions) error {
	logger := b.Logger()
	css := pipeline.All(pipeline.MustGlob("**/*.css"), pipeline.Not(pipeline.MustGlob("**/*-legacy*")))

	b.Copy(css).
		Pipe(rename.Rename(rename.Options{Suffix: ".min"})).
		Pipe(size.Report(logger, size.Options{Title: "CSS - Unoptimized"})).
		Pipe(sourcemaps.Init(true, sourcemaps.WithFs(fsOrDefault(opts.Fs)))).
		Pipe(cssmin.Minify(opts.CSSMin)).
		Pipe(size.Report(logger, size.Options{Title: "CSS - Optimized"})).
		Pipe(sourcemaps.Write(".", "."))

	return nil
})

// LegacyOptions configures Legacy.
type LegacyOptions struct {
	Bless  bless.Options
	CSSMin cssmin.Options
}

// Legacy adds a "-legacy.css" copy of every stylesheet, split for old browsers and
// stripped of comments and source maps.
var Legacy = pipeline.Define("legacy", func(b *pipeline.Builder, opts LegacyOptions) error {
	b.Copy(pipeline.MustGlob("**/*.css")).
		Pipe(rename.Rename(rename.Options{Suffix: "-legacy"})).
		Pipe(sourcemaps.Strip()).
		Pipe(bless.Split(opts.Bless)).
		Pipe(cssmin.Minify(opts.CSSMin))

	return nil
})
