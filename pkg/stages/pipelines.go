package stages

import (
	"github.com/askiada/go-assetpipe/pkg/pipeline"
)

// Build compiles the sources: templates when configured, scripts, stylesheets, legacy
// stylesheets when enabled, and fonts.
var Build = pipeline.Define("build", func(b *pipeline.Builder, cfg Config) error {
	cfg, err := cfg.WithDefaults()
	if err != nil {
		return err
	}

	if cfg.Preprocess != nil {
		b.Pipe(Preprocess.New(*cfg.Preprocess))
	}
	b.Pipe(Babel.New(BabelOptions{
		Filter: cfg.Filters.Babel,
		Babel:  cfg.Babel,
	}))
	b.Pipe(Styles.New(StylesOptions{
		Filter:       cfg.Filters.Sass,
		Sass:         cfg.Sass,
		Autoprefixer: cfg.Autoprefixer,
		Compiler:     cfg.Compiler,
	}))
	if cfg.Legacy {
		b.Pipe(Legacy.Default())
	}
	b.Pipe(Fonts.Default())

	return nil
})

// Dist prepares compiled assets for deployment: minified stylesheets, optimised images
// and revisioned names written to the distribution directory.
var Dist = pipeline.Define("dist", func(b *pipeline.Builder, cfg Config) error {
	cfg, err := cfg.WithDefaults()
	if err != nil {
		return err
	}

	b.Pipe(Optimize.New(OptimizeOptions{Fs: cfg.Fs}))
	b.Pipe(Images.New(ImagesOptions{Imagemin: cfg.Images}))
	b.Pipe(Rev.New(RevOptions{
		Filter: cfg.Filters.Rev,
		Rev:    cfg.Rev,
		Dest:   cfg.Path.Dist,
		Fs:     cfg.Fs,
	}))

	return nil
})

// BuildTask reads the sources, builds them and merges the result into the temporary
// directory.
var BuildTask = pipeline.Define("task.build", func(b *pipeline.Builder, cfg Config) error {
	cfg, err := cfg.WithDefaults()
	if err != nil {
		return err
	}

	b.Pipe(Source.New(SourceOptions{Fs: cfg.Fs, Root: cfg.Path.Src})).
		Pipe(Build.New(cfg)).
		Pipe(DiffMerge.New(DiffMergeOptions{Dest: cfg.Path.Temp, Filter: cfg.Filters.Clean, Fs: cfg.Fs}))

	return nil
})

// DistTask reads the temporary directory, prepares it for deployment and merges the
// result into the distribution directory.
var DistTask = pipeline.Define("task.dist", func(b *pipeline.Builder, cfg Config) error {
	cfg, err := cfg.WithDefaults()
	if err != nil {
		return err
	}

	b.Pipe(Source.New(SourceOptions{Fs: cfg.Fs, Root: cfg.Path.Temp})).
		Pipe(Dist.New(cfg)).
		Pipe(DiffMerge.New(DiffMergeOptions{Dest: cfg.Path.Dist, Filter: cfg.Filters.Clean, Fs: cfg.Fs}))

	return nil
})
