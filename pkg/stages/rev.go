package stages

import (
	"github.com/spf13/afero"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/transforms/fsio"
	"github.com/askiada/go-assetpipe/pkg/transforms/rev"
)

// RevOptions configures Rev.
type RevOptions struct {
	Filter []string
	Rev    rev.Options
	// Dest receives the revisioned files and the manifest. Empty writes nothing.
	Dest string
	Fs   afero.Fs
}

// Rev revisions the matching files, adds the manifest and writes them to Dest.
var Rev = pipeline.Define("rev", func(b *pipeline.Builder, opts RevOptions) error {
	m, err := filter("rev", opts.Filter)
	if err != nil {
		return err
	}
	revAll, err := rev.New(opts.Rev)
	if err != nil {
		return err
	}

	branch := b.Filter(m).
		Pipe(revAll.Revision()).
		Pipe(revAll.ManifestFile())
	if opts.Dest != "" {
		branch.Pipe(fsio.Dest(fsOrDefault(opts.Fs), opts.Dest))
	}

	return nil
})
