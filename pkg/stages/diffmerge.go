package stages

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/transforms/changed"
	"github.com/askiada/go-assetpipe/pkg/transforms/deleted"
	"github.com/askiada/go-assetpipe/pkg/transforms/fsio"
)

// DiffMergeOptions configures DiffMerge.
type DiffMergeOptions struct {
	Dest string
	// Filter lists, in the .dockerignore syntax, the files of Dest that may be removed.
	Filter []string
	Fs     afero.Fs
}

// ErrNoDest is returned when DiffMerge has no destination.
var ErrNoDest = errors.New("diffmerge needs a destination")

// DiffMerge makes Dest hold the stream: files gone from the stream are removed, new and
// changed files are written, identical ones are left untouched.
var DiffMerge = pipeline.Define("diffmerge", func(b *pipeline.Builder, opts DiffMergeOptions) error {
	if opts.Dest == "" {
		return ErrNoDest
	}
	fs := fsOrDefault(opts.Fs)
	clean, err := deleted.Deleted(fs, opts.Dest, opts.Filter)
	if err != nil {
		return errors.Wrap(err, "invalid clean filter")
	}

	b.Pipe(clean).
		Pipe(changed.Changed(fs, opts.Dest)).
		Pipe(pipeline.Exclude(pipeline.Not(pipeline.MustGlob("**/*.*")))).
		Pipe(fsio.Dest(fs, opts.Dest))

	return nil
})
