package stages

import (
	"github.com/spf13/afero"

	"github.com/askiada/go-assetpipe/pkg/pipeline"
	"github.com/askiada/go-assetpipe/pkg/transforms/fsio"
)

// SourceOptions configures Source.
type SourceOptions struct {
	Fs   afero.Fs
	Root string
	// Glob selects the files read under Root. Empty reads every file.
	Glob []string
	// OnError handles a failure to read. Nil logs it and ends the stream.
	OnError pipeline.ErrorHandler
}

// Source adds the files under a directory to the stream.
var Source = pipeline.Define("source", func(b *pipeline.Builder, opts SourceOptions) error {
	var m pipeline.Matcher
	if len(opts.Glob) > 0 {
		var err error
		m, err = filter("source", opts.Glob)
		if err != nil {
			return err
		}
	}
	handler := opts.OnError
	if handler == nil {
		handler = pipeline.LogAndEnd(b.Logger())
	}

	b.OnError(handler).Pipe(fsio.Src(fsOrDefault(opts.Fs), opts.Root, m))

	return nil
})
