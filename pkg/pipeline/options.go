package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Option configures a pipeline when it is composed.
type Option func(p *Pipeline)

// SinkFunc consumes the files reaching the end of the root stage.
type SinkFunc func(ctx context.Context, file *model.File) error

// WithSink sets the terminal consumer. Files are discarded when no sink is set.
func WithSink(sinkFn SinkFunc) Option {
	return func(p *Pipeline) {
		p.sinkFn = sinkFn
	}
}

// WithInput seeds the root stream with files.
func WithInput(files ...*model.File) Option {
	return func(p *Pipeline) {
		p.input = append(p.input, files...)
	}
}

func withInputChan(in <-chan *model.File) Option {
	return func(p *Pipeline) {
		p.inputChan = in
	}
}

// WithLogger sets the logger used by the default error handler and the pipeline itself.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithErrorHandler replaces the root error handler. Stages can still override it with
// Builder.OnError for what they attach.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(p *Pipeline) {
		p.handler = handler
	}
}

// WithBufferSize sets the capacity of every channel between two nodes.
func WithBufferSize(bufferSize int) Option {
	return func(p *Pipeline) {
		p.bufferSize = bufferSize
	}
}

// WithOption adds hooks called for every node, such as measure or drawer.
func WithOption(opts ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.opts = append(p.opts, opts...)
	}
}
