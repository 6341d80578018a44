package pipeline

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

var (
	ErrPipelineMustBeSet  = errors.New("pipeline must be set")
	ErrStageMustBeSet     = errors.New("stage instance must be set")
	ErrTransformMustBeSet = errors.New("transform must be set")
	ErrMatcherMustBeSet   = errors.New("matcher must be set")
	ErrBuilderSealed      = errors.New("builder used after its stage returned")
	ErrAlreadyRun         = errors.New("pipeline already run")
	ErrEmptyPattern       = errors.New("at least one pattern must be set")
)

// ErrorHandler decides what happens when a transform fails while the pipeline runs.
// Returning nil ends the failed branch gracefully: files already emitted keep flowing, the
// remaining input of the node is dropped. Returning an error aborts the whole pipeline.
type ErrorHandler func(node *model.NodeInfo, err error) error

// LogAndEnd logs the error and ends the branch.
func LogAndEnd(logger *zap.Logger) ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(node *model.NodeInfo, err error) error {
		logger.Error("transform failed, ending branch",
			zap.String("node", node.ID),
			zap.String("stage", node.Stage),
			zap.Error(err),
		)

		return nil
	}
}

// FailFast propagates every transform error and stops the pipeline.
func FailFast(node *model.NodeInfo, err error) error {
	return errors.Wrapf(err, "node %s", node.ID)
}

type errorChans struct {
	mu   sync.Mutex
	list []*errorChan
}

func (ec *errorChans) add(errChan *errorChan) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.list = append(ec.list, errChan)
}

type errorChan struct {
	c    <-chan error
	name string
}

func newErrorChan(name string, c <-chan error) *errorChan {
	return &errorChan{
		c:    c,
		name: name,
	}
}

// mergeErrors merges multiple channels of errors.
// Based on https://blog.golang.org/pipelines.
func mergeErrors(cs ...*errorChan) <-chan error {
	var wg sync.WaitGroup
	// The output channel can hold one error per input channel so that it never blocks,
	// even if nobody reads it anymore.
	out := make(chan error, len(cs))

	output := func(c *errorChan) {
		defer wg.Done()
		if c.c == nil {
			return
		}
		for n := range c.c {
			out <- errors.Wrap(n, c.name)
		}
	}
	wg.Add(len(cs))
	for _, c := range cs {
		go output(c)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
