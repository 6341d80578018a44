package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Pipeline is a composed graph of nodes, ready to run once.
type Pipeline struct {
	name       string
	graph      graph.Graph[string, *model.NodeInfo]
	runs       map[string]func(ctx context.Context) error
	seq        map[string]int
	errcList   *errorChans
	opts       []model.PipelineOption
	logger     *zap.Logger
	handler    ErrorHandler
	sinkFn     SinkFunc
	input      []*model.File
	inputChan  <-chan *model.File
	bufferSize int
	startTime  time.Time
	buildErr   error
	ran        bool

	mu      sync.Mutex
	handled error
}

func nodeHash(info *model.NodeInfo) string {
	return info.ID
}

// Compose runs the callbacks of root and of every stage it attaches, synchronously, and
// returns the resulting graph. Nothing flows until Run is called. Any callback error or
// panic aborts the composition.
func Compose(name string, root *Instance, opts ...Option) (*Pipeline, error) {
	if root == nil {
		return nil, ErrStageMustBeSet
	}
	pipe := &Pipeline{
		name:     name,
		graph:    graph.New(nodeHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles()),
		runs:     make(map[string]func(ctx context.Context) error),
		seq:      make(map[string]int),
		errcList: &errorChans{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(pipe)
	}
	if pipe.handler == nil {
		pipe.handler = LogAndEnd(pipe.logger)
	}

	for _, opt := range pipe.opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	start, err := pipe.addStart()
	if err != nil {
		return nil, err
	}
	out, err := pipe.inline(root, nil, start, pipe.handler)
	if err != nil {
		return nil, err
	}
	err = pipe.addSink(out)
	if err != nil {
		return nil, err
	}

	pipe.logger.Debug("pipeline composed", zap.String("pipeline", name), zap.Int("nodes", len(pipe.seq)))

	return pipe, nil
}

// Name returns the name given to Compose.
func (p *Pipeline) Name() string {
	return p.name
}

// Graph returns the composed graph. Vertices are keyed by node ID.
func (p *Pipeline) Graph() graph.Graph[string, *model.NodeInfo] {
	return p.graph
}

// Nodes returns every node in the order it was attached.
func (p *Pipeline) Nodes() []*model.NodeInfo {
	nodes := make([]*model.NodeInfo, len(p.seq))
	for id, idx := range p.seq {
		info, err := p.graph.Vertex(id)
		if err != nil {
			continue
		}
		nodes[idx] = info
	}

	return nodes
}

// Handled returns the transform errors that were handled by ending a branch.
func (p *Pipeline) Handled() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.handled
}

func (p *Pipeline) addHandled(info *model.NodeInfo, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handled = multierr.Append(p.handled, errors.Wrap(err, info.ID))
}

func (p *Pipeline) fail(err error) {
	if p.buildErr == nil {
		p.buildErr = err
	}
}

func (p *Pipeline) nodeID(sc *scope, label string) string {
	return fmt.Sprintf("%s/%s#%d", sc.path, label, len(p.seq))
}

// waitForPipeline waits for results from all error channels.
// It cancels the run on the first error and keeps reading until every node is done.
func waitForPipeline(cancel context.CancelFunc, errs ...*errorChan) error {
	var first error
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}

	return first
}

// Run starts every node and waits for the pipeline to finish.
func (p *Pipeline) Run(ctx context.Context) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if p.ran {
		return ErrAlreadyRun
	}
	p.ran = true
	p.startTime = time.Now()

	dCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	order, err := graph.StableTopologicalSort(p.graph, func(a, b string) bool {
		return p.seq[a] < p.seq[b]
	})
	if err != nil {
		return errors.Wrap(err, "unable to sort nodes")
	}

	for _, id := range order {
		info, err := p.graph.Vertex(id)
		if err != nil {
			return errors.Wrapf(err, "unable to get node %s", id)
		}
		p.startNode(dCtx, info, p.runs[id])
	}

	err = waitForPipeline(cancel, p.errcList.list...)
	if err != nil {
		return err
	}

	if handled := p.Handled(); handled != nil {
		p.logger.Warn("pipeline finished with ended branches",
			zap.String("pipeline", p.name),
			zap.Int("errors", len(multierr.Errors(handled))),
		)
	}

	return p.finishRun()
}

func (p *Pipeline) startNode(ctx context.Context, info *model.NodeInfo, run func(ctx context.Context) error) {
	errC := make(chan error, 2)
	p.errcList.add(newErrorChan(info.ID, errC))

	go func() {
		defer close(errC)
		err := run(ctx)
		if err != nil {
			errC <- err

			return
		}
		for _, opt := range p.opts {
			err := opt.AfterNode(info, time.Since(p.startTime))
			if err != nil {
				errC <- errors.Wrap(err, "unable to run after node function")

				return
			}
		}
	}()
}

func (p *Pipeline) observe(info *model.NodeInfo, iterationDuration time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnNodeOutput(info, iterationDuration)
		if err != nil {
			return errors.Wrap(err, "unable to run node output function")
		}
	}

	return nil
}

func (p *Pipeline) finishRun() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	p.logger.Debug("pipeline finished", zap.String("pipeline", p.name), zap.Duration("elapsed", time.Since(p.startTime)))

	return nil
}
