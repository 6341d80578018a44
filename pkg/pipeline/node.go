package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// port is the output of a node, consumed by exactly one other node.
type port struct {
	c    chan *model.File
	from *model.NodeInfo
}

func (p *Pipeline) newPort(from *model.NodeInfo) *port {
	return &port{
		c:    make(chan *model.File, p.bufferSize),
		from: from,
	}
}

func (p *Pipeline) addNode(info *model.NodeInfo, parents []*port, run func(ctx context.Context) error) error {
	err := p.graph.AddVertex(info)
	if err != nil {
		return errors.Wrapf(err, "unable to add node %s", info.ID)
	}

	// a merge can receive both outputs of the same split
	parentInfos := make([]*model.NodeInfo, 0, len(parents))
	linked := make(map[string]bool, len(parents))
	for _, parent := range parents {
		if linked[parent.from.ID] {
			continue
		}
		err := p.graph.AddEdge(parent.from.ID, info.ID)
		if err != nil {
			return errors.Wrapf(err, "unable to link %s to %s", parent.from.ID, info.ID)
		}
		linked[parent.from.ID] = true
		parentInfos = append(parentInfos, parent.from)
	}

	for _, opt := range p.opts {
		err := opt.PrepareNode(parentInfos, info)
		if err != nil {
			return errors.Wrap(err, "unable to run prepare node function")
		}
	}

	p.runs[info.ID] = run
	p.seq[info.ID] = len(p.seq)

	return nil
}

// drain consumes in until it is closed so that the producer never blocks.
func drain(ctx context.Context, in <-chan *model.File) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-in:
			if !ok {
				return
			}
		}
	}
}

func (p *Pipeline) addStart() (*port, error) {
	info := model.StartNode
	out := p.newPort(info)
	err := p.addNode(info, nil, func(ctx context.Context) error {
		defer close(out.c)
		for _, file := range p.input {
			err := Send(ctx, out.c, file)
			if err != nil {
				return err
			}
		}
		if p.inputChan == nil {
			return nil
		}
		for {
			file, ok, err := Receive(ctx, p.inputChan)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			err = Send(ctx, out.c, file)
			if err != nil {
				return err
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (p *Pipeline) addTransform(sc *scope, t Transform, in *port, handler ErrorHandler) (*port, error) {
	name := transformName(t)
	info := &model.NodeInfo{
		Type:  model.TransformNodeType,
		ID:    p.nodeID(sc, name),
		Name:  name,
		Stage: sc.path,
	}
	out := p.newPort(info)
	err := p.addNode(info, []*port{in}, func(ctx context.Context) error {
		defer close(out.c)

		err := p.apply(ctx, info, t, in.c, out.c)
		if err == nil {
			drain(ctx, in.c)

			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		herr := handler(info, err)
		if herr != nil {
			return herr
		}
		p.addHandled(info, err)
		drain(ctx, in.c)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// apply runs the transform. When options are set, the output goes through a forwarder
// reporting every file to them.
func (p *Pipeline) apply(ctx context.Context, info *model.NodeInfo, t Transform, in <-chan *model.File, out chan<- *model.File) error {
	if len(p.opts) == 0 {
		return safeApply(ctx, t, in, out)
	}

	mid := make(chan *model.File, p.bufferSize)
	fwdErr := make(chan error, 1)
	go func() {
		defer close(fwdErr)
		var hookErr error
		last := time.Now()
		for file := range mid {
			if hookErr != nil {
				continue
			}
			err := Send(ctx, out, file)
			if err != nil {
				hookErr = err

				continue
			}
			hookErr = p.observe(info, time.Since(last))
			last = time.Now()
		}
		if hookErr != nil {
			fwdErr <- hookErr
		}
	}()

	err := safeApply(ctx, t, in, mid)
	close(mid)
	if ferr := <-fwdErr; ferr != nil && err == nil {
		err = ferr
	}

	return err
}

// safeApply reports a panic of the transform as its error.
func safeApply(ctx context.Context, t Transform, in <-chan *model.File, out chan<- *model.File) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	return t.Apply(ctx, in, out)
}
