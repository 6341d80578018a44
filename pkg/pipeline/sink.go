package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// addSink terminates the root stage.
func (p *Pipeline) addSink(in *port) error {
	info := model.EndNode

	return p.addNode(info, []*port{in}, func(ctx context.Context) error {
		for {
			startIter := time.Now()
			file, ok, err := Receive(ctx, in.c)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if p.sinkFn != nil {
				err = p.sinkFn(ctx, file)
				if err != nil {
					return errors.Wrapf(err, "unable to sink %s", file.Path)
				}
			}
			err = p.observe(info, time.Since(startIter))
			if err != nil {
				return err
			}
		}
	})
}

// addDrain terminates a branch nothing was attached to. Its files are dropped.
func (p *Pipeline) addDrain(sc *scope, in *port) error {
	info := &model.NodeInfo{
		Type:  model.DrainNodeType,
		ID:    p.nodeID(sc, "drain"),
		Name:  "drain",
		Stage: sc.path,
	}

	return p.addNode(info, []*port{in}, func(ctx context.Context) error {
		drain(ctx, in.c)

		return ctx.Err()
	})
}
