package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

func (p *Pipeline) runMergeInput(ctx context.Context, info *model.NodeInfo, in, out *port) error {
	for {
		startIter := time.Now()
		file, ok, err := Receive(ctx, in.c)
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
		err = p.observe(info, time.Since(startIter))
		if err != nil {
			return err
		}
	}
}

// addMerge fans the tails of a stage into its single output. It is only used at the end
// of a stage, where every branch that was given a transform rejoins the main stream.
func (p *Pipeline) addMerge(sc *scope, ins []*port) (*port, error) {
	info := &model.NodeInfo{
		Type:  model.MergeNodeType,
		ID:    p.nodeID(sc, "merge"),
		Name:  "merge",
		Stage: sc.path,
	}
	out := p.newPort(info)

	err := p.addNode(info, ins, func(ctx context.Context) error {
		defer close(out.c)

		errs := make([]error, len(ins))
		wgrp := sync.WaitGroup{}
		wgrp.Add(len(ins))
		for i, in := range ins {
			go func() {
				defer wgrp.Done()
				errs[i] = p.runMergeInput(ctx, info, in, out)
			}()
		}
		wgrp.Wait()

		for _, err := range errs {
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
