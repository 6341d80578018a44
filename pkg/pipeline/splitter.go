package pipeline

import (
	"context"
	"time"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// addSplit routes the files of in matching m to a new branch. With fork set, matching files
// also stay on the main output and the branch receives a clone.
func (p *Pipeline) addSplit(sc *scope, m Matcher, fork bool, in *port) (mainOut, branchOut *port, err error) {
	nodeType, label := model.FilterNodeType, "filter"
	if fork {
		nodeType, label = model.CopyNodeType, "copy"
	}
	info := &model.NodeInfo{
		Type:  nodeType,
		ID:    p.nodeID(sc, label),
		Name:  label,
		Stage: sc.path,
	}
	mainOut = p.newPort(info)
	branchOut = p.newPort(info)

	err = p.addNode(info, []*port{in}, func(ctx context.Context) error {
		defer func() {
			close(mainOut.c)
			close(branchOut.c)
		}()

		for {
			startIter := time.Now()
			file, ok, err := Receive(ctx, in.c)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			switch {
			case !m.Match(file):
				err = Send(ctx, mainOut.c, file)
			case fork:
				err = Send(ctx, branchOut.c, file.Clone())
				if err == nil {
					err = Send(ctx, mainOut.c, file)
				}
			default:
				err = Send(ctx, branchOut.c, file)
			}
			if err != nil {
				return err
			}
			err = p.observe(info, time.Since(startIter))
			if err != nil {
				return err
			}
		}
	})
	if err != nil {
		return nil, nil, err
	}

	return mainOut, branchOut, nil
}
