package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-assetpipe/pkg/pipeline/measure"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
}

func (pd *pipelineDrawer) New() error {
	pd.startTime = time.Now()

	return nil
}

func (pd *pipelineDrawer) PrepareNode(parents []*model.NodeInfo, node *model.NodeInfo) error {
	err := pd.AddNode(node)
	if err != nil {
		return err
	}

	for _, parent := range parents {
		err := pd.AddLink(parent.ID, node.ID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (pd *pipelineDrawer) OnNodeOutput(_ *model.NodeInfo, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) AfterNode(_ *model.NodeInfo, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.SetTotalTime(model.EndNode.ID, pd.startTime)
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the pipeline once it finished. measure is optional; when set, nodes
// and edges are annotated with its metrics.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, m: measure}
}
