package measure

import (
	"time"

	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	return nil
}

func (pm *pipelineMeasure) PrepareNode(_ []*model.NodeInfo, node *model.NodeInfo) error {
	pm.AddMetric(node.ID)

	return nil
}

func (pm *pipelineMeasure) OnNodeOutput(node *model.NodeInfo, iterationDuration time.Duration) error {
	if mt := pm.GetMetric(node.ID); mt != nil {
		mt.AddDuration(iterationDuration)
	}

	return nil
}

func (pm *pipelineMeasure) AfterNode(node *model.NodeInfo, totalDuration time.Duration) error {
	if mt := pm.GetMetric(node.ID); mt != nil {
		mt.SetTotalDuration(totalDuration)
	}

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}

// PipelineMeasure records a metric for every node of the pipeline into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
