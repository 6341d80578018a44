package drawer

import (
	"time"

	"github.com/askiada/go-assetpipe/pkg/pipeline/measure"
	"github.com/askiada/go-assetpipe/pkg/pipeline/model"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddNode adds a node to the pipeline drawer.
	AddNode(node *model.NodeInfo) error
	// AddLink adds a link between parent and children nodes.
	AddLink(parentID, childID string) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// SetTotalTime sets the total time for the node.
	SetTotalTime(nodeID string, startTime time.Time) error
	// AddMeasure adds a measure to the pipeline drawer.
	AddMeasure(measure measure.Measure) error
}
