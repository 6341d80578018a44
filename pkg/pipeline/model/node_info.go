package model

// NodeType is the kind of a node in the composed graph.
type NodeType string

const (
	StartNodeType     NodeType = "start"
	TransformNodeType NodeType = "transform"
	FilterNodeType    NodeType = "filter"
	CopyNodeType      NodeType = "copy"
	MergeNodeType     NodeType = "merge"
	DrainNodeType     NodeType = "drain"
	SinkNodeType      NodeType = "sink"
)

// NodeInfo describes a node of the composed graph.
type NodeInfo struct {
	Type NodeType
	// ID is unique in a pipeline, e.g. "build/styles/filter#1".
	ID string
	// Name is the short label of the node.
	Name string
	// Stage is the path of the stage instance the node was attached from.
	Stage string
}

var (
	StartNode = &NodeInfo{Type: StartNodeType, ID: "start", Name: "start"}
	EndNode   = &NodeInfo{Type: SinkNodeType, ID: "end", Name: "end"}
)
