package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	pipelineNodeOption

	// Finish runs after the pipeline is finished.
	Finish() error
}

// pipelineNodeOption defines the hooks called for every node of the graph.
type pipelineNodeOption interface {
	// PrepareNode runs while the graph is composed, once per node.
	PrepareNode(parents []*NodeInfo, node *NodeInfo) error
	// OnNodeOutput runs everytime a node pushes a file to its output.
	OnNodeOutput(node *NodeInfo, iterationDuration time.Duration) error
	// AfterNode runs once the node closed its output.
	AfterNode(node *NodeInfo, totalDuration time.Duration) error
}
