// Package model provides the data structures shared by the pipeline package and its options.
// It defines the file records flowing through a pipeline, the description of every node of the
// composed graph, and the hooks a pipeline option can implement.
package model
