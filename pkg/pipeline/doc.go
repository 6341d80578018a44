// Package pipeline composes file transformations into a graph of streams.
//
// A Stage is defined once with Define and instantiated with options. When an instance is
// composed, its callback receives a Builder bound to the current stream and attaches work
// to it with three combinators:
//
//   - Pipe appends a Transform, or another stage Instance, to the stream in place.
//   - Filter moves the matching files into a new branch.
//   - Copy sends a copy of the matching files into a new branch and keeps them in the stream.
//
// Branches never rejoin the stream they were split from while the stage is being composed.
// When the callback returns, the output of the instance is its stream plus every branch a
// transform was attached to; branches left empty are drained and their files dropped.
//
// Composition and execution are two phases. Compose runs every callback synchronously and
// fails fast on any composition error. Run starts one goroutine per node of the graph and
// streams files through channels. A failing transform is handed to the ErrorHandler of the
// builder it was attached from: by default the error is logged and only that branch ends,
// while the rest of the pipeline keeps running.
package pipeline
