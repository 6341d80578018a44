// Package stages holds the asset stages and the build and dist pipelines composed from them.
//
// Every stage is defined once at package level and instantiated with its options:
//
//	pipeline.Compose("build", stages.Build.New(cfg))
//
// Tasks wires the pipelines to a filesystem: build reads the sources and merges the
// result into the temporary directory, dist reads the temporary directory and merges the
// optimised, revisioned result into the distribution directory.
package stages
