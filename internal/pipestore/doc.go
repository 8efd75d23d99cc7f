// Package pipestore provides a thread-safe, in-memory implementation of
// the persistence store a pipeline run serializes its context into: a
// latest snapshot per variable plus a full historical trail, keyed by
// run, pipeline, and variable name.
package pipestore
