// Package modelconfig loads a YAML file of named model profiles — which
// provider to call, which model id, and default sampling parameters — so
// a pipeline step can resolve "which model to use" by name rather than by
// hardcoded constants.
package modelconfig
