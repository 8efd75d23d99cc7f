// Package sse reads a server-sent-event stream of "data:" lines off an
// io.Reader, for a step body that wants to surface a provider's partial
// completion tokens into its own MutableView as they arrive.
package sse
