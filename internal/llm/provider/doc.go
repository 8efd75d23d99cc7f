// Package provider adapts chat-completion HTTP APIs behind one
// ChatCompleter interface, with a Registry of named constructors keyed by
// provider tag, the way a pipeline step looks up which provider to call
// without the step body importing a concrete SDK.
package provider
