// Package pipedecl loads a Pipeline's graph shape from HCL files: step
// names, their consumes/produces key lists, and an optional retry policy.
// Step bodies stay Go code — each step block names an action that must
// already be registered in an ActionRegistry — so an HCL manifest only
// ever describes wiring, never behavior.
package pipedecl
