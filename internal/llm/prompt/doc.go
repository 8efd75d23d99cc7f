// Package prompt loads Jinja2-style {{ }} prompt templates from files and
// renders them against a set of variables, so a step body can keep its
// prompt text out of Go source.
package prompt
