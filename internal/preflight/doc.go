// Package preflight provides readiness checks for the filesystem paths and
// external services shelver depends on.
//
// The daemon runner logs failed checks at startup and the CLI "check"
// command prints every result. Checks for optional features are skipped
// when the feature is not configured.
package preflight
