// Package daemon coordinates the long-running shelver process.
//
// It wires configuration, the library store and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances.
// Individual tracking steps live in their own packages; the daemon only owns
// startup, shutdown and status reporting.
package daemon
