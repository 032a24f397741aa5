// Package ipc exposes the running daemon over JSON-RPC on a Unix domain
// socket so the CLI can query tracked downloads and request retries.
package ipc
