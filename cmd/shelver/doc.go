// Package main hosts the shelver CLI entrypoint and command graph.
//
// The Cobra command tree runs the tracking daemon, loads the catalogue,
// records grabs, previews matches for a download directory, runs manual
// imports and prints the download history against the library database.
// The status and retry commands talk to a running daemon over its control
// socket. Heavy lifting lives in the internal packages.
package main
