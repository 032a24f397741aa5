// Package download models downloads reported by download clients and the
// lifecycle record the tracker keeps for each of them.
//
// A TrackedDownload moves through Downloading → ImportPending → Importing →
// Imported | ImportFailed. Failed verification sends it back to
// ImportPending, never to Downloading. The package also owns the path rules
// that decide whether a client-reported output path is usable on this host,
// including remote path mappings for clients running on another machine.
package download
