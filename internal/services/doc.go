// Package services defines shared utilities consumed by the tracker, the
// import collaborator and the download client integrations.
//
// Key responsibilities:
//   - Context helpers that stamp download IDs, stage names, client names and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify collaborator
//     failures consistently in logs and tracked download warnings.
//
// Use these helpers when wiring new collaborators so operational behaviour
// (error handling, observability, retries) stays uniform across the daemon.
package services
