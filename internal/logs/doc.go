// Package logs reads the daemon's JSON log file for `shelver logs`.
//
// Tail and ReadFrom work on byte offsets so follow mode only reads what
// was appended since the previous call; a file that shrank is treated as
// rotated and read from the start. Parse and Filter narrow entries to one
// download or component.
package logs
