// Package workflow drives the download tracker from download client polls.
//
// Each poll lists the items of every configured client, registers them with
// the tracker (resolving the expected books from grab history on first
// sight) and runs Check and Import for active downloads on a bounded worker
// pool. Downloads with different identifiers progress in parallel; the
// tracker serialises work on the same download.
package workflow
