// Package library persists the book catalogue and the download history log
// in SQLite.
//
// The catalogue holds authors, books and editions and feeds candidate
// ranking. The history log records grabs, per-file imports and download
// outcomes; the tracker reads it to resolve which books a download was
// expected to deliver and to reconcile partial imports across passes.
package library
