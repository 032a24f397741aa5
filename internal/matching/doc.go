// Package matching scores catalogue candidates against metadata observed on
// a downloaded file and picks the closest one.
//
// Calculator turns one observed/candidate pair into a distance.Distance using
// the book-level factors. Ranker applies the calculator to every candidate,
// selects the lowest normalized distance (earlier candidates win ties) and
// only accepts the winner when it falls below the configured threshold.
// Both types are immutable after construction and safe for concurrent use.
package matching
