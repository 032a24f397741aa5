// Package notifications delivers tracked download events via pluggable
// publishers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Two event kinds cover the terminal outcomes of an import attempt:
// a completed download and an incomplete import that needs an operator.
//
// Publishers compose with Multi so the tracker can feed ntfy, the history
// log and the process log from one Publish call; tracker code depends only
// on the Publisher interface.
package notifications
