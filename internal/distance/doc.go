// Package distance accumulates weighted penalty factors describing how far an
// observed item is from a catalogued candidate.
//
// A Distance is built incrementally during one scoring pass: every Add* call
// appends one or more penalties in [0, 1] under a named factor. The weight
// table passed to New decides how much each factor contributes. The
// normalized distance (raw weighted sum divided by the maximum achievable
// weighted sum) is always in [0, 1]; lower is a better match.
//
// Factor names must be registered in the weight table. Using an unknown name
// or constructing a table with a negative weight is a programming error and
// panics.
package distance
