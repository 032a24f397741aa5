// Package textutil provides the text normalisation and similarity helpers used
// when comparing noisy download metadata against catalogue records.
//
// The primary use cases are:
//   - Cleaning strings for comparison (case folding, diacritic stripping,
//     removal of everything that is not a letter or digit)
//   - Computing Levenshtein edit distance and the derived similarity
//     coefficient in [0, 1]
//   - Title-casing names derived from file paths
package textutil
