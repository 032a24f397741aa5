// Package language normalizes the language codes found in configuration,
// catalogue seeds and edition metadata.
//
// Every form (ISO 639-1, ISO 639-2 terminology or bibliographic, BCP 47
// tags and English names) is reduced to the ISO 639-2/T three-letter code
// so values from different sources compare equal.
package language
