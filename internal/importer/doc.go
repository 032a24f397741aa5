// Package importer decides which catalogued book each file of a completed
// download belongs to.
//
// Files are found by extension glob, their names are parsed into observed
// metadata and ranked against catalogue candidates. Accepted files are
// recorded in the history log as book_file_imported; the package never
// moves, copies or renames files.
package importer
