package download

// ImportResultKind is the outcome of importing one file.
type ImportResultKind string

const (
	ImportImported ImportResultKind = "imported"
	ImportRejected ImportResultKind = "rejected"
	ImportSkipped  ImportResultKind = "skipped"
)

// ImportResult is the per-file outcome reported by the import collaborator.
type ImportResult struct {
	Kind      ImportResultKind
	Path      string
	Book      *Book
	EditionID int64
	Errors    []string
}

// Imported reports whether the file was imported.
func (r ImportResult) Imported() bool {
	return r.Kind == ImportImported
}

// ImportedBookIDs returns the distinct ids of books covered by imported
// results, in first-seen order.
func ImportedBookIDs(results []ImportResult) []int64 {
	seen := make(map[int64]struct{}, len(results))
	var ids []int64
	for _, result := range results {
		if !result.Imported() || result.Book == nil {
			continue
		}
		if _, ok := seen[result.Book.ID]; ok {
			continue
		}
		seen[result.Book.ID] = struct{}{}
		ids = append(ids, result.Book.ID)
	}
	return ids
}
