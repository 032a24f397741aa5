package distance

import (
	"fmt"
	"maps"
	"sort"
)

// Factor names understood by the default weight table.
const (
	FactorSource             = "source"
	FactorAuthor             = "author"
	FactorBook               = "book"
	FactorISBN               = "isbn"
	FactorISBNMissing        = "isbn_missing"
	FactorASIN               = "asin"
	FactorASINMissing        = "asin_missing"
	FactorMediaCount         = "media_count"
	FactorMediaFormat        = "media_format"
	FactorYear               = "year"
	FactorCountry            = "country"
	FactorLabel              = "label"
	FactorCatalogNumber      = "catalog_number"
	FactorBookDisambiguation = "book_disambiguation"
	FactorBookID             = "book_id"
	FactorTracks             = "tracks"
	FactorMissingTracks      = "missing_tracks"
	FactorUnmatchedTracks    = "unmatched_tracks"
	FactorTrackTitle         = "track_title"
	FactorTrackAuthor        = "track_author"
	FactorTrackIndex         = "track_index"
	FactorTrackLength        = "track_length"
	FactorRecordingID        = "recording_id"
)

// defaultWeights mirrors the beets matcher defaults.
var defaultWeights = map[string]float64{
	FactorSource:             2.0,
	FactorAuthor:             3.0,
	FactorBook:               3.0,
	FactorISBN:               10.0,
	FactorISBNMissing:        0.1,
	FactorASIN:               10.0,
	FactorASINMissing:        0.1,
	FactorMediaCount:         1.0,
	FactorMediaFormat:        1.0,
	FactorYear:               1.0,
	FactorCountry:            0.5,
	FactorLabel:              0.5,
	FactorCatalogNumber:      0.5,
	FactorBookDisambiguation: 0.5,
	FactorBookID:             5.0,
	FactorTracks:             2.0,
	FactorMissingTracks:      0.6,
	FactorUnmatchedTracks:    0.9,
	FactorTrackTitle:         3.0,
	FactorTrackAuthor:        2.0,
	FactorTrackIndex:         1.0,
	FactorTrackLength:        2.0,
	FactorRecordingID:        10.0,
}

// Weights is an immutable factor → weight table. The zero value has no
// factors registered.
type Weights struct {
	values map[string]float64
}

// NewWeights builds a table from the provided map. The map is copied.
// It panics when any weight is negative.
func NewWeights(values map[string]float64) Weights {
	cp := make(map[string]float64, len(values))
	for name, weight := range values {
		if weight < 0 {
			panic(fmt.Sprintf("distance: negative weight %v for factor %q", weight, name))
		}
		cp[name] = weight
	}
	return Weights{values: cp}
}

// DefaultWeights returns the stock weight table.
func DefaultWeights() Weights {
	return NewWeights(defaultWeights)
}

// WithOverrides returns a new table with the given factors replaced or added.
func (w Weights) WithOverrides(overrides map[string]float64) Weights {
	merged := make(map[string]float64, len(w.values)+len(overrides))
	maps.Copy(merged, w.values)
	maps.Copy(merged, overrides)
	return NewWeights(merged)
}

// Weight returns the weight for factor. It panics for unregistered factors.
func (w Weights) Weight(factor string) float64 {
	weight, ok := w.values[factor]
	if !ok {
		panic(fmt.Sprintf("distance: unknown factor %q", factor))
	}
	return weight
}

// Has reports whether factor is registered.
func (w Weights) Has(factor string) bool {
	_, ok := w.values[factor]
	return ok
}

// Factors returns the registered factor names in sorted order.
func (w Weights) Factors() []string {
	names := make([]string, 0, len(w.values))
	for name := range w.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
