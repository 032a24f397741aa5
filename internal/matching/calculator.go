package matching

import (
	"slices"
	"strings"

	"shelver/internal/distance"
	"shelver/internal/language"
)

// yearTolerance is the year difference that earns the full year penalty.
const yearTolerance = 10

// Calculator builds the distance between an observed file and a candidate.
type Calculator struct {
	weights   distance.Weights
	languages []string
}

// NewCalculator returns a calculator scoring with weights. preferredLanguages
// ranks candidate languages; an empty list disables the country factor.
func NewCalculator(weights distance.Weights, preferredLanguages []string) *Calculator {
	return &Calculator{weights: weights, languages: language.NormalizeList(preferredLanguages)}
}

// BookDistance scores candidate against observed. Factors without data on
// either side are left out so they do not count toward the maximum.
func (c *Calculator) BookDistance(observed Observed, candidate Candidate) *distance.Distance {
	dist := distance.New(c.weights)

	authorNames := append([]string{candidate.AuthorName}, candidate.AuthorAliases...)
	dist.AddString(distance.FactorAuthor, observed.Authors, authorNames)

	titles := []string{candidate.BookTitle}
	if candidate.EditionTitle != "" && candidate.EditionTitle != candidate.BookTitle {
		titles = append(titles, candidate.EditionTitle)
	}
	for _, title := range slices.Clone(titles) {
		if short, _, found := strings.Cut(title, ":"); found {
			titles = append(titles, short)
		}
	}
	dist.AddString(distance.FactorBook, observed.Titles, titles)

	if isbn := NormalizeISBN(observed.ISBN); isbn != "" {
		if target := NormalizeISBN(candidate.ISBN13); target != "" {
			dist.AddBool(distance.FactorISBN, isbn != target)
		} else {
			dist.Add(distance.FactorISBNMissing, 1)
		}
	}

	if asin := strings.ToUpper(strings.TrimSpace(observed.ASIN)); asin != "" {
		if target := strings.ToUpper(strings.TrimSpace(candidate.ASIN)); target != "" {
			dist.AddBool(distance.FactorASIN, asin != target)
		} else {
			dist.Add(distance.FactorASINMissing, 1)
		}
	}

	if observed.ForeignBookID != "" && candidate.ForeignBookID != "" {
		dist.AddBool(distance.FactorBookID, observed.ForeignBookID != candidate.ForeignBookID)
	}

	if observed.Year > 0 && candidate.Year > 0 {
		diff := observed.Year - candidate.Year
		if diff < 0 {
			diff = -diff
		}
		dist.AddRatio(distance.FactorYear, float64(diff), yearTolerance)
	}

	if observed.MediaCount > 0 && candidate.MediaCount > 0 {
		dist.AddNumber(distance.FactorMediaCount, observed.MediaCount, candidate.MediaCount)
	}

	ext := strings.ToLower(strings.TrimPrefix(observed.Extension, "."))
	if allowed := FormatExtensions(candidate.Format); ext != "" && len(allowed) > 0 {
		distance.AddEquality(dist, distance.FactorMediaFormat, ext, allowed)
	}

	if len(c.languages) > 0 && candidate.Language != "" {
		distance.AddPriority(dist, distance.FactorCountry, language.Normalize(candidate.Language), c.languages)
	}

	if observed.Publisher != "" && candidate.Publisher != "" {
		dist.AddString(distance.FactorLabel, []string{observed.Publisher}, []string{candidate.Publisher})
	}

	if observed.Disambiguation != "" {
		dist.AddString(distance.FactorBookDisambiguation, []string{observed.Disambiguation}, []string{candidate.Disambiguation})
	}

	return dist
}
