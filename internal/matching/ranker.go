package matching

import (
	"fmt"
	"log/slog"
	"slices"

	"shelver/internal/distance"
	"shelver/internal/logging"
)

// DefaultThreshold is the normalized distance below which a match is accepted.
const DefaultThreshold = 0.25

// Scored is one candidate with its distance.
type Scored struct {
	Candidate  Candidate
	Distance   *distance.Distance
	Normalized float64
}

// Ranking is the outcome of ranking candidates for one observed file.
type Ranking struct {
	Scored   []Scored
	Best     *Scored
	Accepted bool
}

// Match returns the accepted candidate, if any.
func (r Ranking) Match() (Candidate, bool) {
	if !r.Accepted || r.Best == nil {
		return Candidate{}, false
	}
	return r.Best.Candidate, true
}

// Reason explains why the best candidate was or was not accepted.
func (r Ranking) Reason(threshold float64) string {
	if r.Best == nil {
		return "no candidates"
	}
	reasons := r.Best.Distance.Reasons()
	if r.Accepted {
		if reasons == "" {
			return "exact match"
		}
		return "penalized " + reasons
	}
	return fmt.Sprintf("closest candidate %q at %.3f is above threshold %.3f %s",
		r.Best.Candidate.DisplayTitle(), r.Best.Normalized, threshold, reasons)
}

// Ranker selects the closest candidate for observed metadata.
type Ranker struct {
	calculator *Calculator
	threshold  float64
	ignore     []string
	logger     *slog.Logger
}

// RankerOption customises a Ranker.
type RankerOption func(*Ranker)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) RankerOption {
	return func(r *Ranker) { r.threshold = threshold }
}

// WithIgnoredFactors excludes factors from the normalized comparison.
func WithIgnoredFactors(factors ...string) RankerOption {
	return func(r *Ranker) { r.ignore = slices.Clone(factors) }
}

// WithLogger attaches a logger for decision tracing.
func WithLogger(logger *slog.Logger) RankerOption {
	return func(r *Ranker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRanker wraps calculator with ranking and acceptance rules.
func NewRanker(calculator *Calculator, opts ...RankerOption) *Ranker {
	r := &Ranker{
		calculator: calculator,
		threshold:  DefaultThreshold,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the acceptance threshold.
func (r *Ranker) Threshold() float64 {
	return r.threshold
}

// Rank scores every candidate and picks the one with the smallest normalized
// distance. Ties keep the earlier candidate.
func (r *Ranker) Rank(observed Observed, candidates []Candidate) Ranking {
	ranking := Ranking{Scored: make([]Scored, 0, len(candidates))}
	bestIndex := -1
	for _, candidate := range candidates {
		dist := r.calculator.BookDistance(observed, candidate)
		normalized := dist.NormalizedExcluding(r.ignore...)
		ranking.Scored = append(ranking.Scored, Scored{
			Candidate:  candidate,
			Distance:   dist,
			Normalized: normalized,
		})
		if bestIndex < 0 || normalized < ranking.Scored[bestIndex].Normalized {
			bestIndex = len(ranking.Scored) - 1
		}
	}
	if bestIndex < 0 {
		r.logger.Debug("book match decision",
			logging.Args(append(logging.DecisionAttrs("book_match", "unmatched", "no candidates"),
				logging.String("path", observed.Path))...)...)
		return ranking
	}

	ranking.Best = &ranking.Scored[bestIndex]
	ranking.Accepted = ranking.Best.Normalized < r.threshold

	result := "unmatched"
	if ranking.Accepted {
		result = "matched"
	}
	attrs := logging.DecisionAttrs("book_match", result, ranking.Reason(r.threshold))
	attrs = append(attrs,
		logging.String("path", observed.Path),
		logging.Int64("book_id", ranking.Best.Candidate.BookID),
		logging.Int64("edition_id", ranking.Best.Candidate.EditionID),
		logging.Float64("distance", ranking.Best.Normalized),
		logging.Int("candidate_count", len(candidates)),
	)
	r.logger.Debug("book match decision", logging.Args(attrs...)...)
	return ranking
}
