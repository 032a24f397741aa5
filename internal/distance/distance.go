package distance

import (
	"math"
	"slices"
	"strings"

	"shelver/internal/textutil"
)

// Distance accumulates penalties per factor for a single scoring pass.
// It is not safe for concurrent use; each scoring call owns its own value.
type Distance struct {
	weights   Weights
	order     []string
	penalties map[string][]float64
}

// New returns an empty Distance scored against weights.
func New(weights Weights) *Distance {
	return &Distance{
		weights:   weights,
		penalties: make(map[string][]float64, 16),
	}
}

// Add appends one raw penalty for factor.
func (d *Distance) Add(factor string, penalty float64) {
	d.weights.Weight(factor)
	if _, ok := d.penalties[factor]; !ok {
		d.order = append(d.order, factor)
	}
	d.penalties[factor] = append(d.penalties[factor], penalty)
}

// AddRatio adds value as a fraction of target, clamped to [0, target].
// Overshooting the target is not punished; a non-positive target adds 0.
func (d *Distance) AddRatio(factor string, value, target float64) {
	if target <= 0 {
		d.Add(factor, 0)
		return
	}
	d.Add(factor, math.Max(math.Min(value, target), 0)/target)
}

// AddNumber adds one 1.0 penalty per unit of difference between value and
// target. Equal values add a single 0.0 penalty so the factor still counts
// toward the maximum distance.
func (d *Distance) AddNumber(factor string, value, target int) {
	diff := value - target
	if diff < 0 {
		diff = -diff
	}
	if diff == 0 {
		d.Add(factor, 0)
		return
	}
	for range diff {
		d.Add(factor, 1)
	}
}

// AddString adds the smallest string penalty achievable across all pairings
// of values and targets. An empty slice behaves like a single empty string.
func (d *Distance) AddString(factor string, values, targets []string) {
	if len(values) == 0 {
		values = []string{""}
	}
	if len(targets) == 0 {
		targets = []string{""}
	}
	best := 1.0
	for _, value := range values {
		for _, target := range targets {
			best = math.Min(best, StringPenalty(value, target))
		}
	}
	d.Add(factor, best)
}

// AddBool adds 1.0 when mismatch is true and 0.0 otherwise.
func (d *Distance) AddBool(factor string, mismatch bool) {
	if mismatch {
		d.Add(factor, 1)
		return
	}
	d.Add(factor, 0)
}

// AddEquality adds 0.0 when value is one of options and 1.0 otherwise.
func AddEquality[T comparable](d *Distance, factor string, value T, options []T) {
	d.AddBool(factor, !slices.Contains(options, value))
}

// AddPriority adds index/len(options) for value's position in options, or
// 1.0 when value is absent.
func AddPriority[T comparable](d *Distance, factor string, value T, options []T) {
	index := slices.Index(options, value)
	if index < 0 {
		d.Add(factor, 1)
		return
	}
	d.Add(factor, float64(index)/float64(len(options)))
}

// AddPriorityAny adds the penalty of the best-ranked option found among
// values, or 1.0 when none of the options is present.
func AddPriorityAny[T comparable](d *Distance, factor string, values, options []T) {
	for i, option := range options {
		if slices.Contains(values, option) {
			d.Add(factor, float64(i)/float64(len(options)))
			return
		}
	}
	d.Add(factor, 1)
}

// StringPenalty returns 1 - similarity of the cleaned strings. An empty value
// against a non-empty target is maximally penalised; two empty strings match.
func StringPenalty(value, target string) float64 {
	cleanValue := textutil.Clean(value)
	cleanTarget := textutil.Clean(target)
	switch {
	case cleanValue == "" && cleanTarget == "":
		return 0
	case cleanValue == "" || cleanTarget == "":
		return 1
	default:
		return 1 - textutil.LevenshteinCoefficient(cleanValue, cleanTarget)
	}
}

// MaxDistance is the sum over factors of weight × number of penalties.
func (d *Distance) MaxDistance() float64 {
	return d.maxDistance(nil)
}

// RawDistance is the sum over factors of weight × sum of penalties.
func (d *Distance) RawDistance() float64 {
	return d.rawDistance(nil)
}

// Normalized returns RawDistance / MaxDistance, or 0 when nothing was added.
func (d *Distance) Normalized() float64 {
	return d.normalized(nil)
}

// NormalizedExcluding is Normalized computed without the named factors.
func (d *Distance) NormalizedExcluding(factors ...string) float64 {
	return d.normalized(factors)
}

func (d *Distance) normalized(excluded []string) float64 {
	maxDist := d.maxDistance(excluded)
	if maxDist <= 0 {
		return 0
	}
	return d.rawDistance(excluded) / maxDist
}

func (d *Distance) maxDistance(excluded []string) float64 {
	var total float64
	for _, factor := range d.order {
		if slices.Contains(excluded, factor) {
			continue
		}
		total += float64(len(d.penalties[factor])) * d.weights.Weight(factor)
	}
	return total
}

func (d *Distance) rawDistance(excluded []string) float64 {
	var total float64
	for _, factor := range d.order {
		if slices.Contains(excluded, factor) {
			continue
		}
		var sum float64
		for _, penalty := range d.penalties[factor] {
			sum += penalty
		}
		total += sum * d.weights.Weight(factor)
	}
	return total
}

// Reasons lists the factors whose largest penalty is above zero, in the
// order they were first added, e.g. "[book, isbn missing]". It returns an
// empty string when every factor matched perfectly.
func (d *Distance) Reasons() string {
	names := d.PenalizedFactors()
	if len(names) == 0 {
		return ""
	}
	for i, name := range names {
		names[i] = strings.ReplaceAll(name, "_", " ")
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// PenalizedFactors returns the raw factor names behind Reasons.
func (d *Distance) PenalizedFactors() []string {
	var names []string
	for _, factor := range d.order {
		if slices.Max(d.penalties[factor]) > 0 {
			names = append(names, factor)
		}
	}
	return names
}

// Penalties returns a copy of the accumulated penalties keyed by factor.
func (d *Distance) Penalties() map[string][]float64 {
	out := make(map[string][]float64, len(d.penalties))
	for factor, values := range d.penalties {
		out[factor] = slices.Clone(values)
	}
	return out
}

// Factors returns the factor names in insertion order.
func (d *Distance) Factors() []string {
	return slices.Clone(d.order)
}
