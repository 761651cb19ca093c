package pagerank

import (
	"context"
	"math"
	"sort"

	"github.com/linksrus/pagerank/graph"
	"golang.org/x/xerrors"
)

// Estimator is implemented by types that can compute a rank vector for a
// graph.
type Estimator interface {
	// Name returns a short description of the estimation method.
	Name() string

	// Estimate computes the rank of every page in g.
	Estimate(ctx context.Context, g *graph.Graph) (Ranks, error)
}

// Distribution maps each page of a graph to the probability of visiting it
// next.
type Distribution map[string]float64

// Sum returns the total probability mass of the distribution.
func (d Distribution) Sum() float64 { return sumSorted(d) }

// Ranks maps each page of a graph to its PageRank score. The scores of a
// rank vector sum to 1.
type Ranks map[string]float64

// Sum returns the sum of all scores.
func (r Ranks) Sum() float64 { return sumSorted(r) }

// Pages returns the ranked pages in lexicographic order.
func (r Ranks) Pages() []string { return sortedKeys(r) }

// newRanks converts an index-based score vector into a Ranks map, scaling the
// scores so they add up to exactly 1.
func newRanks(g *graph.Graph, scores []float64) (Ranks, error) {
	var total float64
	for _, v := range scores {
		total += v
	}
	if !(total > 0) || math.IsInf(total, 1) {
		return nil, xerrors.Errorf("score total %v: %w", total, ErrNoRankMass)
	}

	ranks := make(Ranks, len(scores))
	for i, v := range scores {
		ranks[g.Page(i)] = v / total
	}
	return ranks, nil
}

func sumSorted(m map[string]float64) float64 {
	var sum float64
	for _, k := range sortedKeys(m) {
		sum += m[k]
	}
	return sum
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
