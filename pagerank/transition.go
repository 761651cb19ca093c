package pagerank

import (
	"github.com/linksrus/pagerank/graph"
	"golang.org/x/xerrors"
)

// TransitionModel returns the probability distribution over which page a
// random surfer visits after page.
//
// With probability dampingFactor the surfer follows one of the links of page
// (chosen uniformly); with probability 1-dampingFactor it jumps to a page
// chosen uniformly from the whole graph. A dangling page only receives the
// jump mass; its redistribution is left to the estimators. If page is not part
// of g, the uniform distribution is returned.
func TransitionModel(g *graph.Graph, page string, dampingFactor float64) (Distribution, error) {
	if g.Len() == 0 {
		return nil, xerrors.Errorf("transition model: %w", ErrEmptyGraph)
	}

	from, ok := g.Index(page)
	if !ok {
		from = -1
	}

	probs := make([]float64, g.Len())
	transitionProbs(g, from, dampingFactor, probs)

	dist := make(Distribution, len(probs))
	for i, p := range probs {
		dist[g.Page(i)] = p
	}
	return dist, nil
}

// transitionProbs writes the transition distribution for the page with index
// from into probs, which must have one slot per page. A negative from selects
// the uniform distribution.
func transitionProbs(g *graph.Graph, from int, dampingFactor float64, probs []float64) {
	numPages := float64(len(probs))
	if from < 0 {
		for i := range probs {
			probs[i] = 1.0 / numPages
		}
		return
	}

	base := (1.0 - dampingFactor) / numPages
	for i := range probs {
		probs[i] = base
	}

	links := g.Links(from)
	if len(links) == 0 {
		return
	}

	share := dampingFactor / float64(len(links))
	for _, dst := range links {
		probs[dst] += share
	}
}
