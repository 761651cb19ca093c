package pagerank

import (
	"math"

	"github.com/linksrus/pagerank/graph"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(RanksTestSuite))

type RanksTestSuite struct{}

func (s *RanksTestSuite) TestNewRanksNormalizes(c *gc.C) {
	g := graph.FromMap(map[string][]string{"A": {"B"}, "B": nil})

	ranks, err := newRanks(g, []float64{1, 3})
	c.Assert(err, gc.IsNil)
	c.Assert(ranks, gc.DeepEquals, Ranks{"A": 0.25, "B": 0.75})
	c.Assert(ranks.Sum(), gc.Equals, 1.0)
}

func (s *RanksTestSuite) TestNewRanksRejectsMasslessScores(c *gc.C) {
	g := graph.FromMap(map[string][]string{"A": {"B"}, "B": nil})

	for _, scores := range [][]float64{
		{0, 0},
		{math.NaN(), 0.5},
		{math.Inf(1), 0.5},
		{-1, 0.5},
	} {
		_, err := newRanks(g, scores)
		c.Assert(xerrors.Is(err, ErrNoRankMass), gc.Equals, true, gc.Commentf("scores %v", scores))
	}
}
