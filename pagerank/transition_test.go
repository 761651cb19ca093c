package pagerank_test

import (
	"math"

	"github.com/linksrus/pagerank/graph"
	"github.com/linksrus/pagerank/pagerank"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(TransitionModelTestSuite))

type TransitionModelTestSuite struct {
	g *graph.Graph
}

func (s *TransitionModelTestSuite) SetUpTest(c *gc.C) {
	s.g = graph.FromMap(map[string][]string{
		"1.html": {"2.html", "3.html"},
		"2.html": {"3.html"},
		"3.html": {"2.html"},
		"4.html": nil,
	})
}

func (s *TransitionModelTestSuite) TestPageWithLinks(c *gc.C) {
	dist, err := pagerank.TransitionModel(s.g, "1.html", 0.85)
	c.Assert(err, gc.IsNil)

	assertDistribution(c, dist, map[string]float64{
		"1.html": 0.0375,
		"2.html": 0.0375 + 0.425,
		"3.html": 0.0375 + 0.425,
		"4.html": 0.0375,
	})
	c.Assert(math.Abs(dist.Sum()-1.0) <= 1e-9, gc.Equals, true)
}

func (s *TransitionModelTestSuite) TestDanglingPageOnlyGetsBaseMass(c *gc.C) {
	dist, err := pagerank.TransitionModel(s.g, "4.html", 0.85)
	c.Assert(err, gc.IsNil)

	assertDistribution(c, dist, map[string]float64{
		"1.html": 0.0375,
		"2.html": 0.0375,
		"3.html": 0.0375,
		"4.html": 0.0375,
	})
}

func (s *TransitionModelTestSuite) TestUnknownPageFallsBackToUniform(c *gc.C) {
	dist, err := pagerank.TransitionModel(s.g, "nonexistent_page", 0.85)
	c.Assert(err, gc.IsNil)

	assertDistribution(c, dist, map[string]float64{
		"1.html": 0.25,
		"2.html": 0.25,
		"3.html": 0.25,
		"4.html": 0.25,
	})
}

func (s *TransitionModelTestSuite) TestReturnsFreshMap(c *gc.C) {
	first, err := pagerank.TransitionModel(s.g, "2.html", 0.85)
	c.Assert(err, gc.IsNil)
	first["3.html"] = 42

	second, err := pagerank.TransitionModel(s.g, "2.html", 0.85)
	c.Assert(err, gc.IsNil)
	c.Assert(math.Abs(second["3.html"]-(0.0375+0.85)) <= 1e-9, gc.Equals, true)
}

func (s *TransitionModelTestSuite) TestEmptyGraph(c *gc.C) {
	_, err := pagerank.TransitionModel(graph.FromMap(nil), "1.html", 0.85)
	c.Assert(xerrors.Is(err, pagerank.ErrEmptyGraph), gc.Equals, true)
}

func assertDistribution(c *gc.C, got pagerank.Distribution, exp map[string]float64) {
	c.Assert(got, gc.HasLen, len(exp))
	for page, expProb := range exp {
		gotProb, ok := got[page]
		c.Assert(ok, gc.Equals, true, gc.Commentf("missing page %q", page))
		c.Assert(math.Abs(gotProb-expProb) <= 1e-9, gc.Equals, true, gc.Commentf("page %q: expected %f; got %f", page, expProb, gotProb))
	}
}
