package pagerank_test

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/linksrus/pagerank/graph"
	"github.com/linksrus/pagerank/pagerank"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(SamplerTestSuite))

type SamplerTestSuite struct {
}

func (s *SamplerTestSuite) TestMutualLinkConvergesToIterativeSolution(c *gc.C) {
	g := graph.FromMap(map[string][]string{"A": {"B"}, "B": {"A"}})

	// Make the random walk deterministic.
	ranks, err := pagerank.SamplePageRank(g, 0.85, 100000, rand.New(rand.NewSource(42)))
	c.Assert(err, gc.IsNil)

	exp, err := pagerank.IteratePageRank(g, 0.85)
	c.Assert(err, gc.IsNil)

	for page, expScore := range exp {
		absDelta := math.Abs(ranks[page] - expScore)
		c.Assert(absDelta <= 0.02, gc.Equals, true, gc.Commentf("expected score for %v to be %f ± 0.02; got %f", page, expScore, ranks[page]))
	}
	c.Assert(math.Abs(ranks.Sum()-1.0) <= 1e-6, gc.Equals, true)
}

func (s *SamplerTestSuite) TestMultipleChainsApproximateSolver(c *gc.C) {
	g := graph.FromMap(map[string][]string{
		"1.html": {"2.html"},
		"2.html": {"1.html", "3.html"},
		"3.html": {"2.html", "4.html"},
		"4.html": {"2.html"},
		"5.html": nil,
	})

	sampler, err := pagerank.NewSampler(pagerank.SamplerConfig{
		Samples: 200000,
		Chains:  4,
		Seed:    42,
	})
	c.Assert(err, gc.IsNil)
	ranks, err := sampler.Estimate(context.TODO(), g)
	c.Assert(err, gc.IsNil)

	exp, err := pagerank.IteratePageRank(g, pagerank.DefaultDampingFactor)
	c.Assert(err, gc.IsNil)

	c.Assert(ranks, gc.HasLen, g.Len())
	for page, expScore := range exp {
		absDelta := math.Abs(ranks[page] - expScore)
		c.Assert(absDelta <= 0.02, gc.Equals, true, gc.Commentf("expected score for %v to be %f ± 0.02; got %f", page, expScore, ranks[page]))
	}
	c.Assert(math.Abs(ranks.Sum()-1.0) <= 1e-6, gc.Equals, true)
}

func (s *SamplerTestSuite) TestSameSeedIsReproducible(c *gc.C) {
	g := graph.FromMap(map[string][]string{
		"A": {"B", "C"},
		"B": {"C"},
		"C": {"A"},
		"D": nil,
	})

	sampler, err := pagerank.NewSampler(pagerank.SamplerConfig{Samples: 5000, Seed: 1234})
	c.Assert(err, gc.IsNil)
	first, err := sampler.Estimate(context.TODO(), g)
	c.Assert(err, gc.IsNil)
	second, err := sampler.Estimate(context.TODO(), g)
	c.Assert(err, gc.IsNil)
	c.Assert(first, gc.DeepEquals, second)

	// A single chain seeded with 1234 walks exactly like an explicit
	// generator seeded with the same value.
	direct, err := pagerank.SamplePageRank(g, pagerank.DefaultDampingFactor, 5000, rand.New(rand.NewSource(1234)))
	c.Assert(err, gc.IsNil)
	c.Assert(direct, gc.DeepEquals, first)
}

func (s *SamplerTestSuite) TestSeedDerivedFromClock(c *gc.C) {
	g := graph.FromMap(map[string][]string{"A": {"B"}, "B": {"C"}, "C": nil})

	clk := testclock.NewClock(time.Unix(0, 777))
	sampler, err := pagerank.NewSampler(pagerank.SamplerConfig{Samples: 1000, Clock: clk})
	c.Assert(err, gc.IsNil)
	got, err := sampler.Estimate(context.TODO(), g)
	c.Assert(err, gc.IsNil)

	sampler, err = pagerank.NewSampler(pagerank.SamplerConfig{Samples: 1000, Seed: 777})
	c.Assert(err, gc.IsNil)
	exp, err := sampler.Estimate(context.TODO(), g)
	c.Assert(err, gc.IsNil)

	c.Assert(got, gc.DeepEquals, exp)
}

func (s *SamplerTestSuite) TestMoreChainsThanSamples(c *gc.C) {
	g := graph.FromMap(map[string][]string{"A": {"B"}, "B": {"A"}})

	sampler, err := pagerank.NewSampler(pagerank.SamplerConfig{Samples: 3, Chains: 10, Seed: 1})
	c.Assert(err, gc.IsNil)
	ranks, err := sampler.Estimate(context.TODO(), g)
	c.Assert(err, gc.IsNil)
	c.Assert(math.Abs(ranks.Sum()-1.0) <= 1e-9, gc.Equals, true)
}

func (s *SamplerTestSuite) TestSinglePageGraph(c *gc.C) {
	g := graph.FromMap(map[string][]string{"only": {"only"}})

	ranks, err := pagerank.SamplePageRank(g, 0.85, 10, rand.New(rand.NewSource(1)))
	c.Assert(err, gc.IsNil)
	c.Assert(ranks, gc.DeepEquals, pagerank.Ranks{"only": 1.0})
}

func (s *SamplerTestSuite) TestEmptyGraph(c *gc.C) {
	_, err := pagerank.SamplePageRank(graph.FromMap(nil), 0.85, 100, rand.New(rand.NewSource(1)))
	c.Assert(xerrors.Is(err, pagerank.ErrEmptyGraph), gc.Equals, true)

	sampler, err := pagerank.NewSampler(pagerank.SamplerConfig{Samples: 100})
	c.Assert(err, gc.IsNil)
	_, err = sampler.Estimate(context.TODO(), graph.FromMap(nil))
	c.Assert(xerrors.Is(err, pagerank.ErrEmptyGraph), gc.Equals, true)
}

func (s *SamplerTestSuite) TestInvalidSampleCount(c *gc.C) {
	g := graph.FromMap(map[string][]string{"A": nil})

	_, err := pagerank.SamplePageRank(g, 0.85, 0, rand.New(rand.NewSource(1)))
	c.Assert(xerrors.Is(err, pagerank.ErrInvalidSampleCount), gc.Equals, true)

	_, err = pagerank.NewSampler(pagerank.SamplerConfig{Samples: -5})
	c.Assert(xerrors.Is(err, pagerank.ErrInvalidSampleCount), gc.Equals, true)
}

func (s *SamplerTestSuite) TestInvalidDampingFactor(c *gc.C) {
	g := graph.FromMap(map[string][]string{"A": {"B"}, "B": {"A"}})
	for _, d := range []float64{-0.1, 1, math.NaN(), math.Inf(-1)} {
		_, err := pagerank.SamplePageRank(g, d, 1000, rand.New(rand.NewSource(1)))
		c.Assert(xerrors.Is(err, pagerank.ErrInvalidDampingFactor), gc.Equals, true, gc.Commentf("damping %v", d))

		_, err = pagerank.NewSampler(pagerank.SamplerConfig{DampingFactor: d, Samples: 1000})
		c.Assert(xerrors.Is(err, pagerank.ErrInvalidDampingFactor), gc.Equals, true, gc.Commentf("damping %v", d))
	}
}

func (s *SamplerTestSuite) TestCancelledContext(c *gc.C) {
	g := graph.FromMap(map[string][]string{"A": {"B"}, "B": {"A"}})
	sampler, err := pagerank.NewSampler(pagerank.SamplerConfig{Samples: 100000, Chains: 2, Seed: 1})
	c.Assert(err, gc.IsNil)

	ctx, cancelFn := context.WithCancel(context.TODO())
	cancelFn()
	_, err = sampler.Estimate(ctx, g)
	c.Assert(err, gc.ErrorMatches, "(?ms).*context canceled.*")
}
