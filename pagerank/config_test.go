package pagerank

import (
	"math"

	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(ConfigTestSuite))

type ConfigTestSuite struct{}

func (s *ConfigTestSuite) TestSolverConfigDefaults(c *gc.C) {
	var cfg SolverConfig
	c.Assert(cfg.validate(), gc.IsNil)
	c.Assert(cfg.DampingFactor, gc.Equals, DefaultDampingFactor)
	c.Assert(cfg.Tolerance, gc.Equals, defaultTolerance)
	c.Assert(cfg.MaxIterations, gc.Equals, defaultMaxIterations)
	c.Assert(cfg.ComputeWorkers, gc.Equals, 1)
}

func (s *ConfigTestSuite) TestSolverConfigValidation(c *gc.C) {
	cfg := SolverConfig{DampingFactor: 1.0}
	c.Assert(cfg.validate(), gc.ErrorMatches, "(?ms).*damping factor must be in the range.*")

	cfg = SolverConfig{Tolerance: -1}
	c.Assert(cfg.validate(), gc.ErrorMatches, "(?ms).*Tolerance must be in the range.*")

	cfg = SolverConfig{Tolerance: math.NaN()}
	c.Assert(cfg.validate(), gc.ErrorMatches, "(?ms).*Tolerance must be in the range.*")

	cfg = SolverConfig{DampingFactor: math.NaN()}
	c.Assert(cfg.validate(), gc.ErrorMatches, "(?ms).*damping factor must be in the range.*")

	cfg = SolverConfig{MaxIterations: -1}
	c.Assert(cfg.validate(), gc.ErrorMatches, "(?ms).*MaxIterations must not be negative.*")

	cfg = SolverConfig{DampingFactor: -0.5, Tolerance: 2}
	err := cfg.validate()
	c.Assert(err, gc.ErrorMatches, "(?ms).*damping factor.*")
	c.Assert(err, gc.ErrorMatches, "(?ms).*Tolerance.*")
}

func (s *ConfigTestSuite) TestSamplerConfigDefaults(c *gc.C) {
	cfg := SamplerConfig{Samples: 10}
	c.Assert(cfg.validate(), gc.IsNil)
	c.Assert(cfg.DampingFactor, gc.Equals, DefaultDampingFactor)
	c.Assert(cfg.Chains, gc.Equals, 1)
	c.Assert(cfg.Clock, gc.Not(gc.IsNil), gc.Commentf("default clock was not assigned"))
}

func (s *ConfigTestSuite) TestSamplerConfigValidation(c *gc.C) {
	cfg := SamplerConfig{}
	c.Assert(cfg.validate(), gc.ErrorMatches, "(?ms).*sample count must be positive.*")

	cfg = SamplerConfig{Samples: 10, DampingFactor: 1.2}
	c.Assert(cfg.validate(), gc.ErrorMatches, "(?ms).*damping factor must be in the range.*")
}
