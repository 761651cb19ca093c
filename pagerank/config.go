package pagerank

import (
	multierror "github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"golang.org/x/xerrors"
)

const (
	// DefaultDampingFactor is the damping factor used when none is configured.
	DefaultDampingFactor = 0.85

	defaultTolerance     = 0.001
	defaultMaxIterations = 1000
)

// SolverConfig encapsulates the parameters for creating a new power-iteration
// Solver instance.
type SolverConfig struct {
	// DampingFactor is the probability that a random surfer will click on
	// one of the outgoing links on the page they are currently visiting
	// instead of visiting (teleporting to) a random page in the graph.
	//
	// If not specified, a default value of 0.85 will be used instead.
	DampingFactor float64

	// After each iteration the solver computes the maximum absolute
	// difference between the previous and the updated score of every
	// page. Iteration stops once that difference drops to Tolerance or
	// below.
	//
	// If not specified, a default value of 0.001 will be used instead.
	Tolerance float64

	// MaxIterations bounds the number of iterations. If the scores have
	// not converged by then, Estimate fails with ErrNoConvergence.
	//
	// If not specified, a default value of 1000 will be used instead.
	MaxIterations int

	// The number of workers to spin up for updating the page scores of
	// each iteration. If not specified, a default value of 1 will be used
	// instead.
	ComputeWorkers int

	// StepCallback, if defined, is invoked after each iteration with the
	// (1-based) iteration number and the maximum absolute score delta.
	StepCallback func(iteration int, maxDelta float64)
}

// validate checks whether the solver configuration is valid and sets the
// default values where required.
func (c *SolverConfig) validate() error {
	var err error
	if dErr := defaultDampingFactor(&c.DampingFactor); dErr != nil {
		err = multierror.Append(err, dErr)
	}

	if !(c.Tolerance >= 0 && c.Tolerance < 1.0) {
		err = multierror.Append(err, xerrors.New("Tolerance must be in the range (0, 1)"))
	} else if c.Tolerance == 0 {
		c.Tolerance = defaultTolerance
	}

	if c.MaxIterations < 0 {
		err = multierror.Append(err, xerrors.New("MaxIterations must not be negative"))
	} else if c.MaxIterations == 0 {
		c.MaxIterations = defaultMaxIterations
	}

	if c.ComputeWorkers <= 0 {
		c.ComputeWorkers = 1
	}

	return err
}

// SamplerConfig encapsulates the parameters for creating a new random-walk
// Sampler instance.
type SamplerConfig struct {
	// DampingFactor is the probability of following one of the links of
	// the current page instead of jumping to a random page.
	//
	// If not specified, a default value of 0.85 will be used instead.
	DampingFactor float64

	// The total number of pages to visit. Must be positive.
	Samples int

	// The number of independent random walks to run in parallel. Samples
	// are split between the chains and their visit counts are summed. If
	// not specified, a single chain will be used.
	Chains int

	// Seed for the random number generators. Chain i is seeded with
	// Seed+i. If not specified, a seed is derived from the clock.
	Seed int64

	// A clock instance for deriving seeds. If not specified, the default
	// wall-clock will be used instead.
	Clock clock.Clock
}

// validate checks whether the sampler configuration is valid and sets the
// default values where required.
func (c *SamplerConfig) validate() error {
	var err error
	if dErr := defaultDampingFactor(&c.DampingFactor); dErr != nil {
		err = multierror.Append(err, dErr)
	}

	if c.Samples <= 0 {
		err = multierror.Append(err, xerrors.Errorf("samples = %d: %w", c.Samples, ErrInvalidSampleCount))
	}

	if c.Chains <= 0 {
		c.Chains = 1
	}

	if c.Clock == nil {
		c.Clock = clock.WallClock
	}

	return err
}

func defaultDampingFactor(d *float64) error {
	if *d == 0 {
		*d = DefaultDampingFactor
		return nil
	}
	return CheckDampingFactor(*d)
}

// CheckDampingFactor returns ErrInvalidDampingFactor unless d lies strictly
// between 0 and 1. NaN is rejected.
func CheckDampingFactor(d float64) error {
	if !(d > 0 && d < 1.0) {
		return xerrors.Errorf("damping factor %v: %w", d, ErrInvalidDampingFactor)
	}
	return nil
}
