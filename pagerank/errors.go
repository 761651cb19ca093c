package pagerank

import "golang.org/x/xerrors"

var (
	// ErrEmptyGraph is returned when a computation requires dividing by the
	// number of pages in a graph that has none.
	ErrEmptyGraph = xerrors.New("graph contains no pages")

	// ErrInvalidSampleCount is returned when the sampler is asked to draw
	// a non-positive number of samples.
	ErrInvalidSampleCount = xerrors.New("sample count must be positive")

	// ErrInvalidDampingFactor is returned when the damping factor does not
	// lie in the (0, 1) range.
	ErrInvalidDampingFactor = xerrors.New("damping factor must be in the range (0, 1)")

	// ErrNoConvergence is returned by the solver when the iteration budget
	// is exhausted before the rank vector stabilises.
	ErrNoConvergence = xerrors.New("rank vector did not converge")

	// ErrNoRankMass is returned when the computed scores do not add up to
	// a positive, finite total and therefore cannot be normalised.
	ErrNoRankMass = xerrors.New("rank vector carries no probability mass")
)
