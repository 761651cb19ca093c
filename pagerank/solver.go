package pagerank

import (
	"context"
	"math"
	"sync"

	"github.com/linksrus/pagerank/graph"
	"github.com/linksrus/pagerank/partition"
	"golang.org/x/xerrors"
)

var _ Estimator = (*Solver)(nil)

// Solver executes the iterative version of the PageRank algorithm on a graph
// until the desired level of convergence is reached.
type Solver struct {
	cfg SolverConfig
}

// NewSolver returns a new Solver instance using the provided config options.
func NewSolver(cfg SolverConfig) (*Solver, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("PageRank solver config validation failed: %w", err)
	}
	return &Solver{cfg: cfg}, nil
}

// Name implements Estimator.
func (s *Solver) Name() string { return "iteration" }

// Estimate implements Estimator. Each iteration reads the scores of the
// previous iteration and writes a separate score vector; the pages are split
// into contiguous ranges, one per compute worker.
func (s *Solver) Estimate(ctx context.Context, g *graph.Graph) (Ranks, error) {
	numPages := g.Len()
	if numPages == 0 {
		return nil, xerrors.Errorf("PageRank solver: %w", ErrEmptyGraph)
	}

	parts, err := partition.NewFullRange(numPages, s.cfg.ComputeWorkers)
	if err != nil {
		return nil, xerrors.Errorf("PageRank solver: %w", err)
	}

	st := newSolverState(g, s.cfg.DampingFactor)
	deltas := make([]float64, parts.NumPartitions())
	for iter := 1; iter <= s.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, xerrors.Errorf("PageRank solver: %w", err)
		}

		st.step(parts, deltas)

		maxDelta := 0.0
		for _, d := range deltas {
			maxDelta = math.Max(maxDelta, d)
		}
		if s.cfg.StepCallback != nil {
			s.cfg.StepCallback(iter, maxDelta)
		}

		if maxDelta <= s.cfg.Tolerance {
			ranks, err := newRanks(g, st.next)
			if err != nil {
				return nil, xerrors.Errorf("PageRank solver: %w", err)
			}
			return ranks, nil
		}
		st.cur, st.next = st.next, st.cur
	}

	return nil, xerrors.Errorf("PageRank solver: gave up after %d iterations: %w", s.cfg.MaxIterations, ErrNoConvergence)
}

// IteratePageRank computes the PageRank scores of g by repeatedly applying the
// PageRank update until no score changes by more than 0.001.
func IteratePageRank(g *graph.Graph, dampingFactor float64) (Ranks, error) {
	if err := CheckDampingFactor(dampingFactor); err != nil {
		return nil, err
	}

	solver, err := NewSolver(SolverConfig{DampingFactor: dampingFactor})
	if err != nil {
		return nil, err
	}
	return solver.Estimate(context.Background(), g)
}

// solverState holds the read-only link structure of a graph together with
// the double-buffered score vectors.
type solverState struct {
	dampingFactor float64
	numPages      float64

	// inLinks[p] lists, in ascending order, the pages that link to p.
	inLinks   [][]int
	outDegree []float64
	dangling  []int

	cur  []float64
	next []float64
}

func newSolverState(g *graph.Graph, dampingFactor float64) *solverState {
	numPages := g.Len()
	st := &solverState{
		dampingFactor: dampingFactor,
		numPages:      float64(numPages),
		inLinks:       make([][]int, numPages),
		outDegree:     make([]float64, numPages),
		cur:           make([]float64, numPages),
		next:          make([]float64, numPages),
	}

	for src := 0; src < numPages; src++ {
		links := g.Links(src)
		st.outDegree[src] = float64(len(links))
		if len(links) == 0 {
			st.dangling = append(st.dangling, src)
		}
		for _, dst := range links {
			st.inLinks[dst] = append(st.inLinks[dst], src)
		}
	}

	// Evenly distribute the initial scores across all pages.
	for i := range st.cur {
		st.cur[i] = 1.0 / st.numPages
	}
	return st
}

// step computes next from cur and records the maximum absolute score change
// of each partition into deltas.
func (st *solverState) step(parts partition.Range, deltas []float64) {
	// Dead-ends are treated as if they linked to every page, so their
	// score is spread evenly across the graph.
	var danglingSum float64
	for _, src := range st.dangling {
		danglingSum += st.cur[src]
	}
	base := (1.0-st.dampingFactor)/st.numPages + st.dampingFactor*danglingSum/st.numPages

	if parts.NumPartitions() == 1 {
		deltas[0] = st.update(0, len(st.cur), base)
		return
	}

	var wg sync.WaitGroup
	for p := 0; p < parts.NumPartitions(); p++ {
		from, to, _ := parts.PartitionExtents(p)
		wg.Add(1)
		go func(p, from, to int) {
			defer wg.Done()
			deltas[p] = st.update(from, to, base)
		}(p, from, to)
	}
	wg.Wait()
}

// update computes the next score for pages in [from, to) and returns the
// largest absolute change among them.
func (st *solverState) update(from, to int, base float64) float64 {
	var maxDelta float64
	for p := from; p < to; p++ {
		var linkSum float64
		for _, src := range st.inLinks[p] {
			linkSum += st.cur[src] / st.outDegree[src]
		}

		newScore := base + st.dampingFactor*linkSum
		maxDelta = math.Max(maxDelta, math.Abs(newScore-st.cur[p]))
		st.next[p] = newScore
	}
	return maxDelta
}
