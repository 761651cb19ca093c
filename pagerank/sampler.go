package pagerank

import (
	"context"
	"math/rand"
	"sync"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/linksrus/pagerank/graph"
	"golang.org/x/xerrors"
)

// The number of steps a random walk takes between context checks.
const ctxCheckInterval = 1024

var _ Estimator = (*Sampler)(nil)

// Sampler estimates PageRank scores by simulating random surfers over the
// graph and counting how often each page gets visited.
type Sampler struct {
	cfg SamplerConfig
}

// NewSampler returns a new Sampler instance using the provided config options.
func NewSampler(cfg SamplerConfig) (*Sampler, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("PageRank sampler config validation failed: %w", err)
	}
	return &Sampler{cfg: cfg}, nil
}

// Name implements Estimator.
func (s *Sampler) Name() string { return "sampling" }

// Samples returns the total number of samples drawn by each Estimate call.
func (s *Sampler) Samples() int { return s.cfg.Samples }

// Estimate implements Estimator. The configured samples are split across the
// configured number of chains, each walking the graph in its own go-routine
// with a private random source.
func (s *Sampler) Estimate(ctx context.Context, g *graph.Graph) (Ranks, error) {
	if g.Len() == 0 {
		return nil, xerrors.Errorf("PageRank sampler: %w", ErrEmptyGraph)
	}

	seed := s.cfg.Seed
	if seed == 0 {
		seed = s.cfg.Clock.Now().UnixNano()
	}

	numChains := s.cfg.Chains
	if numChains > s.cfg.Samples {
		numChains = s.cfg.Samples
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		err      error
		visits   = make([]int, g.Len())
		perChain = s.cfg.Samples / numChains
		extra    = s.cfg.Samples % numChains
	)
	for chain := 0; chain < numChains; chain++ {
		quota := perChain
		if chain < extra {
			quota++
		}

		wg.Add(1)
		go func(chain, quota int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(chain)))
			chainVisits, walkErr := walk(ctx, g, s.cfg.DampingFactor, quota, rng)

			mu.Lock()
			defer mu.Unlock()
			if walkErr != nil {
				err = multierror.Append(err, xerrors.Errorf("chain %d: %w", chain, walkErr))
				return
			}
			for i, count := range chainVisits {
				visits[i] += count
			}
		}(chain, quota)
	}
	wg.Wait()

	if err != nil {
		return nil, xerrors.Errorf("PageRank sampler: %w", err)
	}
	ranks, err := visitsToRanks(g, visits, s.cfg.Samples)
	if err != nil {
		return nil, xerrors.Errorf("PageRank sampler: %w", err)
	}
	return ranks, nil
}

// SamplePageRank estimates the PageRank scores of g by following a single
// random walk of n steps. Page selections are drawn from rng so that callers
// can make the estimate reproducible.
func SamplePageRank(g *graph.Graph, dampingFactor float64, n int, rng *rand.Rand) (Ranks, error) {
	if err := CheckDampingFactor(dampingFactor); err != nil {
		return nil, err
	} else if n <= 0 {
		return nil, xerrors.Errorf("samples = %d: %w", n, ErrInvalidSampleCount)
	} else if g.Len() == 0 {
		return nil, xerrors.Errorf("PageRank sampler: %w", ErrEmptyGraph)
	}

	visits, err := walk(context.Background(), g, dampingFactor, n, rng)
	if err != nil {
		return nil, err
	}
	return visitsToRanks(g, visits, n)
}

// walk starts from a random page and takes n steps according to the
// transition model, returning the number of visits to each page. The walk
// stops early if the transition model yields no probability mass.
func walk(ctx context.Context, g *graph.Graph, dampingFactor float64, n int, rng *rand.Rand) ([]int, error) {
	var (
		visits = make([]int, g.Len())
		probs  = make([]float64, g.Len())
		cur    = rng.Intn(g.Len())
	)
	for step := 0; step < n; step++ {
		if step%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		transitionProbs(g, cur, dampingFactor, probs)
		next, ok := weightedChoice(probs, rng)
		if !ok {
			break
		}

		visits[next]++
		cur = next
	}
	return visits, nil
}

// weightedChoice picks an index of weights with probability proportional to
// its weight. It returns false if the weights carry no mass.
func weightedChoice(weights []float64, rng *rand.Rand) (int, bool) {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0, false
	}

	target := rng.Float64() * total
	for i, w := range weights {
		if target < w {
			return i, true
		}
		target -= w
	}

	// Rounding can leave a sliver of target behind; attribute it to the
	// last page that carries any weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i, true
		}
	}
	return 0, false
}

func visitsToRanks(g *graph.Graph, visits []int, n int) (Ranks, error) {
	scores := make([]float64, len(visits))
	for i, count := range visits {
		scores[i] = float64(count) / float64(n)
	}
	return newRanks(g, scores)
}
