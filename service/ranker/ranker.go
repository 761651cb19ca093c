package ranker

import (
	"context"
	"io/ioutil"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/linksrus/pagerank/graph"
	"github.com/linksrus/pagerank/pagerank"
	"github.com/linksrus/pagerank/service"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/linksrus/pagerank/service/ranker GraphSource,ScoreSink
//go:generate mockgen -package mocks -destination mocks/mock_estimator.go github.com/linksrus/pagerank/pagerank Estimator

// GraphSource is implemented by types that can produce the link graph to be
// ranked.
type GraphSource interface {
	LoadGraph(ctx context.Context) (*graph.Graph, error)
}

// ScoreSink is implemented by types that can receive the rank vector that an
// estimator produced.
type ScoreSink interface {
	Persist(estimator string, ranks pagerank.Ranks) error
}

// Config encapsulates the settings for configuring the ranking service.
type Config struct {
	// The source of the link graph.
	GraphSource GraphSource

	// The estimators to run against the graph. They run concurrently but
	// their results are handed to the Sink in this order.
	Estimators []pagerank.Estimator

	// The sink for the computed rank vectors.
	Sink ScoreSink

	// A clock instance for measuring how long each phase takes. If not
	// specified, the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.GraphSource == nil {
		err = multierror.Append(err, xerrors.Errorf("graph source has not been provided"))
	}
	if len(cfg.Estimators) == 0 {
		err = multierror.Append(err, xerrors.Errorf("no estimators have been provided"))
	}
	if cfg.Sink == nil {
		err = multierror.Append(err, xerrors.Errorf("score sink has not been provided"))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Service loads a link graph, ranks it with every configured estimator and
// hands the results to a sink.
type Service struct {
	cfg Config
}

// NewService creates a new ranking service instance with the specified config.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("ranker service: config validation failed: %w", err)
	}

	return &Service{cfg: cfg}, nil
}

// Name implements service.Service
func (svc *Service) Name() string { return "PageRank ranker" }

// Run implements service.Service. It performs a single ranking pass and
// returns once all results have been persisted.
func (svc *Service) Run(ctx context.Context) error {
	logger := svc.cfg.Logger.WithField("run_id", uuid.New().String())
	logger.Info("starting ranking pass")
	startAt := svc.cfg.Clock.Now()

	g, err := svc.cfg.GraphSource.LoadGraph(ctx)
	if err != nil {
		return xerrors.Errorf("load graph: %w", err)
	}
	graphLoadTime := svc.cfg.Clock.Now().Sub(startAt)

	// The graph is never mutated so all estimators can share it.
	results := make([]pagerank.Ranks, len(svc.cfg.Estimators))
	group := make(service.Group, len(svc.cfg.Estimators))
	for i, est := range svc.cfg.Estimators {
		group[i] = svc.estimateTask(g, est, &results[i], logger)
	}
	if err = group.Run(ctx); err != nil {
		return err
	}

	for i, est := range svc.cfg.Estimators {
		if err = svc.cfg.Sink.Persist(est.Name(), results[i]); err != nil {
			return xerrors.Errorf("persist %s scores: %w", est.Name(), err)
		}
	}

	logger.WithFields(logrus.Fields{
		"pages":           g.Len(),
		"graph_load_time": graphLoadTime.String(),
		"total_pass_time": svc.cfg.Clock.Now().Sub(startAt).String(),
	}).Info("completed ranking pass")
	return nil
}

// estimateTask wraps an estimator into a service that stores its result in
// out.
func (svc *Service) estimateTask(g *graph.Graph, est pagerank.Estimator, out *pagerank.Ranks, logger *logrus.Entry) service.Service {
	return service.Func{
		ServiceName: est.Name(),
		RunFn: func(ctx context.Context) error {
			tick := svc.cfg.Clock.Now()
			ranks, err := est.Estimate(ctx, g)
			if err != nil {
				return err
			}

			*out = ranks
			logger.WithFields(logrus.Fields{
				"estimator":     est.Name(),
				"estimate_time": svc.cfg.Clock.Now().Sub(tick).String(),
			}).Info("estimation complete")
			return nil
		},
	}
}
