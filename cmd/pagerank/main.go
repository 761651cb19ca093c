package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/linksrus/pagerank/corpus"
	"github.com/linksrus/pagerank/graph/store/cdb"
	"github.com/linksrus/pagerank/httpapi"
	"github.com/linksrus/pagerank/pagerank"
	"github.com/linksrus/pagerank/report"
	"github.com/linksrus/pagerank/service"
	"github.com/linksrus/pagerank/service/ranker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"
)

var (
	appName = "linksrus-pagerank"
	appSha  = "populated-at-link-time"
	logger  *logrus.Entry
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSha,
		"host": host,
	})

	if err := makeApp(rootLogger).Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to error")
		_ = os.Stderr.Sync()
		os.Exit(1)
	}
}

func makeApp(rootLogger *logrus.Logger) *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Version = appSha
	app.Usage = "estimate PageRank scores for a corpus of linked pages"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "log-level",
			Value:  "info",
			EnvVar: "LOG_LEVEL",
			Usage:  "The minimum level for emitted log entries",
		},
	}
	app.Before = func(appCtx *cli.Context) error {
		lvl, err := logrus.ParseLevel(appCtx.GlobalString("log-level"))
		if err != nil {
			return err
		}
		rootLogger.SetLevel(lvl)
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "rank",
			Usage:     "rank the pages of a corpus directory or a CockroachDB link graph",
			ArgsUsage: "[CORPUS_DIR]",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:   "graph-dsn",
					EnvVar: "GRAPH_DSN",
					Usage:  "The URI for connecting to a CockroachDB link graph instead of reading a corpus directory",
				},
				cli.Float64Flag{
					Name:   "damping",
					Value:  pagerank.DefaultDampingFactor,
					EnvVar: "DAMPING_FACTOR",
					Usage:  "The probability of following a link instead of jumping to a random page",
				},
				cli.IntFlag{
					Name:   "samples",
					Value:  10000,
					EnvVar: "SAMPLES",
					Usage:  "The number of pages to visit when estimating by sampling",
				},
				cli.IntFlag{
					Name:   "chains",
					Value:  1,
					EnvVar: "CHAINS",
					Usage:  "The number of independent random walks to split the samples across",
				},
				cli.Int64Flag{
					Name:   "seed",
					EnvVar: "SEED",
					Usage:  "The random seed for the sampler; 0 derives one from the clock",
				},
				cli.IntFlag{
					Name:   "num-workers",
					Value:  runtime.NumCPU(),
					EnvVar: "NUM_WORKERS",
					Usage:  "The number of workers for parsing pages and updating scores",
				},
				cli.IntFlag{
					Name:   "max-iterations",
					Value:  1000,
					EnvVar: "MAX_ITERATIONS",
					Usage:  "The iteration budget of the solver",
				},
				cli.Float64Flag{
					Name:   "tolerance",
					Value:  0.001,
					EnvVar: "TOLERANCE",
					Usage:  "The largest per-page score change at which the solver stops",
				},
				cli.StringFlag{
					Name:   "format",
					Value:  string(report.FormatText),
					EnvVar: "REPORT_FORMAT",
					Usage:  "The output format; one of 'text' or 'json'",
				},
			},
			Action: runRank,
		},
		{
			Name:  "serve",
			Usage: "expose the estimators over an HTTP API",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:   "listen-addr",
					Value:  ":8080",
					EnvVar: "LISTEN_ADDR",
					Usage:  "The address to listen for API requests",
				},
				cli.IntFlag{
					Name:   "max-pages",
					Value:  100000,
					EnvVar: "MAX_PAGES",
					Usage:  "The largest graph (in pages) accepted by the API",
				},
				cli.IntFlag{
					Name:   "default-samples",
					Value:  10000,
					EnvVar: "DEFAULT_SAMPLES",
					Usage:  "The number of samples used when a request does not specify one",
				},
				cli.IntFlag{
					Name:   "max-samples",
					Value:  1000000,
					EnvVar: "MAX_SAMPLES",
					Usage:  "The largest sample count a request may ask for",
				},
				cli.IntFlag{
					Name:   "max-workers",
					Value:  runtime.NumCPU(),
					EnvVar: "MAX_WORKERS",
					Usage:  "The largest number of workers or chains a request may ask for",
				},
			},
			Action: runServe,
		},
	}
	return app
}

func runRank(appCtx *cli.Context) error {
	// Zero would otherwise select the default damping factor.
	dampingFactor := appCtx.Float64("damping")
	if err := pagerank.CheckDampingFactor(dampingFactor); err != nil {
		return xerrors.Errorf("--damping: %w", err)
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()
	go watchSignals(ctx, cancelFn)

	source, closeFn, err := getGraphSource(appCtx)
	if err != nil {
		return err
	}
	defer closeFn()

	format, err := report.ParseFormat(appCtx.String("format"))
	if err != nil {
		return err
	}

	sampler, err := pagerank.NewSampler(pagerank.SamplerConfig{
		DampingFactor: dampingFactor,
		Samples:       appCtx.Int("samples"),
		Chains:        appCtx.Int("chains"),
		Seed:          appCtx.Int64("seed"),
	})
	if err != nil {
		return err
	}
	solver, err := pagerank.NewSolver(pagerank.SolverConfig{
		DampingFactor:  dampingFactor,
		Tolerance:      appCtx.Float64("tolerance"),
		MaxIterations:  appCtx.Int("max-iterations"),
		ComputeWorkers: appCtx.Int("num-workers"),
		StepCallback: func(iteration int, maxDelta float64) {
			logger.WithFields(logrus.Fields{
				"iteration": iteration,
				"max_delta": maxDelta,
			}).Debug("solver step")
		},
	})
	if err != nil {
		return err
	}

	svc, err := ranker.NewService(ranker.Config{
		GraphSource: source,
		Estimators:  []pagerank.Estimator{sampler, solver},
		Sink:        report.NewWriter(os.Stdout, format, sampler.Samples()),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return svc.Run(ctx)
}

func runServe(appCtx *cli.Context) error {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()
	go watchSignals(ctx, cancelFn)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	srv, err := httpapi.NewServer(httpapi.Config{
		ListenAddr:     appCtx.String("listen-addr"),
		DefaultSamples: appCtx.Int("default-samples"),
		MaxSamples:     appCtx.Int("max-samples"),
		MaxWorkers:     appCtx.Int("max-workers"),
		MaxPages:       appCtx.Int("max-pages"),
		Registry:       reg,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	return service.Group{srv}.Run(ctx)
}

// getGraphSource returns the graph source selected by the command line and
// a function that releases its resources.
func getGraphSource(appCtx *cli.Context) (ranker.GraphSource, func(), error) {
	if dsn := appCtx.String("graph-dsn"); dsn != "" {
		src, err := cdb.NewSource(dsn)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	}

	if appCtx.NArg() != 1 {
		return nil, nil, xerrors.Errorf("usage: %s rank CORPUS_DIR", appName)
	}
	loader, err := corpus.NewLoader(corpus.Config{
		Dir:     appCtx.Args().First(),
		Workers: appCtx.Int("num-workers"),
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return loader, func() {}, nil
}

func watchSignals(ctx context.Context, cancelFn func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	select {
	case s := <-sigCh:
		logger.WithField("signal", s.String()).Infof("shutting down due to signal")
		cancelFn()
	case <-ctx.Done():
	}
}
