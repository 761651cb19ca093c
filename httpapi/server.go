package httpapi

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/linksrus/pagerank/graph"
	"github.com/linksrus/pagerank/pagerank"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

const (
	iterateEndpoint    = "/api/v1/rank/iterate"
	sampleEndpoint     = "/api/v1/rank/sample"
	transitionEndpoint = "/api/v1/transition"
	metricsEndpoint    = "/metrics"

	requestIDHeader = "X-Request-Id"

	defaultSamples    = 10000
	defaultMaxSamples = 1000000
	defaultMaxWorkers = 32
	defaultMaxPages   = 100000
	maxBodyBytes      = 64 << 20
)

var (
	errTooManyPages   = xerrors.New("graph exceeds the maximum number of pages")
	errTooManySamples = xerrors.New("sample count exceeds the server limit")
	errTooManyWorkers = xerrors.New("worker count exceeds the server limit")
)

// Config encapsulates the settings for configuring the ranking API server.
type Config struct {
	// The address to listen for incoming requests.
	ListenAddr string

	// The number of samples to draw when a sampling request does not
	// specify one. If not specified, a default value of 10000 will be used
	// instead.
	DefaultSamples int

	// The largest sample count a sampling request may ask for. If not
	// specified, a default value of 1000000 will be used instead.
	MaxSamples int

	// The largest number of solver workers or sampler chains a request may
	// ask for. If not specified, a default value of 32 will be used
	// instead.
	MaxWorkers int

	// The largest graph (in pages) that the server accepts. If not
	// specified, a default value of 100000 will be used instead.
	MaxPages int

	// The registry for the server metrics. If not specified, a new
	// registry will be created.
	Registry *prometheus.Registry

	// A clock instance for measuring request latencies. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.ListenAddr == "" {
		err = multierror.Append(err, xerrors.Errorf("listen address has not been specified"))
	}
	if cfg.DefaultSamples < 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for default samples"))
	} else if cfg.DefaultSamples == 0 {
		cfg.DefaultSamples = defaultSamples
	}
	if cfg.MaxSamples < 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for max samples"))
	} else if cfg.MaxSamples == 0 {
		cfg.MaxSamples = defaultMaxSamples
	}
	if cfg.DefaultSamples > cfg.MaxSamples && cfg.MaxSamples > 0 {
		err = multierror.Append(err, xerrors.Errorf("default samples must not exceed max samples"))
	}
	if cfg.MaxWorkers < 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for max workers"))
	} else if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	if cfg.MaxPages < 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for max pages"))
	} else if cfg.MaxPages == 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Server exposes the PageRank estimators over HTTP.
type Server struct {
	cfg     Config
	router  *mux.Router
	metrics *metrics
}

// NewServer creates a new API server instance with the specified config.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("ranking API: config validation failed: %w", err)
	}

	srv := &Server{
		cfg:     cfg,
		router:  mux.NewRouter(),
		metrics: newMetrics(cfg.Registry),
	}

	srv.router.Use(srv.instrument)
	srv.router.HandleFunc(iterateEndpoint, srv.rankByIteration).Methods("POST")
	srv.router.HandleFunc(sampleEndpoint, srv.rankBySampling).Methods("POST")
	srv.router.HandleFunc(transitionEndpoint, srv.transition).Methods("POST")
	srv.router.Handle(metricsEndpoint, promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods("GET")
	return srv, nil
}

// Name implements service.Service
func (srv *Server) Name() string { return "ranking API" }

// Run implements service.Service
func (srv *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", srv.cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	httpSrv := &http.Server{
		Addr:    srv.cfg.ListenAddr,
		Handler: srv.router,
	}

	go func() {
		<-ctx.Done()
		_ = httpSrv.Close()
	}()

	srv.cfg.Logger.WithField("addr", srv.cfg.ListenAddr).Info("starting ranking API server")
	if err = httpSrv.Serve(l); err == http.ErrServerClosed {
		// Ignore error when the server shuts down.
		err = nil
	}

	return err
}

type rankResponse struct {
	Estimator string         `json:"estimator"`
	Ranks     pagerank.Ranks `json:"ranks"`
}

type transitionResponse struct {
	Page         string                `json:"page"`
	Distribution pagerank.Distribution `json:"distribution"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (srv *Server) rankByIteration(w http.ResponseWriter, r *http.Request) {
	var (
		q   = r.URL.Query()
		cfg pagerank.SolverConfig
		err error
	)
	if cfg.DampingFactor, err = parseDamping(q); err != nil {
		srv.writeError(w, http.StatusBadRequest, err)
		return
	}
	if cfg.ComputeWorkers, err = srv.parseWorkers(q); err != nil {
		srv.writeError(w, http.StatusBadRequest, err)
		return
	}
	if cfg.MaxIterations, err = parseInt(q.Get("max_iterations")); err != nil {
		srv.writeError(w, http.StatusBadRequest, xerrors.Errorf("max_iterations: %w", err))
		return
	}

	var iterations int
	cfg.StepCallback = func(iteration int, _ float64) { iterations = iteration }
	solver, err := pagerank.NewSolver(cfg)
	if err != nil {
		srv.writeError(w, http.StatusBadRequest, err)
		return
	}

	srv.rank(w, r, solver)
	if iterations > 0 {
		srv.metrics.iterations.Observe(float64(iterations))
	}
}

func (srv *Server) rankBySampling(w http.ResponseWriter, r *http.Request) {
	var (
		q   = r.URL.Query()
		cfg pagerank.SamplerConfig
		err error
	)
	if cfg.DampingFactor, err = parseDamping(q); err != nil {
		srv.writeError(w, http.StatusBadRequest, err)
		return
	}
	if cfg.Samples, err = parseInt(q.Get("samples")); err != nil {
		srv.writeError(w, http.StatusBadRequest, xerrors.Errorf("samples: %w", err))
		return
	} else if _, specified := q["samples"]; !specified {
		cfg.Samples = srv.cfg.DefaultSamples
	} else if cfg.Samples > srv.cfg.MaxSamples {
		srv.writeError(w, http.StatusBadRequest, xerrors.Errorf("samples = %d (limit %d): %w", cfg.Samples, srv.cfg.MaxSamples, errTooManySamples))
		return
	}
	if cfg.Chains, err = srv.parseWorkers(q); err != nil {
		srv.writeError(w, http.StatusBadRequest, err)
		return
	}
	seed, err := parseInt(q.Get("seed"))
	if err != nil {
		srv.writeError(w, http.StatusBadRequest, xerrors.Errorf("seed: %w", err))
		return
	}
	cfg.Seed = int64(seed)
	cfg.Clock = srv.cfg.Clock

	sampler, err := pagerank.NewSampler(cfg)
	if err != nil {
		srv.writeError(w, http.StatusBadRequest, err)
		return
	}

	srv.rank(w, r, sampler)
}

func (srv *Server) rank(w http.ResponseWriter, r *http.Request, est pagerank.Estimator) {
	g, status, err := srv.decodeGraph(w, r)
	if err != nil {
		srv.writeError(w, status, err)
		return
	}

	tick := srv.cfg.Clock.Now()
	ranks, err := est.Estimate(r.Context(), g)
	srv.metrics.estimateTime.WithLabelValues(est.Name()).Observe(srv.cfg.Clock.Now().Sub(tick).Seconds())
	if err != nil {
		srv.writeError(w, statusFor(err), err)
		return
	}

	srv.writeJSON(w, http.StatusOK, rankResponse{Estimator: est.Name(), Ranks: ranks})
}

func (srv *Server) transition(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := q.Get("page")
	if page == "" {
		srv.writeError(w, http.StatusBadRequest, xerrors.Errorf("page has not been specified"))
		return
	}
	dampingFactor, err := parseDamping(q)
	if err != nil {
		srv.writeError(w, http.StatusBadRequest, err)
		return
	}

	g, status, err := srv.decodeGraph(w, r)
	if err != nil {
		srv.writeError(w, status, err)
		return
	}

	dist, err := pagerank.TransitionModel(g, page, dampingFactor)
	if err != nil {
		srv.writeError(w, statusFor(err), err)
		return
	}
	srv.writeJSON(w, http.StatusOK, transitionResponse{Page: page, Distribution: dist})
}

// decodeGraph reads the graph from the request body. On failure it also
// returns the HTTP status that describes the problem.
func (srv *Server) decodeGraph(w http.ResponseWriter, r *http.Request) (*graph.Graph, int, error) {
	var g graph.Graph
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&g); err != nil {
		return nil, http.StatusBadRequest, xerrors.Errorf("malformed graph: %w", err)
	}
	if g.Len() > srv.cfg.MaxPages {
		return nil, http.StatusRequestEntityTooLarge, xerrors.Errorf("%d pages: %w", g.Len(), errTooManyPages)
	}
	if g.Len() == 0 {
		return nil, http.StatusUnprocessableEntity, pagerank.ErrEmptyGraph
	}
	return &g, 0, nil
}

func statusFor(err error) int {
	switch {
	case xerrors.Is(err, pagerank.ErrEmptyGraph):
		return http.StatusUnprocessableEntity
	case xerrors.Is(err, pagerank.ErrInvalidDampingFactor), xerrors.Is(err, pagerank.ErrInvalidSampleCount):
		return http.StatusBadRequest
	case xerrors.Is(err, context.Canceled), xerrors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (srv *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Error: err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func (srv *Server) writeError(w http.ResponseWriter, status int, err error) {
	srv.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// instrument tags each response with a request ID and records the request
// metrics.
func (srv *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.New().String()
		w.Header().Set(requestIDHeader, reqID)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		tick := srv.cfg.Clock.Now()
		next.ServeHTTP(rec, r)

		srv.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		srv.cfg.Logger.WithFields(logrus.Fields{
			"request_id": reqID,
			"route":      route,
			"status":     rec.status,
			"duration":   srv.cfg.Clock.Now().Sub(tick).String(),
		}).Debug("served request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// parseDamping returns the damping factor requested in q, or the default one
// if q does not specify it. Values outside (0, 1) are rejected.
func parseDamping(q url.Values) (float64, error) {
	if _, specified := q["damping"]; !specified {
		return pagerank.DefaultDampingFactor, nil
	}
	d, err := strconv.ParseFloat(q.Get("damping"), 64)
	if err != nil {
		return 0, xerrors.Errorf("damping: %w", err)
	}
	if err = pagerank.CheckDampingFactor(d); err != nil {
		return 0, err
	}
	return d, nil
}

// parseWorkers returns the worker count requested in q, capped by the
// server limit.
func (srv *Server) parseWorkers(q url.Values) (int, error) {
	workers, err := parseInt(q.Get("workers"))
	if err != nil {
		return 0, xerrors.Errorf("workers: %w", err)
	} else if workers > srv.cfg.MaxWorkers {
		return 0, xerrors.Errorf("workers = %d (limit %d): %w", workers, srv.cfg.MaxWorkers, errTooManyWorkers)
	}
	return workers, nil
}

// parseInt parses an optional integer query parameter; missing values
// yield zero.
func parseInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
