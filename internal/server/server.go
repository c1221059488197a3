package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"emotionapi/internal/model"
	"emotionapi/internal/predict"
)

// Predictor is the prediction capability the transport layer needs.
type Predictor interface {
	Predict(ctx context.Context, text string) (predict.Result, error)
	Classes() []model.Label
	Dimensions() int
	VocabularySize() int
}

// Server wraps HTTP and gRPC servers
type Server struct {
	predictor Predictor
	cfg       *Config
	log       *zap.Logger
	router    *mux.Router
	handler   http.Handler
	grpcSrv   *grpc.Server

	httpSrv    *http.Server
	metricsSrv *http.Server
	draining   atomic.Bool
}

func New(p Predictor, cfg *Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{predictor: p, cfg: cfg, log: log, router: mux.NewRouter()}
	s.routes()
	s.handler = Chain(
		RequestIDMiddleware,
		LoggerMiddleware(log),
		MetricsMiddleware(s.router),
		RecoveryMiddleware(log),
	)(s.router)

	s.grpcSrv = grpc.NewServer(grpc.ChainUnaryInterceptor(s.unaryLogger))
	registerEmotionService(s.grpcSrv, &emotionService{srv: s})
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/predict/", s.handlePredict).Methods(http.MethodPost)
	s.router.HandleFunc("/predict", s.handlePredictRedirect).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
}

// Router returns the HTTP handler with the middleware chain applied.
func (s *Server) Router() http.Handler { return s.handler }

// StartMetrics serves /metrics on its own listener.
func (s *Server) StartMetrics(addr string) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	s.metricsSrv = &http.Server{Addr: addr, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server error", zap.Error(err))
		}
	}()
}

// StartGRPC listens on addr and serves the gRPC API until stopped.
func (s *Server) StartGRPC(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeGRPC(ln)
}

// ServeGRPC serves the gRPC API on an existing listener.
func (s *Server) ServeGRPC(ln net.Listener) error {
	return s.grpcSrv.Serve(ln)
}

// Run serves HTTP (and metrics and gRPC when configured) until ctx is done or
// a listener fails, then shuts everything down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	s.httpSrv = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if s.cfg.MetricsAddr != "" {
		s.StartMetrics(s.cfg.MetricsAddr)
		s.log.Info("metrics listening", zap.String("addr", s.cfg.MetricsAddr))
	}

	if s.cfg.GRPCAddr != "" {
		go func() {
			s.log.Info("grpc listening", zap.String("addr", s.cfg.GRPCAddr))
			if err := s.StartGRPC(s.cfg.GRPCAddr); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	s.log.Info("shutting down")
	s.shutdown()
	return runErr
}

func (s *Server) shutdown() {
	s.draining.Store(true)

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.log.Error("http server forced to shutdown", zap.Error(err))
	}
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Shutdown(ctx); err != nil {
			s.log.Error("metrics server forced to shutdown", zap.Error(err))
		}
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcSrv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcSrv.Stop()
	}
}
