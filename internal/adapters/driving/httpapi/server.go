package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/custodia-labs/litsearch/internal/core/ports/driving"
	"github.com/custodia-labs/litsearch/internal/logger"
)

// ErrMissingService is returned when a required driving port is nil.
var ErrMissingService = errors.New("httpapi: ingest and query services are required")

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	AllowedOrigins []string

	// Workers bounds concurrency for array ingestion.
	Workers int

	// MaxBodyBytes caps request bodies (default: 10 MiB).
	MaxBodyBytes int64

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the configuration used by `litsearch serve`.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
		Workers:        4,
		MaxBodyBytes:   10 << 20,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
	}
}

// Server routes HTTP requests to the ingest and query services.
type Server struct {
	ingest driving.IngestService
	query  driving.QueryService
	export driving.ExportService
	cfg    Config
	router *mux.Router
	now    func() time.Time
}

// NewServer creates a server. Zero config fields take DefaultConfig values.
func NewServer(ingest driving.IngestService, query driving.QueryService, cfg Config) (*Server, error) {
	if ingest == nil || query == nil {
		return nil, ErrMissingService
	}
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = def.AllowedOrigins
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	s := &Server{
		ingest: ingest,
		query:  query,
		cfg:    cfg,
		router: mux.NewRouter(),
		now:    time.Now,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/articles", s.handleIngest).Methods(http.MethodPost)
	v1.HandleFunc("/articles/{key}", s.handleGetArticle).Methods(http.MethodGet)
	v1.HandleFunc("/query", s.handleQuery).Methods(http.MethodGet)
	v1.HandleFunc("/query.csv", s.handleQueryCSV).Methods(http.MethodGet)

	s.router.Use(s.logRequests)
}

// SetExportService enables GET /v1/query.csv. Without it the route answers 501.
func (s *Server) SetExportService(e driving.ExportService) {
	s.export = e
}

// Mount routes every request under prefix to h. Call it before Handler or Run.
func (s *Server) Mount(prefix string, h http.Handler) {
	s.router.PathPrefix(prefix).Handler(h)
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	})
	return c.Handler(s.router)
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", s.cfg.Addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
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
