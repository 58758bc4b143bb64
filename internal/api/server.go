package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"microsim-matcher/internal/engine"
	"microsim-matcher/internal/logger"
	"microsim-matcher/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReloadFunc rebuilds a snapshot from the configured data source.
type ReloadFunc func(ctx context.Context) (*engine.Snapshot, error)

type Server struct {
	engine     *engine.Engine
	log        *logger.Logger
	reload     ReloadFunc
	defaultTop int
	similarTop int
	maxTop     int
}

type Option func(s *Server)

// WithReload enables POST /reload.
func WithReload(fn ReloadFunc) Option {
	return func(s *Server) { s.reload = fn }
}

// WithLimits sets the default result counts for /recommend and /similar.
func WithLimits(defaultTop, similarTop int) Option {
	return func(s *Server) {
		if defaultTop > 0 {
			s.defaultTop = defaultTop
		}
		if similarTop > 0 {
			s.similarTop = similarTop
		}
	}
}

func NewServer(e *engine.Engine, log *logger.Logger, opts ...Option) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		engine:     e,
		log:        log.With("component", "api"),
		defaultTop: 5,
		similarTop: 10,
		maxTop:     100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RecommendRequest struct {
	Spec string `json:"spec"`
	Top  int    `json:"top,omitempty"`
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// respondEngineError maps engine failures onto HTTP statuses.
func respondEngineError(c *gin.Context, err error) {
	kind := engine.KindOf(err)
	switch {
	case kind == engine.KindUnparseableSpecification:
		respondError(c, http.StatusBadRequest, string(kind), err)
	case kind == engine.KindNotFound:
		respondError(c, http.StatusNotFound, string(kind), err)
	case kind == engine.KindEmbeddingProvider, kind == engine.KindDimensionMismatch:
		// The index is fixed at load time, so a mismatch here means the
		// provider returned vectors of the wrong size.
		respondError(c, http.StatusBadGateway, string(kind), err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusServiceUnavailable, "canceled", err)
	case kind != "":
		respondError(c, http.StatusInternalServerError, string(kind), err)
	default:
		respondError(c, http.StatusInternalServerError, "internal", err)
	}
}

func (s *Server) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":    "microsim-matcher",
		"ok":         true,
		"time_utc":   time.Now().UTC().Format(time.RFC3339),
		"endpoints":  []string{"/health", "/stats", "/recommend", "/similar", "/reload", "/metrics"},
		"api_schema": 1,
	})
}

func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"time_utc": time.Now().UTC().Format(time.RFC3339),
		"records":  s.engine.Snapshot().Len(),
	})
}

func (s *Server) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Snapshot().Stats())
}

func (s *Server) HandleRecommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	top, err := s.clampTop(req.Top, s.defaultTop)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	rec, err := s.engine.Recommend(c.Request.Context(), req.Spec, top)
	if err != nil {
		s.log.Warn("recommend failed", "error", err, "request_id", c.GetString(ctxRequestID))
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) HandleSimilar(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, "invalid_request", errors.New("id is required"))
		return
	}
	requested := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", errors.New("top must be an integer"))
			return
		}
		requested = n
	}
	top, err := s.clampTop(requested, s.similarTop)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	results, err := s.engine.Similar(c.Request.Context(), id, top)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "results": results})
}

// HandleReload rebuilds the snapshot and swaps it in. Queries already
// running finish on the old snapshot.
func (s *Server) HandleReload(c *gin.Context) {
	if s.reload == nil {
		respondError(c, http.StatusNotImplemented, "reload_disabled", errors.New("reload is not configured"))
		return
	}
	snap, err := s.reload(c.Request.Context())
	if err != nil {
		s.log.Error("reload failed", "error", err)
		respondEngineError(c, err)
		return
	}
	s.engine.Swap(snap)
	s.log.Info("snapshot reloaded", "records", snap.Len())
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "stats": snap.Stats()})
}

func (s *Server) clampTop(n, def int) (int, error) {
	switch {
	case n < 0:
		return 0, errors.New("top must not be negative")
	case n == 0:
		return def, nil
	case n > s.maxTop:
		return s.maxTop, nil
	}
	return n, nil
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(s.log))
	r.Use(Metrics())

	r.GET("/", s.HandleRoot)
	r.GET("/health", s.HandleHealth)
	r.GET("/stats", s.HandleStats)
	r.POST("/recommend", s.HandleRecommend)
	r.GET("/similar", s.HandleSimilar)
	r.POST("/reload", s.HandleReload)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("API server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
