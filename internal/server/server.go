// Package server serves a record collection over HTTP: pages for the fetch
// layer, descriptor resolution for bulk operations, health and metrics.
//
//	GET  /healthz                  liveness and collection size
//	GET  /v1/records?offset&limit  one page: {"records":[...],"totalRecords":N}
//	POST /v1/selections/resolve    descriptor in, {"fingerprint","count","ids"} out
//	GET  /metrics                  prometheus
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/pagesel/internal/ir"
	"github.com/roach88/pagesel/internal/schema"
	"github.com/roach88/pagesel/internal/store"
)

// Backend is the record collection behind the server.
type Backend interface {
	Count(ctx context.Context) (int, error)
	FetchRange(ctx context.Context, offset, limit int) (ir.Page, error)
	Resolve(ctx context.Context, d ir.Descriptor, limit int) (store.Resolution, error)
	RecordResolution(ctx context.Context, res store.Resolution) (bool, error)
}

// Config bounds request sizes.
type Config struct {
	// DefaultLimit is the page size when a request names none.
	DefaultLimit int

	// MaxLimit rejects larger page requests.
	MaxLimit int

	// ResolveLimit caps the ids returned by a resolution when the request
	// names no limit.
	ResolveLimit int

	// MaxBodyBytes caps a resolve request body.
	MaxBodyBytes int64
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 12,
		MaxLimit:     500,
		ResolveLimit: 1000,
		MaxBodyBytes: 1 << 20,
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	TotalRecords int    `json:"totalRecords"`
}

// RecordsRequest is the query of GET /v1/records.
type RecordsRequest struct {
	Offset int `form:"offset" binding:"min=0"`
	Limit  int `form:"limit" binding:"min=0"`
}

// ResolveResponse is the body of POST /v1/selections/resolve.
type ResolveResponse struct {
	Fingerprint string        `json:"fingerprint"`
	Total       int           `json:"total"`
	Count       int           `json:"count"`
	IDs         []ir.RecordID `json:"ids"`
	Truncated   bool          `json:"truncated,omitempty"`
}

// ResolveQuery is the query of POST /v1/selections/resolve.
type ResolveQuery struct {
	Limit int `form:"limit" binding:"min=0"`
}

// Handlers holds the HTTP handlers.
type Handlers struct {
	backend Backend
	cfg     Config
	logger  *slog.Logger
}

// NewHandlers creates handlers over backend. Zero config fields take their
// DefaultConfig values. A nil logger discards.
func NewHandlers(backend Backend, cfg Config, logger *slog.Logger) *Handlers {
	def := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.ResolveLimit <= 0 {
		cfg.ResolveLimit = def.ResolveLimit
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{backend: backend, cfg: cfg, logger: logger}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), metricsMiddleware())

	router.GET("/healthz", h.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	RegisterRoutes(v1, h)
	return router
}

// RegisterRoutes registers the /v1 routes on rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/records", h.HandleRecords)
	rg.POST("/selections/resolve", h.HandleResolve)
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	total, err := h.backend.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "record store unavailable",
			Code:  "STORE_UNAVAILABLE",
		})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "ok",
		Version:      ir.EngineVersion,
		TotalRecords: total,
	})
}

// HandleRecords handles GET /v1/records.
//
// Query Parameters:
//
//	offset: absolute index of the first record (default 0)
//	limit: page size (default Config.DefaultLimit, at most Config.MaxLimit)
//
// Response:
//
//	200 OK: {"records":[...],"totalRecords":N}; records is empty past the end
//	400 Bad Request: negative or oversized parameters
func (h *Handlers) HandleRecords(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleRecords")

	var req RecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "offset and limit must be non-negative integers",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if req.Limit == 0 {
		req.Limit = h.cfg.DefaultLimit
	}
	if req.Limit > h.cfg.MaxLimit {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "limit exceeds the maximum page size",
			Code:  "LIMIT_TOO_LARGE",
		})
		return
	}

	page, err := h.backend.FetchRange(c.Request.Context(), req.Offset, req.Limit)
	if err != nil {
		logger.Error("fetch range failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to read records",
			Code:  "QUERY_FAILED",
		})
		return
	}

	recordsServed.Add(float64(len(page.Records)))
	logger.Debug("page served", "offset", req.Offset, "limit", req.Limit, "records", len(page.Records), "total_records", page.TotalRecords)
	c.JSON(http.StatusOK, page)
}

// HandleResolve handles POST /v1/selections/resolve.
//
// The body is a selection descriptor. It is validated against the
// descriptor schema, evaluated against the collection, and logged under
// its fingerprint.
//
// Response:
//
//	200 OK: ResolveResponse; ids capped by ?limit (default Config.ResolveLimit)
//	400 Bad Request: invalid descriptor or parameters
//	413 Request Entity Too Large: body over Config.MaxBodyBytes
func (h *Handlers) HandleResolve(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleResolve")

	var q ResolveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "limit must be a non-negative integer",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if q.Limit == 0 {
		q.Limit = h.cfg.ResolveLimit
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "descriptor too large",
				Code:  "BODY_TOO_LARGE",
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read body", Code: "INVALID_REQUEST"})
		return
	}

	d, err := schema.DecodeDescriptor(body)
	if err != nil {
		logger.Warn("invalid descriptor", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_DESCRIPTOR",
		})
		return
	}

	ctx := c.Request.Context()
	res, err := h.backend.Resolve(ctx, d, q.Limit)
	if err != nil {
		logger.Error("resolve failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to resolve descriptor",
			Code:  "QUERY_FAILED",
		})
		return
	}

	first, err := h.backend.RecordResolution(ctx, res)
	if err != nil {
		// The resolution itself is valid; a failed log write is not the caller's problem.
		logger.Error("record resolution failed", "fingerprint", res.Fingerprint, "error", err)
	}

	resolutions.WithLabelValues(string(d.Mode), boolLabel(first)).Inc()
	resolvedCount.Observe(float64(res.Count))
	logger.Info("descriptor resolved",
		"fingerprint", res.Fingerprint,
		"mode", d.Mode,
		"count", res.Count,
		"first", first)

	c.JSON(http.StatusOK, ResolveResponse{
		Fingerprint: res.Fingerprint,
		Total:       res.Total,
		Count:       res.Count,
		IDs:         res.IDs,
		Truncated:   res.Truncated,
	})
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func Serve(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("http server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
