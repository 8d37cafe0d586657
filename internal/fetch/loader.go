package fetch

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/pagesel/internal/ir"
)

// Source is the record source contract: one page of records plus the
// current collection size.
type Source interface {
	FetchPage(ctx context.Context, req ir.PageRequest) (ir.Page, error)
}

// RequestIDGenerator names page requests in logs and snapshots.
type RequestIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 request ids.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if UUID generation fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Snapshot is a copy of the loader's state.
type Snapshot struct {
	Request      ir.PageRequest // latest request issued
	Loaded       ir.PageRequest // request the current records answer
	RequestID    string
	Generation   uint64
	Records      []ir.Record
	TotalRecords int
	Loading      bool
	Err          *Error
}

// Result is a page that was accepted into the loader's state.
type Result struct {
	Page       ir.Page
	Request    ir.PageRequest
	RequestID  string
	Generation uint64
}

// Loader fetches pages from a Source and owns the fetch-side state.
//
// Thread-safety: all methods are safe for concurrent use. The mutex is
// never held across a source call.
type Loader struct {
	source Source
	ids    RequestIDGenerator
	logger *slog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	hasLast    bool
	state      Snapshot
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithRequestIDs sets the request id generator. The default is UUIDv7.
func WithRequestIDs(ids RequestIDGenerator) Option {
	return func(l *Loader) {
		if ids != nil {
			l.ids = ids
		}
	}
}

// NewLoader creates a loader over source.
func NewLoader(source Source, opts ...Option) *Loader {
	l := &Loader{
		source: source,
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches one page. Any in-flight request is cancelled and superseded.
//
// On success the page replaces the loader's records and total. On failure
// the previous records stay and the classified error is recorded. A
// superseded call returns ErrSuperseded and changes nothing. A call whose
// ctx is cancelled returns the context error and records no error state.
func (l *Loader) Load(ctx context.Context, req ir.PageRequest) (Result, error) {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	gen := l.generation
	reqCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.hasLast = true
	requestID := l.ids.Generate()
	l.state.Request = req
	l.state.RequestID = requestID
	l.state.Generation = gen
	l.state.Loading = true
	l.state.Err = nil
	l.mu.Unlock()

	logger := l.logger.With("request_id", requestID, "generation", gen)
	logger.Debug("page request started", "page", req.Page, "page_size", req.PageSize)

	page, err := l.source.FetchPage(reqCtx, req)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		cancel()
		logger.Debug("page request superseded", "current_generation", l.generation)
		return Result{}, ErrSuperseded
	}
	cancel()
	l.cancel = nil
	l.state.Loading = false

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			logger.Debug("page request cancelled", "error", err)
			return Result{}, ctxErr
		}
		fe := Classify(err)
		l.state.Err = fe
		logger.Warn("page request failed", "kind", fe.Kind, "status", fe.Status, "error", err)
		return Result{}, fe
	}

	l.state.Records = slices.Clone(page.Records)
	l.state.Loaded = req
	l.state.TotalRecords = page.TotalRecords
	logger.Debug("page request completed", "records", len(page.Records), "total_records", page.TotalRecords)

	return Result{Page: page, Request: req, RequestID: requestID, Generation: gen}, nil
}

// Retry re-issues the last request under a new generation.
func (l *Loader) Retry(ctx context.Context) (Result, error) {
	l.mu.Lock()
	if !l.hasLast {
		l.mu.Unlock()
		return Result{}, ErrNothingToRetry
	}
	req := l.state.Request
	l.mu.Unlock()

	l.logger.Info("retrying page request", "page", req.Page, "page_size", req.PageSize)
	return l.Load(ctx, req)
}

// Cancel abandons any in-flight request. Its Load returns ErrSuperseded.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
		l.generation++
		l.state.Generation = l.generation
		l.state.Loading = false
	}
}

// Snapshot returns a copy of the current state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := l.state
	snap.Records = slices.Clone(l.state.Records)
	return snap
}
