package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"homeexpenses/internal/cache"
	"homeexpenses/internal/core"
	"homeexpenses/internal/ingest"
	"homeexpenses/internal/log"
	"homeexpenses/internal/middleware/ratelimit"
	"homeexpenses/internal/middleware/security"
	"homeexpenses/internal/middleware/trace"
	"homeexpenses/internal/services"
	"homeexpenses/internal/summary"
)

// ExpenseStore is the collection the API serves. *services.ExpenseService
// implements it.
type ExpenseStore interface {
	Expenses(ctx context.Context) ([]core.Expense, error)
	Preview(ctx context.Context, files []ingest.File) (summary.ImportPreview, error)
	Import(ctx context.Context, files []ingest.File) (services.ImportResult, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) (int, error)
	Dashboard(ctx context.Context, state core.FilterState) (summary.Dashboard, error)
	Ping(ctx context.Context) error
}

type Options struct {
	MaxUploadBytes      int64
	ImportRatePerMinute int
	CacheTTL            time.Duration
	// Location is used for date query parameters and presets.
	Location *time.Location
	Logger   *log.Logger
}

type Server struct {
	http.Server
	store     ExpenseStore
	maxUpload int64
	location  *time.Location
	now       func() time.Time
	logger    *log.Logger
	started   time.Time

	dashCache *cache.LRUCache[summary.Dashboard]
	// dashGen counts invalidations; a dashboard computed across one is not cached.
	dashGen   atomic.Uint64
	janitor   *cache.Janitor
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	clientIP  *security.ClientIP

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

// NewServer wires routes and middleware and starts the cache and rate limit
// sweepers. Call Shutdown to stop them.
func NewServer(addr string, store ExpenseStore, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentHTTP)
	}

	s := &Server{
		store:     store,
		maxUpload: opts.MaxUploadBytes,
		location:  opts.Location,
		now:       time.Now,
		logger:    opts.Logger,
		started:   time.Now(),
		dashCache: cache.NewLRUCache[summary.Dashboard](100, opts.CacheTTL),
		janitor:   cache.NewJanitor(opts.Logger.WithComponent(log.ComponentCache).Slog()),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.ImportRatePerMinute}),
		clientIP:  security.NewClientIP(),
	}
	s.tracer = trace.NewMiddleware(opts.Logger.WithComponent(log.ComponentTrace), s.clientIP.Extract)
	s.janitor.Register(s.dashCache)

	bg, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	go s.janitor.Run(bg, 10*time.Minute)
	go s.limiter.Run(bg)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	limitImports := s.limiter.Middleware(s.clientIP.Extract, s.handleRateLimited)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("POST /api/import", limitImports(http.HandlerFunc(s.handleImport)))
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("DELETE /api/expenses", s.handleClearExpenses)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/presets", s.handlePresets)

	return s.tracer.Middleware(security.Headers(mux))
}

// Shutdown stops the background sweepers and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// invalidate drops cached views after the collection changed.
func (s *Server) invalidate(ctx context.Context) {
	s.dashGen.Add(1)
	s.dashCache.Purge()
	log.FromContext(ctx).DebugContext(ctx, "Dashboard cache purged")
}

func (s *Server) dashboard(ctx context.Context, state core.FilterState) (summary.Dashboard, error) {
	key := filterKey(state)
	if d, ok := s.dashCache.Get(key); ok {
		log.FromContext(ctx).DebugContext(ctx, "Dashboard cache hit", "key", key)
		return d, nil
	}
	gen := s.dashGen.Load()
	d, err := s.store.Dashboard(ctx, state)
	if err != nil {
		return summary.Dashboard{}, err
	}
	if s.dashGen.Load() == gen {
		s.dashCache.Set(key, d)
	}
	return d, nil
}
