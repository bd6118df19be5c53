package comparison

import (
	"context"
	"fmt"
	"net/http"

	httpadapter "portal-compare/internal/comparison/adapter/http"
	"portal-compare/internal/comparison/adapter/hubspot"
	"portal-compare/internal/comparison/adapter/metrics"
	"portal-compare/internal/comparison/adapter/persistence/memory"
	"portal-compare/internal/comparison/adapter/security"
	"portal-compare/internal/comparison/config"
	"portal-compare/internal/comparison/domain/repository"
	"portal-compare/internal/comparison/domain/service"
	"portal-compare/internal/comparison/usecase"
	"portal-compare/internal/shared/eventbus"
	"portal-compare/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

// APIPrefix is where the module mounts its routes.
const APIPrefix = "/api/v1"

// ComparisonModule wires the portal comparison engine with its adapters.
type ComparisonModule struct {
	config  *config.Config
	log     logger.Logger
	bus     *eventbus.EventBus
	metrics *metrics.Collector

	sessions *memory.SessionStore
	cache    *memory.SnapshotCache
	fetcher  repository.MetadataFetcher

	sessionUsecase    usecase.SessionUsecaseInterface
	comparisonUsecase usecase.ComparisonUsecaseInterface

	tokens     *security.SessionTokenService
	handler    *httpadapter.ComparisonHTTPHandler
	middleware *httpadapter.Middleware
}

// ModuleOption customises NewComparisonModule.
type ModuleOption func(*moduleOptions)

type moduleOptions struct {
	fetcher    repository.MetadataFetcher
	httpClient *http.Client
	access     *zap.Logger
}

// WithFetcher replaces the HubSpot client, for tests and offline runs.
func WithFetcher(f repository.MetadataFetcher) ModuleOption {
	return func(o *moduleOptions) { o.fetcher = f }
}

// WithHTTPClient sets the HTTP client used to reach HubSpot.
func WithHTTPClient(c *http.Client) ModuleOption {
	return func(o *moduleOptions) { o.httpClient = c }
}

// WithAccessLogger sets the zap logger used for HTTP access logs.
func WithAccessLogger(l *zap.Logger) ModuleOption {
	return func(o *moduleOptions) { o.access = l }
}

// NewComparisonModule creates a module instance. The session janitor starts
// immediately; call Stop to release it.
func NewComparisonModule(cfg *config.Config, log logger.Logger, opts ...ModuleOption) (*ComparisonModule, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	o := &moduleOptions{}
	for _, opt := range opts {
		opt(o)
	}

	collector := metrics.NewCollector(cfg.MetricsNamespace)
	bus := eventbus.NewEventBus(log)

	cache := memory.NewSnapshotCache(memory.SnapshotCacheConfig{MaxAge: cfg.SnapshotMaxAge}, collector, log)
	cache.Subscribe(bus)

	sessions := memory.NewSessionStore(
		memory.SessionStoreConfig{TTL: cfg.SessionTTL, SweepInterval: cfg.SweepInterval},
		log,
		memory.WithEventBus(bus),
		memory.WithSessionMetrics(collector),
	)

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = hubspot.NewClient(hubspot.ConfigFrom(cfg), o.httpClient, log, collector)
	}
	var validator repository.CredentialValidator
	if v, ok := fetcher.(repository.CredentialValidator); ok && cfg.ValidateCredentials {
		validator = v
	}

	filter, err := service.NewResultFilter()
	if err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("failed to create result filter: %w", err)
	}

	tokens, err := security.NewSessionTokenService(cfg)
	if err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("failed to create session token service: %w", err)
	}

	sessionUsecase := usecase.NewSessionUsecase(sessions, cache, fetcher, validator, log)
	comparisonUsecase := usecase.NewComparisonUsecase(sessions, cache, fetcher, filter, collector, log)

	handler := httpadapter.NewComparisonHTTPHandler(sessionUsecase, comparisonUsecase, tokens, httpadapter.CookieConfig{
		Name:     cfg.CookieName,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	})

	log.WithComponent("comparison-module").Info("Comparison module initialized")
	return &ComparisonModule{
		config:            cfg,
		log:               log,
		bus:               bus,
		metrics:           collector,
		sessions:          sessions,
		cache:             cache,
		fetcher:           fetcher,
		sessionUsecase:    sessionUsecase,
		comparisonUsecase: comparisonUsecase,
		tokens:            tokens,
		handler:           handler,
		middleware:        httpadapter.NewMiddleware(tokens, cfg.CookieName, o.access, collector),
	}, nil
}

// RegisterRoutes mounts the API under APIPrefix and the Prometheus endpoint
// at /metrics.
func (m *ComparisonModule) RegisterRoutes(app *fiber.App) {
	m.handler.RegisterRoutes(app.Group(APIPrefix), m.middleware)
	app.Get("/metrics", adaptor.HTTPHandler(m.metrics.Handler()))
}

// HealthCheck reports whether the module can serve requests.
func (m *ComparisonModule) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.sessions == nil || m.cache == nil {
		return fmt.Errorf("comparison module is not initialized")
	}
	return nil
}

// Stats returns live counters for the health endpoint.
func (m *ComparisonModule) Stats() map[string]int {
	return map[string]int{
		"sessions":         m.sessions.Count(),
		"cache_partitions": m.cache.Sessions(),
	}
}

// GetMiddleware returns the HTTP middleware set.
func (m *ComparisonModule) GetMiddleware() *httpadapter.Middleware {
	return m.middleware
}

// GetSessionUsecase returns the session usecase.
func (m *ComparisonModule) GetSessionUsecase() usecase.SessionUsecaseInterface {
	return m.sessionUsecase
}

// GetComparisonUsecase returns the comparison usecase.
func (m *ComparisonModule) GetComparisonUsecase() usecase.ComparisonUsecaseInterface {
	return m.comparisonUsecase
}

// Stop ends the session janitor.
func (m *ComparisonModule) Stop() error {
	return m.sessions.Close()
}
