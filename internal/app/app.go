package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hienohelma/storefront/internal/campaign"
	"github.com/hienohelma/storefront/internal/config"
	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/internal/event"
	handler "github.com/hienohelma/storefront/internal/handler/http"
	pgrepo "github.com/hienohelma/storefront/internal/repository/postgres"
	redisrepo "github.com/hienohelma/storefront/internal/repository/redis"
	"github.com/hienohelma/storefront/internal/service"
	"github.com/hienohelma/storefront/internal/storefront"
	"github.com/hienohelma/storefront/migrations"
	"github.com/hienohelma/storefront/pkg/database"
	"github.com/hienohelma/storefront/pkg/health"
	"github.com/hienohelma/storefront/pkg/httpclient"
	pkgkafka "github.com/hienohelma/storefront/pkg/kafka"
	"github.com/hienohelma/storefront/pkg/middleware"
	"github.com/hienohelma/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	limiter        *middleware.RateLimiter
	shutdownTracer tracing.ShutdownFunc
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	// Initialize Redis client.
	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()), slog.Int("db", cfg.RedisDB))

	// Initialize PostgreSQL and apply migrations.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Initialize Kafka producer.
	var publisher event.Publisher = event.NopPublisher{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka disabled, domain events are discarded")
	}

	// Storefront API client behind retries and a circuit breaker.
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg.StorefrontHTTP()),
		httpclient.DefaultCircuitBreakerConfig("storefront-api"),
		logger,
	)
	api := storefront.NewClient(cfg.StorefrontURL, cfg.StorefrontAPIKey, breaker, logger)

	fallback, err := loadFallback(cfg.CampaignsFile, logger)
	if err != nil {
		return err
	}
	source := campaign.NewSource(redisrepo.NewStoreConfigCache(rdb), api, fallback, cfg.StoreConfigTTL, logger)

	// Build the dependency graph.
	cartService := service.NewCartService(
		redisrepo.NewCartRepository(rdb, cfg.CartTTL()),
		api,
		source,
		publisher,
		service.CartOptions{
			MaxItems:    cfg.CartMaxItems,
			MaxQuantity: cfg.CartMaxQty,
			TTL:         cfg.CartTTL(),
		},
		logger,
	)
	checkoutService := service.NewCheckoutService(cartService, pgrepo.NewCheckoutRepository(pool), source, api, api, publisher, logger)
	pricingService := service.NewPricingService(api, source, logger)
	orderService := service.NewOrderService(api, api, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.producer != nil {
		producer := a.producer
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}
	healthHandler.RegisterOptional("storefront", api.Ping)

	a.limiter = middleware.NewRateLimiter(cfg.RateLimit())

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:    config.ServiceName,
		Cart:           cartService,
		Pricing:        pricingService,
		Checkout:       checkoutService,
		Orders:         orderService,
		Health:         healthHandler,
		Tokens:         middleware.NewTokenParser(cfg.JWT()),
		RateLimiter:    a.limiter,
		CORS:           cfg.CORS(),
		ShippingMaxAge: cfg.ShippingCacheMaxAge,
		WebhookKey:     cfg.WebhookKey,
		Logger:         logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// loadFallback reads the YAML store configuration used when the storefront
// API is unreachable. An empty path disables the fallback.
func loadFallback(path string, logger *slog.Logger) (*domain.StoreConfig, error) {
	if path == "" {
		return nil, nil
	}
	cfg, err := campaign.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load campaigns file: %w", err)
	}
	logger.Info("loaded fallback store configuration",
		slog.String("path", path),
		slog.Int("campaigns", len(cfg.Campaigns)),
	)
	return cfg, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources() {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
}
