package app

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/coffee-shop/internal/domain/favorite"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/review"
	"github.com/xenking/coffee-shop/internal/domain/user"
	"github.com/xenking/coffee-shop/internal/handler"
	"github.com/xenking/coffee-shop/internal/storage/postgres"
	"github.com/xenking/coffee-shop/pkg/health"
	"github.com/xenking/coffee-shop/pkg/httpmiddleware"
)

const authRateLimitMessage = "Too many authentication attempts, please try again later"

// newHealth registers the process and database probes.
func newHealth(pool *pgxpool.Pool, maxPoolUsage float64) *health.Health {
	h := health.New()
	h.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	h.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second),
		health.WithFailureThreshold(3),
	)
	h.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool),
		health.WithFailureThreshold(2),
	)
	h.AddReadinessCheck("postgres_pool", time.Second, health.PoolSaturationCheck(func() (int32, int32) {
		st := pool.Stat()
		return st.AcquiredConns(), st.MaxConns()
	}, maxPoolUsage), health.WithFailureThreshold(3))
	return h
}

// rateLimitKey buckets signed-in customers by account and everyone else by
// client IP, so customers behind one shop NAT do not share a window.
func rateLimitKey(tokens *user.Tokens) func(*http.Request) string {
	return func(r *http.Request) string {
		if raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			if c, err := tokens.Verify(strings.TrimSpace(raw)); err == nil {
				return "user:" + strconv.FormatInt(c.ID, 10)
			}
		}
		return "ip:" + httpmiddleware.ClientIP(r)
	}
}

// newHandler wires repositories, services and the middleware chain around
// pool. Background limiter cleanup stops with ctx.
func newHandler(
	ctx context.Context,
	pool *pgxpool.Pool,
	cfg *Config,
	hs *health.Health,
	mp metric.MeterProvider,
	tp trace.TracerProvider,
) (http.Handler, error) {
	// Repositories.
	catalogRepo := postgres.NewCatalogRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	favoriteRepo := postgres.NewFavoriteRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)

	// Domain services.
	tokens, err := user.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return nil, errors.Wrap(err, "create token issuer")
	}
	orderService, err := order.NewService(orderRepo, catalogRepo,
		order.WithMeterProvider(mp),
		order.WithTracerProvider(tp),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	h := handler.NewHandler(
		user.NewService(userRepo, user.BcryptHasher{Cost: user.DefaultCost}, tokens),
		catalogRepo,
		orderService,
		favorite.NewService(favoriteRepo, catalogRepo),
		review.NewService(reviewRepo, catalogRepo),
	)
	router := h.Router(handler.RouterConfig{
		AuthLimiter: httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.AuthRateLimit.Max,
			Window:  cfg.AuthRateLimit.Window,
			KeyFunc: httpmiddleware.ClientIP,
			Message: authRateLimitMessage,
		}),
	})

	// Probes live beside the API; everything else falls through to it.
	mux := chi.NewRouter()
	mux.Get("/livez", hs.LiveEndpoint)
	mux.Get("/readyz", hs.ReadyEndpoint)
	mux.Mount("/", router)

	return otelhttp.NewHandler(httpmiddleware.Wrap(mux,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Recovery(),
		httpmiddleware.SecurityHeaders(httpmiddleware.SecurityHeadersConfig{}),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window,
			KeyFunc: rateLimitKey(tokens),
		}),
		httpmiddleware.LogRequests(),
	), "coffee-api",
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
	), nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.Database.Pool())
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := newHealth(pool, cfg.Database.MaxPoolUsage)
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	apiHandler, err := newHandler(ctx, pool, cfg, healthSvc, m.MeterProvider(), m.TracerProvider())
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           apiHandler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
