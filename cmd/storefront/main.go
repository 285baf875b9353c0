package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/Cheertaboi/storefront-order-service/internal/api"
	"github.com/Cheertaboi/storefront-order-service/internal/assets"
	"github.com/Cheertaboi/storefront-order-service/internal/cart"
	"github.com/Cheertaboi/storefront-order-service/internal/config"
	"github.com/Cheertaboi/storefront-order-service/internal/orderlog"
	"github.com/Cheertaboi/storefront-order-service/internal/orderlog/sqlite"
	"github.com/Cheertaboi/storefront-order-service/internal/ratelimit"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
	"github.com/Cheertaboi/storefront-order-service/internal/repository/memstore"
	"github.com/Cheertaboi/storefront-order-service/internal/service"
	"github.com/Cheertaboi/storefront-order-service/internal/telemetry"
	"github.com/Cheertaboi/storefront-order-service/pkg/db"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	level, _ := telemetry.ParseLevel(cfg.Log.Level)
	telemetry.InitLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "storefront", cfg.Environment, cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Warn("tracer shutdown", "error", err)
		}
	}()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// carts and rate limits share Redis when it is configured
	rule := ratelimit.Rule{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window}
	var (
		carts   cart.Store
		limiter ratelimit.Limiter
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		carts = cart.NewRedisStore(client, cfg.Redis.Prefix, cfg.Cart.TTL)
		limiter = ratelimit.NewRedis(client, cfg.Redis.Prefix, rule)
		slog.Info("using redis for carts and rate limits", "addr", cfg.Redis.Addr)
	} else {
		carts = cart.NewMemoryStore(cfg.Cart.TTL)
		limiter = ratelimit.NewMemory(rule, cfg.RateLimit.MaxKeys)
	}

	var timeline orderlog.Repository
	if cfg.OrderLog.Path != "" {
		repo, err := sqlite.Open(cfg.OrderLog.Path)
		if err != nil {
			return fmt.Errorf("order log: %w", err)
		}
		defer repo.Close()
		timeline = repo
	}

	uploads, err := assets.NewStore(cfg.Assets.Dir, cfg.Assets.MaxBytes)
	if err != nil {
		return err
	}

	settings := service.NewSettingsService(store, cfg.SettingsCacheTTL, cfg.Brand)
	pricer := service.NewPricer(store, nil)

	handler := api.NewRouter(api.Deps{
		Store:         store,
		Catalog:       service.NewCatalogService(store, nil),
		Reviews:       service.NewReviewService(store, store, nil),
		Carts:         service.NewCartService(carts, store),
		Pricer:        pricer,
		Orders:        service.NewOrderService(store, pricer, settings, timeline, nil),
		Coupons:       service.NewCouponService(store, nil),
		Settings:      settings,
		Reports:       service.NewReportService(store),
		Assets:        uploads,
		Limiter:       limiter,
		AdminUser:     cfg.Admin.User,
		AdminPassword: cfg.Admin.Password,
		SecureCookies: cfg.HTTP.SecureCookies,
		TrustProxy:    cfg.HTTP.TrustProxy,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting storefront", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Store.Driver == config.StoreMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	}

	conn, err := db.NewPostgresConnection(cfg.Store.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return repository.NewPostgres(conn, cfg.Store.Postgres.QueryTimeout), nil
}
