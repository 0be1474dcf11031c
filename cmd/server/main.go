package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kelasku/backend/internal/behavior"
	"kelasku/backend/internal/cache"
	"kelasku/backend/internal/catalog"
	"kelasku/backend/internal/config"
	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/httpapi"
	"kelasku/backend/internal/logging"
	"kelasku/backend/internal/recommendation"
	"kelasku/backend/internal/service"
	"kelasku/backend/internal/store"
	"kelasku/backend/internal/store/memory"
	pgstore "kelasku/backend/internal/store/postgres"
	sqlitestore "kelasku/backend/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := logging.New("server")

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid security configuration")
	}
	attribution, err := behavior.ParseAttribution(cfg.FavoriteAttribution)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid favorite attribution")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	products, err := loadCatalog(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("catalog unavailable")
	}

	repo, closers, err := openRepository(ctx, cfg, products, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("repository unavailable")
	}

	suggestionCache := cache.SuggestionCache(cache.NewMemorySuggestionCache())
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSuggestionCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using in-process suggestion cache")
			_ = redisCache.Close()
		} else {
			suggestionCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info().Str("addr", cfg.RedisAddr).Msg("suggestion cache: redis")
		}
	} else {
		logger.Info().Msg("suggestion cache: in-process")
	}

	productCache := catalog.NewCache(repo)
	rnd := recommendation.DefaultRand{}
	svc := service.New(service.Deps{
		Repo:    repo,
		Catalog: productCache,
		Tracker: behavior.NewTracker(repo, productCache, attribution),
		Suggester: recommendation.NewSuggester(productCache, repo, recommendation.SuggesterConfig{
			Delay:       cfg.SuggestionDelay(),
			FailureRate: cfg.SuggestionFailureRate,
		}, rnd),
		Retrier:  recommendation.NewRetrier(logging.New("retrier")),
		Cache:    suggestionCache,
		CacheTTL: cfg.SuggestionCacheTTL(),
		Rand:     rnd,
		Logger:   logging.New("service"),
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), repo)
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigin:     cfg.AllowedOrigin,
		AuthRatePerMinute: cfg.LoginRatePerMinute,
		Logger:            logging.New("http"),
	})

	// Write timeout covers the worst suggestion refresh: four delayed
	// attempts plus 7s of backoff.
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Address()).Int("products", len(products)).Msg("storefront backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error().Err(err).Msg("close error")
		}
	}

	logger.Info().Msg("server stopped")
}

// loadCatalog reads the catalog file when one is configured and generates
// the deterministic catalog otherwise.
func loadCatalog(cfg config.Config) ([]domain.Product, error) {
	if cfg.CatalogPath != "" {
		products, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
		}
		return products, nil
	}
	return catalog.Generate(cfg.CatalogSize, cfg.CatalogSeed), nil
}

// openRepository picks postgres, then sqlite, then the in-memory store. A
// configured database that cannot be reached is fatal rather than silently
// replaced.
func openRepository(ctx context.Context, cfg config.Config, products []domain.Product, logger zerolog.Logger) (store.Repository, []func() error, error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := seed(ctx, pg, products, logger); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		logger.Info().Msg("repository: postgres")
		return pg, []func() error{pg.Close}, nil
	case cfg.SQLitePath != "":
		db, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		if err := seed(ctx, db, products, logger); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("repository: sqlite")
		return db, []func() error{db.Close}, nil
	default:
		logger.Info().Msg("repository: in-memory")
		return memory.NewSeededWith(products), nil, nil
	}
}

func seed(ctx context.Context, catalogStore store.CatalogStore, products []domain.Product, logger zerolog.Logger) error {
	inserted, err := catalogStore.SeedProducts(ctx, products)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info().Int("inserted", inserted).Int("catalog_size", len(products)).Msg("catalog seeded")
	return nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" {
		return fmt.Errorf("ALLOWED_ORIGIN must name a concrete origin")
	}
	return nil
}
