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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stellar/go/clients/horizonclient"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/urfave/cli/v2"

	_ "github.com/mtlprog/foodlog/docs"
	"github.com/mtlprog/foodlog/internal/api"
	"github.com/mtlprog/foodlog/internal/auth"
	"github.com/mtlprog/foodlog/internal/config"
	"github.com/mtlprog/foodlog/internal/database"
	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/metrics"
	"github.com/mtlprog/foodlog/internal/middleware"
	"github.com/mtlprog/foodlog/internal/reputation"
	"github.com/mtlprog/foodlog/internal/restaurant"
	"github.com/mtlprog/foodlog/internal/review"
	"github.com/mtlprog/foodlog/internal/stats"
	"github.com/mtlprog/foodlog/internal/storage"
	"github.com/mtlprog/foodlog/internal/token"
	"github.com/mtlprog/foodlog/internal/user"
	"github.com/mtlprog/foodlog/internal/vote"
)

// openStore connects to PostgreSQL, or returns an in-memory store when no
// database URL is configured and allowMemory is set.
func openStore(ctx context.Context, c *cli.Context, allowMemory bool) (docstore.Store, func(), error) {
	url := c.String("database-url")
	if url == "" {
		if !allowMemory {
			return nil, nil, errors.New("database URL is required")
		}
		slog.Warn("no database configured, using in-memory store; data is lost on exit")
		return docstore.NewMemory(), func() {}, nil
	}

	pool, err := database.NewPool(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	store, err := docstore.NewPostgres(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

type core struct {
	tuning     config.Tuning
	scorer     *reputation.Scorer
	aggregator *stats.Aggregator
}

func newCore(c *cli.Context, store docstore.Store, m *metrics.Metrics) (*core, error) {
	tuning, err := config.LoadTuning(c.String("tuning"))
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}

	scorer, err := reputation.NewScorer(store, reputation.WithScanLimit(tuning.ScanPageSize))
	if err != nil {
		return nil, err
	}
	aggregator, err := stats.NewAggregator(store, scorer,
		stats.WithTuning(tuning),
		stats.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	return &core{tuning: tuning, scorer: scorer, aggregator: aggregator}, nil
}

func migrate(c *cli.Context) error {
	ctx := c.Context
	pool, err := database.NewPool(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	slog.Info("migrations applied")
	return nil
}

func recompute(c *cli.Context) error {
	ctx := c.Context
	store, closeStore, err := openStore(ctx, c, false)
	if err != nil {
		return err
	}
	defer closeStore()

	cr, err := newCore(c, store, nil)
	if err != nil {
		return err
	}

	date := c.String("date")
	if date == "" {
		date = cr.aggregator.Today()
	}

	res, err := cr.aggregator.RecomputeAll(ctx, date)
	if err != nil {
		return fmt.Errorf("recompute stats: %w", err)
	}
	slog.Info("stats recomputed", "date", date, "restaurants", res.Restaurants, "failed", res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d restaurants failed to recompute", res.Failed)
	}
	return nil
}

func newNameCache(ctx context.Context, c *cli.Context, tuning config.Tuning) (user.NameCache, func(), error) {
	url := c.String("redis-url")
	if url == "" {
		return user.NewMemoryNameCache(tuning.NameCacheTTL.Duration, tuning.NameCacheSize), func() {}, nil
	}
	client, err := user.NewRedisClient(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return user.NewRedisNameCache(client, tuning.NameCacheTTL.Duration, slog.Default()), func() { _ = client.Close() }, nil
}

func newImageStore(c *cli.Context, store docstore.Store, m *metrics.Metrics) (*storage.FallbackUploader, error) {
	var primary storage.Uploader
	if endpoint := c.String("minio-endpoint"); endpoint != "" {
		mc, err := storage.NewMinIO(storage.MinIOConfig{
			Endpoint:     endpoint,
			AccessKey:    c.String("minio-access-key"),
			SecretKey:    c.String("minio-secret-key"),
			Secure:       c.Bool("minio-secure"),
			BucketPrefix: c.String("minio-bucket-prefix"),
			PublicURL:    c.String("minio-public-url"),
		})
		if err != nil {
			return nil, err
		}
		primary = mc
	}
	return storage.NewFallbackUploader(primary, store, storage.WithMetrics(m))
}

func newLikeService(c *cli.Context, store docstore.Store, reviews token.ReviewGetter, tuning config.Tuning, m *metrics.Metrics) (*token.Service, error) {
	seed := c.String("token-issuer-secret")
	if seed == "" {
		slog.Warn("token issuer not configured, likes are disabled")
		return nil, nil
	}

	client := &horizonclient.Client{
		HorizonURL: c.String("horizon-url"),
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}
	ledger, err := token.NewStellar(client, config.TokenCode, seed, c.String("network-passphrase"))
	if err != nil {
		return nil, err
	}
	reward, err := token.ParseAmount(tuning.MintPerLike)
	if err != nil {
		return nil, fmt.Errorf("mint per like: %w", err)
	}

	slog.Info("token rewards enabled", "asset", ledger.Asset(), "mint_per_like", token.FormatAmount(reward))
	return token.NewService(store, ledger, reviews, reward, token.WithMetrics(m))
}

func serve(c *cli.Context) error {
	ctx := c.Context
	store, closeStore, err := openStore(ctx, c, true)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	cr, err := newCore(c, store, m)
	if err != nil {
		return err
	}

	names, closeNames, err := newNameCache(ctx, c, cr.tuning)
	if err != nil {
		return fmt.Errorf("name cache: %w", err)
	}
	defer closeNames()

	users, err := user.NewService(store, names)
	if err != nil {
		return err
	}
	userStats, err := user.NewStatsService(store, cr.scorer)
	if err != nil {
		return err
	}
	restaurants, err := restaurant.NewService(store)
	if err != nil {
		return err
	}
	reviews, err := review.NewService(store, cr.aggregator, users)
	if err != nil {
		return err
	}
	ledger, err := vote.NewLedger(store, vote.WithScanLimit(cr.tuning.ScanPageSize))
	if err != nil {
		return err
	}
	voting, err := review.NewVotingService(reviews, ledger, cr.scorer, review.WithVotingMetrics(m))
	if err != nil {
		return err
	}
	images, err := newImageStore(c, store, m)
	if err != nil {
		return fmt.Errorf("image storage: %w", err)
	}

	services := api.Services{
		Restaurants: restaurants,
		Reviews:     reviews,
		Voting:      voting,
		Votes:       ledger,
		Stats:       cr.aggregator,
		Reputation:  cr.scorer,
		Users:       users,
		UserStats:   userStats,
		Images:      images,
	}
	likes, err := newLikeService(c, store, reviews, cr.tuning, m)
	if err != nil {
		return fmt.Errorf("token rewards: %w", err)
	}
	if likes != nil {
		services.Likes = likes
	}

	h, err := api.New(services)
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(c.String("jwt-secret"))
	if err != nil {
		return err
	}
	limiter, err := middleware.NewRateLimiter(c.Int("rate-limit"),
		middleware.WithTrustProxy(c.Bool("trust-proxy")),
		middleware.WithExemptPrefixes("/metrics", "/swagger/"),
	)
	if err != nil {
		return err
	}
	defer limiter.Close()

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	port := c.String("port")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      limiter.Middleware(middleware.CacheControl(verifier.Middleware(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
