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

	"github.com/spf13/cobra"

	"github.com/educheia/educheia/internal/comment"
	"github.com/educheia/educheia/internal/database"
	"github.com/educheia/educheia/internal/feed"
	"github.com/educheia/educheia/internal/position"
	"github.com/educheia/educheia/internal/server"
	"github.com/educheia/educheia/internal/storage"
)

type serveOptions struct {
	port            string
	baseURL         string
	databaseURL     string
	jwtSecret       string
	feedBaseURL     string
	feedTimeout     time.Duration
	episodesTTL     time.Duration
	channelTTL      time.Duration
	positionBackend string
	positionsFile   string
	redisURL        string
	positionTTL     time.Duration
	s3Endpoint      string
	s3Bucket        string
	s3AccessKey     string
	s3SecretKey     string
	s3Region        string
	staticDir       string
	corsOrigins     string
}

func newServeCommand() *cobra.Command {
	var o serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the site and its JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.port, "port", getEnv("PORT", "8080"), "listen port")
	f.StringVar(&o.baseURL, "base-url", getEnv("BASE_URL", "http://localhost:8080"), "public site URL")
	f.StringVar(&o.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres URL; comments are kept in memory when empty")
	f.StringVar(&o.jwtSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "identity token signing secret")
	f.StringVar(&o.feedBaseURL, "feed-base-url", getEnv("FEED_BASE_URL", "http://localhost:8787"), "episode feed worker URL")
	f.DurationVar(&o.feedTimeout, "feed-timeout", getEnvDuration("FEED_TIMEOUT", feed.DefaultTimeout), "feed request timeout")
	f.DurationVar(&o.episodesTTL, "episodes-ttl", getEnvDuration("EPISODES_CACHE_TTL", feed.DefaultEpisodesTTL), "episode feed cache lifetime")
	f.DurationVar(&o.channelTTL, "channel-ttl", getEnvDuration("CHANNEL_CACHE_TTL", feed.DefaultChannelTTL), "channel statistics cache lifetime")
	f.StringVar(&o.positionBackend, "position-backend", getEnv("POSITION_BACKEND", "memory"), "memory, file or redis")
	f.StringVar(&o.positionsFile, "positions-file", getEnv("POSITIONS_FILE", "data/positions.json"), "file backend path")
	f.StringVar(&o.redisURL, "redis-url", getEnv("REDIS_URL", "redis://localhost:6379/0"), "redis backend URL")
	f.DurationVar(&o.positionTTL, "position-ttl", time.Duration(getEnvInt64("POSITION_TTL_DAYS", 365))*24*time.Hour, "redis key lifetime")
	f.StringVar(&o.s3Endpoint, "s3-endpoint", os.Getenv("S3_ENDPOINT"), "S3 endpoint for feed snapshots")
	f.StringVar(&o.s3Bucket, "s3-bucket", os.Getenv("S3_BUCKET"), "S3 bucket for feed snapshots; disabled when empty")
	f.StringVar(&o.s3AccessKey, "s3-access-key", os.Getenv("S3_ACCESS_KEY"), "S3 access key")
	f.StringVar(&o.s3SecretKey, "s3-secret-key", os.Getenv("S3_SECRET_KEY"), "S3 secret key")
	f.StringVar(&o.s3Region, "s3-region", getEnv("S3_REGION", "eu-central-1"), "S3 region")
	f.StringVar(&o.staticDir, "static-dir", os.Getenv("STATIC_DIR"), "built site directory served with SPA fallback")
	f.StringVar(&o.corsOrigins, "cors-origins", os.Getenv("CORS_ORIGINS"), "comma-separated allowed origins")
	return cmd
}

func runServe(ctx context.Context, o serveOptions) error {
	if o.jwtSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cfg := server.Config{
		JWTSecret:   o.jwtSecret,
		BaseURL:     o.baseURL,
		CORSOrigins: splitList(o.corsOrigins),
	}

	if o.databaseURL != "" {
		db, err := database.Connect(startCtx, o.databaseURL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(o.databaseURL); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		slog.Info("serve: database migrations applied")
		cfg.Pinger = db
		cfg.Comments = comment.NewPGStore(db.Pool)
	} else {
		slog.Warn("serve: DATABASE_URL not set, comments are kept in memory")
		cfg.Comments = comment.NewMemoryStore(nil)
	}

	var snapshots feed.SnapshotStore
	if o.s3Bucket != "" {
		store, err := storage.New(startCtx, storage.Config{
			Endpoint:  o.s3Endpoint,
			Bucket:    o.s3Bucket,
			AccessKey: o.s3AccessKey,
			SecretKey: o.s3SecretKey,
			Region:    o.s3Region,
			Prefix:    "feed/",
		})
		if err != nil {
			return fmt.Errorf("storage initialization failed: %w", err)
		}
		if err := store.EnsureBucket(startCtx); err != nil {
			return fmt.Errorf("storage bucket check failed: %w", err)
		}
		slog.Info("serve: feed snapshots enabled", "bucket", o.s3Bucket)
		snapshots = store
	}

	cfg.Feed = feed.NewService(
		feed.NewClient(o.feedBaseURL, nil, o.feedTimeout),
		snapshots,
		feed.Config{EpisodesTTL: o.episodesTTL, ChannelTTL: o.channelTTL},
	)

	backend, closeBackend, err := openPositionBackend(startCtx, o)
	if err != nil {
		return err
	}
	defer closeBackend()
	cfg.Positions = position.New(backend)

	if o.staticDir != "" {
		if info, err := os.Stat(o.staticDir); err == nil && info.IsDir() {
			cfg.WebFS = os.DirFS(o.staticDir)
			slog.Info("serve: static site loaded", "dir", o.staticDir)
		} else {
			slog.Warn("serve: static dir unavailable, SPA serving disabled", "dir", o.staticDir)
		}
	}

	srv := server.New(cfg)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", o.port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serve: listening", "port", o.port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-shutdownCh:
	}
	slog.Info("serve: shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("serve: shutdown complete")
	return nil
}

func openPositionBackend(ctx context.Context, o serveOptions) (position.Backend, func(), error) {
	noop := func() {}
	switch o.positionBackend {
	case "", "memory":
		return position.NewMemoryBackend(), noop, nil
	case "file":
		b, err := position.NewFileBackend(o.positionsFile)
		if err != nil {
			return nil, noop, fmt.Errorf("open positions file: %w", err)
		}
		return b, noop, nil
	case "redis":
		b, err := position.NewRedisBackend(o.redisURL, o.positionTTL)
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		if err := b.Ping(ctx); err != nil {
			slog.Warn("serve: redis unreachable, positions will not persist until it recovers", "error", err)
		}
		return b, func() { _ = b.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown position backend %q", o.positionBackend)
}
