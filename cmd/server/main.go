package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsapp/internal/cache"
	"newsapp/internal/config"
	"newsapp/internal/db"
	"newsapp/internal/logger"
	"newsapp/internal/metrics"
	"newsapp/internal/middleware"
	"newsapp/internal/router"
	"newsapp/internal/services"
	"newsapp/internal/views"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	lruSize         = 1024
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("dev")
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.New(cfg.AppEnv)
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	if err := db.Init(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	store := newCache(ctx, cfg, log)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	renderer, err := views.Load(cfg.TemplatesDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}

	// Services
	mailer := services.NewMailService(cfg, log)
	content := services.NewContentService(db.DB, store, cfg.Cache.TTL, cfg.Limits.PageSize)
	moderation := services.NewModerationService(db.DB, store, cfg.Limits.ReportThreshold)
	var crawler *services.CrawlerService
	if cfg.Feeds.FullText {
		crawler = services.NewCrawlerService(cfg.Feeds.Timeout)
	}
	svc := router.Services{
		Users:      services.NewUserService(db.DB, mailer, cfg.SiteURL, store),
		Content:    content,
		Ranking:    services.NewRankingService(db.DB, content, moderation, store, cfg.Cache.TTL, cfg.Limits.PageSize),
		Votes:      services.NewVoteService(db.DB, store),
		Comments:   services.NewCommentService(db.DB, store, mailer),
		Moderation: moderation,
		Feeds:      services.NewRSSFetcher(db.DB, content, crawler, cfg.Feeds.Timeout, log),
		Captcha:    services.NewCaptchaService(),
	}

	// 后台任务：定时抓取 RSS、清理限流器
	if cfg.Feeds.Interval > 0 {
		svc.Feeds.StartScheduledFetch(ctx, cfg.Feeds.Interval)
	}
	limiter := middleware.NewRateLimiter(cfg.Limits.RateEvery, cfg.Limits.RateBurst)
	limiter.StartCleanup(ctx)

	engine := router.New(router.Options{
		Log:           log,
		SessionSecret: cfg.SessionSecret,
		SecureCookie:  !cfg.IsDev(),
		StaticDir:     cfg.StaticDir,
		Renderer:      renderer,
		Limiter:       limiter,
	}, svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("newsapp server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// newCache 配置了 REDIS_ADDR 时使用 Redis，否则使用进程内 LRU
func newCache(ctx context.Context, cfg config.Config, log zerolog.Logger) cache.Store {
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		store := cache.NewRedis(client, "newsapp")
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory cache")
		} else {
			log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Using Redis cache")
			return store
		}
	}
	lru, err := cache.NewLRU(lruSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cache")
	}
	return lru
}
