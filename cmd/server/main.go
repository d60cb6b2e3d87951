package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sriharshamadamanchi/fundrisk/internal/cache"
	"github.com/sriharshamadamanchi/fundrisk/internal/clients/alphavantage"
	"github.com/sriharshamadamanchi/fundrisk/internal/config"
	"github.com/sriharshamadamanchi/fundrisk/internal/database"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/analysis"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/auth"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/history"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/institute"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/manager"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/portfolio"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/quotes"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/stocks"
	"github.com/sriharshamadamanchi/fundrisk/internal/scheduler"
	"github.com/sriharshamadamanchi/fundrisk/internal/server"
	"github.com/sriharshamadamanchi/fundrisk/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting fundrisk")

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Redis when configured, in-process cache otherwise
	var store cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.RedisURL).Msg("Failed to connect to Redis")
		}
		defer redisCache.Close()
		store = redisCache
	} else {
		store = cache.NewMemory()
	}

	av := alphavantage.New(cfg.AlphaVantageURL, cfg.AlphaVantageAPIKey, log)

	authRepo := auth.NewRepository(db.Conn(), log)
	instituteRepo := institute.NewRepository(db.Conn(), log)
	managerRepo := manager.NewRepository(db.Conn(), log)
	portfolioRepo := portfolio.NewRepository(db.Conn(), log)
	stockRepo := stocks.NewRepository(db.Conn(), log)
	historyRepo := history.NewRepository(db.Conn(), log)

	quoteSvc := quotes.NewService(av, store, cfg.QuoteCacheTTL, log)
	backfill := history.NewBackfillService(historyRepo, av, store, cfg.BackfillCacheTTL, log)
	stockSvc := stocks.NewService(stockRepo, quoteSvc, backfill, log)
	analysisSvc := analysis.NewService(stockRepo, historyRepo, quoteSvc, analysis.NewOptimizer(log), log)

	sched := scheduler.New(log)
	refreshJob := history.NewRefreshJob(stockRepo, backfill, log)
	if err := sched.AddJob("0 0 2 * * *", refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		Log:            log,
		AuthMiddleware: auth.NewMiddleware(authRepo, log),
		Auth:           auth.NewHandler(authRepo, log),
		Institutes:     institute.NewHandler(instituteRepo, log),
		Managers:       manager.NewHandler(managerRepo, log),
		Portfolios:     portfolio.NewHandler(portfolioRepo, managerRepo, log),
		Stocks:         stocks.NewHandler(stockSvc, stockRepo, portfolioRepo, log),
		Analysis:       analysis.NewHandler(analysisSvc, portfolioRepo, log),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
