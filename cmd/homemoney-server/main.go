package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"homemoney/internal/amqp"
	"homemoney/internal/cache"
	"homemoney/internal/cli"
	"homemoney/internal/export"
	apphttp "homemoney/internal/http"
	"homemoney/internal/log"
	"homemoney/internal/services"
	"homemoney/internal/storage"
)

const responseCacheNamespace = "homemoney-api"

func main() {
	renumber := flag.Bool("renumber", false, "rewrite SQLite expense ids in chronological order and exit")
	flag.Parse()

	cfg, logger := cli.LoadConfig(log.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	result := cli.OpenBackend(ctx, cfg, logger)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Failed to close storage backend", log.FieldError, err.Error())
		}
	}()

	if *renumber {
		code := runRenumber(ctx, result.Repository, logger)
		_ = result.Cleanup()
		os.Exit(code)
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithMirror(export.NewMirror(cfg.CSVPath, logger)),
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without", log.FieldError, err.Error())
		} else {
			defer amqpClient.Close()
			opts = append(opts, services.WithPublisher(amqpClient))
			logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var cacheOpts []cache.Option
	if cfg.RedisURL != "" {
		redisBackend, err := cache.NewRedisBackend(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Failed to connect to Redis, caching in memory only", log.FieldError, err.Error())
		} else {
			defer redisBackend.Close()
			cacheOpts = append(cacheOpts, cache.WithBackend(redisBackend))
			logger.Info("Redis response cache enabled")
		}
	}
	cacheOpts = append(cacheOpts, cache.WithLogger(logger))
	responseCache := cache.New(responseCacheNamespace, cacheOpts...)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(responseCache)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	svc := services.NewExpenseService(result.Repository, opts...)
	srv := apphttp.NewServer(apphttp.Config{
		Addr:        ":" + cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		Cache:       responseCache,
	}, svc, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting homemoney server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"csv_path", cfg.CSVPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func runRenumber(ctx context.Context, repo storage.Repository, logger *log.Logger) int {
	sqliteRepo, ok := repo.(*storage.SQLiteRepository)
	if !ok {
		logger.Error("Renumbering requires the sqlite backend")
		return 1
	}
	res, err := sqliteRepo.Renumber(ctx, time.Now())
	if err != nil {
		logger.Error("Renumbering failed",
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err.Error())
		return 1
	}
	logger.Info("Expense ids renumbered by time",
		log.FieldCount, res.Count,
		"backup", res.Backup)
	return 0
}
