package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"homemoney/internal/amqp"
	"homemoney/internal/cache"
	"homemoney/internal/chart"
	"homemoney/internal/config"
	"homemoney/internal/expenses"
	"homemoney/internal/log"
	"homemoney/internal/tui"
)

func dashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Interactive monthly dashboard",
		RunE:  runDash,
	}
	cmd.Flags().String("log-file", "", "write logs to this file while the dashboard runs")
	_ = viper.BindPFlag("dash.log_file", cmd.Flags().Lookup("log-file"))
	return cmd
}

func runDash(cmd *cobra.Command, _ []string) error {
	cfg, err := settings()
	if err != nil {
		return err
	}

	// The dashboard owns the terminal; logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if path := viper.GetString("dash.log_file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := newLogger(cfg, out)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	storeOpts := []expenses.Option{expenses.WithLogger(logger)}
	if notify := subscribe(ctx, cfg, logger); notify != nil {
		storeOpts = append(storeOpts, expenses.WithNotifications(notify))
	}
	store := expenses.New(newAPIClient(cfg, logger), storeOpts...)

	chartCache, closeCache := newChartCache(ctx, cfg, logger)
	defer closeCache()

	agg := chart.New(store,
		chart.WithCache(chartCache, cfg.ChartCacheTTL),
		chart.WithDebounce(cfg.ChartDebounce),
		chart.WithLogger(logger),
	)
	defer agg.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return store.Run(gctx, cfg.RefreshInterval)
	})
	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx, store, agg, cfg.Locale)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// subscribe returns a channel that fires on every created expense, or nil
// when AMQP is not configured or unreachable.
func subscribe(ctx context.Context, cfg *config.Config, logger *log.Logger) <-chan struct{} {
	if cfg.AMQPURL == "" {
		return nil
	}
	c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, relying on polling", log.FieldError, err.Error())
		return nil
	}
	ch, err := c.Subscribe(ctx)
	if err != nil {
		logger.Warn("AMQP subscribe failed, relying on polling", log.FieldError, err.Error())
		c.Close()
		return nil
	}
	go func() {
		<-ctx.Done()
		c.Close()
	}()
	return ch
}

// newChartCache builds the aggregator cache, backed by Redis when configured,
// and starts its periodic cleanup.
func newChartCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (*cache.Store, func()) {
	opts := []cache.Option{cache.WithLogger(logger)}
	var redisBackend *cache.RedisBackend
	if cfg.RedisURL != "" {
		b, err := cache.NewRedisBackend(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, caching in memory", log.FieldError, err.Error())
		} else {
			redisBackend = b
			opts = append(opts, cache.WithBackend(b))
		}
	}
	store := cache.New(cfg.CacheNamespace, opts...)

	manager := cache.NewManager(logger)
	manager.Register(store)
	manager.CleanNow()
	manager.StartCleanup(cfg.CacheCleanupInterval)

	return store, func() {
		manager.Stop()
		if redisBackend != nil {
			redisBackend.Close()
		}
	}
}
