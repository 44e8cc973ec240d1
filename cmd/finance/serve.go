package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"finance/internal/cache"
	apphttp "finance/internal/http"
	applog "finance/internal/log"
	"finance/internal/middleware/ratelimit"
)

var (
	flagPort      string
	flagRateLimit int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web interface",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&flagPort, "port", "p", "", "Listen port (overrides PORT)")
	serveCmd.Flags().IntVar(&flagRateLimit, "rate-limit", ratelimit.DefaultConfig().RequestsPerMinute, "Changes allowed per client per minute, 0 disables")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, logger, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	if cmd.Flags().Changed("port") {
		cfg.Port = flagPort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	sweeper := cache.NewManager(time.Minute, logger)
	sweeper.Register(app.Projector)

	var limiter *ratelimit.Limiter
	if flagRateLimit > 0 {
		limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: flagRateLimit})
		sweeper.Register(limiter)
	}

	srv := apphttp.NewServer(cfg.Addr(), app.Service, logger, apphttp.Options{
		Limiter:        limiter,
		TrustedProxies: cfg.TrustedProxies,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finance server",
			applog.FieldOperation, applog.OpStartup,
			applog.FieldAddr, srv.Addr,
			applog.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, applog.FieldAddr, srv.Addr)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
