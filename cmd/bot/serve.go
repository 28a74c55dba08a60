package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"StockAssistant/internal/bot"
	"StockAssistant/internal/httpapi"
	"StockAssistant/internal/notifier"
	"StockAssistant/internal/scheduler"
)

// serveCmd runs the bot until SIGINT or SIGTERM
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger
	logger.Info("StockAssistant starting")

	sched := scheduler.NewScheduler(a.recorder, cfg.Recorder.RetentionDays, logger.With(zap.String("stage", "scheduler")))
	if err := sched.RegisterAll(cfg.Schedule.RetentionCron, cfg.Schedule.DigestCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy, logger.With(zap.String("stage", "telegram")))
	handler := bot.NewHandler(a.pipeline, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("telegram polling started", zap.Int("workers", cfg.Telegram.Workers))
		return tn.StartPolling(gctx, cfg.Telegram.Workers, handler.Handle)
	})

	if cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.NewRouter(a.pipeline, logger.With(zap.String("stage", "http"))),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("http api listening", zap.String("addr", cfg.HTTP.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("StockAssistant is running. Press Ctrl+C to stop.")
	err = g.Wait()
	logger.Info("StockAssistant stopped")
	return err
}
