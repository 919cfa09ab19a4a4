package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"netwatch/internal/alert"
	"netwatch/internal/config"
	"netwatch/internal/domain"
	"netwatch/internal/httpapi"
	"netwatch/internal/logging"
	"netwatch/internal/monitor"
	"netwatch/internal/notify"
	"netwatch/internal/probe"
	"netwatch/internal/scheduler"
	"netwatch/internal/store"
	"netwatch/internal/sysinfo"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, *verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	targets := loadTargets(logger, &cfg)

	pingStore := store.New[domain.ProbeResult](logger, filepath.Join(cfg.DataDir, "ping"),
		store.Options{WindowCap: cfg.MaxResultsPerTarget})
	statusStore := store.New[domain.StatusSample](logger, filepath.Join(cfg.DataDir, "status"),
		store.Options{MaxEntriesPerChunk: cfg.MaxEntriesPerChunk})

	sampler := sysinfo.NewProcSampler()
	svc := monitor.NewService(logger, targets, pingStore, statusStore, sampler)

	var notifier notify.Multi
	if wh := notify.NewWebhook(cfg.WebhookURL, cfg.NotifyAttempts, cfg.NotifyBackoff()); wh != nil {
		notifier = append(notifier, wh)
	}
	states := alert.NewStateMachine(int64(cfg.SlowThresholdMs))

	sched := scheduler.New(
		logger,
		targets,
		probe.NewExecutor(),
		svc,
		states,
		notifier,
		sampler,
		cfg.ProbeInterval(),
		cfg.SampleInterval(),
		cfg.Concurrency,
	)
	if err := sched.Start(); err != nil {
		logger.Fatal("scheduler_start_failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.NewServer(logger, svc).Router(),
	}
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_serve_failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_failed", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler_stop_failed", zap.Error(err))
	}
}

// loadTargets reads the targets document; a broken document degrades to an
// empty set so metric sampling keeps running.
func loadTargets(logger *zap.Logger, cfg *config.Config) []domain.Target {
	doc, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		logger.Warn("targets_load_failed",
			zap.String("path", cfg.TargetsFile),
			zap.Error(err),
		)
		return nil
	}
	if doc.IntervalMs > 0 {
		cfg.ProbeIntervalMs = doc.IntervalMs
	}
	return doc.Targets
}
