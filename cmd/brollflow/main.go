package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nguyentantai21042004/broll-flow/internal/api"
	"github.com/nguyentantai21042004/broll-flow/internal/config"
	"github.com/nguyentantai21042004/broll-flow/internal/history"
	"github.com/nguyentantai21042004/broll-flow/internal/logger"
	"github.com/nguyentantai21042004/broll-flow/internal/photos"
	"github.com/nguyentantai21042004/broll-flow/internal/transcriber"
	"github.com/nguyentantai21042004/broll-flow/internal/watcher"
	"github.com/nguyentantai21042004/broll-flow/internal/workflow"
	"github.com/nguyentantai21042004/broll-flow/pkg/executor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	log.Info(ctx, "B-roll Flow starting (mode: %s)", cfg.Mode)

	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		os.Exit(1)
	}

	opts := workflow.Options{
		Mode:          cfg.Mode,
		StageDelays:   cfg.StageDelays(),
		FallbackTerm:  cfg.Photos.FallbackTerm,
		MaxConcurrent: cfg.Performance.MaxConcurrent,
		OutputDir:     cfg.Paths.Output,
		Logger:        log,
	}

	if cfg.Mode == config.ModeTranscribe {
		tr, err := transcriber.New(cfg.Transcription, cfg.Paths.Temp, executor.New(), log)
		if err != nil {
			log.Error(ctx, "Failed to create transcriber: %v", err)
			os.Exit(1)
		}
		opts.Transcriber = tr

		accessKey := os.Getenv(cfg.Photos.AccessKeyEnv)
		if accessKey == "" {
			log.Warn(ctx, "%s is not set, images will use the fallback URL", cfg.Photos.AccessKeyEnv)
		}
		opts.Searcher = photos.New(cfg.Photos.BaseURL, accessKey, log)
	}

	var hist api.HistoryReader
	if cfg.Paths.History != "" {
		db, err := history.Init(cfg.Paths.History)
		if err != nil {
			log.Error(ctx, "Failed to open history: %v", err)
			os.Exit(1)
		}
		defer db.Close()

		store := history.NewStore(db)
		if err := store.InitTable(); err != nil {
			log.Error(ctx, "Failed to init history table: %v", err)
			os.Exit(1)
		}
		opts.Recorder = store
		hist = store
	}

	ctrl, err := workflow.New(opts)
	if err != nil {
		log.Error(ctx, "Failed to create workflow: %v", err)
		os.Exit(1)
	}
	if key := os.Getenv(cfg.Transcription.APIKeyEnv); key != "" && cfg.Mode == config.ModeTranscribe {
		ctrl.SetCredential(key)
		log.Info(ctx, "Transcription API key loaded from %s", cfg.Transcription.APIKeyEnv)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 2)

	if cfg.Paths.Input != "" {
		w, err := watcher.New(cfg.Paths.Input, watcher.SubmitTo(ctrl, log), log, watcher.DefaultSettle)
		if err != nil {
			log.Error(ctx, "Failed to create watcher: %v", err)
			os.Exit(1)
		}
		defer w.Stop()

		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("watcher: %w", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.New(ctrl, hist, cfg.Paths.Temp, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	log.Info(ctx, "Listening on %s", cfg.Server.Addr)
	if cfg.Paths.Input != "" {
		log.Info(ctx, "Monitoring: %s", cfg.Paths.Input)
	}
	log.Info(ctx, "Output: %s", cfg.Paths.Output)
	log.Info(ctx, "Press Ctrl+C to stop")

	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "%v", err)
	}

	log.Info(ctx, "Shutting down gracefully...")
	cancel()
	ctrl.Reset(context.Background())

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "HTTP shutdown: %v", err)
	}

	log.Info(ctx, "B-roll Flow stopped")
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{cfg.Paths.Output, cfg.Paths.Temp}
	if cfg.Paths.Input != "" {
		dirs = append(dirs, cfg.Paths.Input)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
