// Package main provides the entry point for the frameloop asset server.
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

	"github.com/joho/godotenv"

	"github.com/frameloop/frameloop/internal/config"
	"github.com/frameloop/frameloop/internal/orchestrator"
	"github.com/frameloop/frameloop/internal/provider"
	"github.com/frameloop/frameloop/internal/server"
	"github.com/frameloop/frameloop/internal/session"
	"github.com/frameloop/frameloop/internal/storage"
	"github.com/frameloop/frameloop/internal/video"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is optional; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	encoderName := cfg.VideoEncoder
	if encoderName == "" {
		encoderName = video.BestH264Encoder()
	}
	quality := cfg.VideoQuality
	if quality == 0 {
		quality = video.DefaultQuality(encoderName)
	}

	logger.Info("starting frameloop",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("prompt_mode", cfg.PromptMode),
		slog.Int("refresh_seconds", cfg.RefreshSeconds),
		slog.String("video_encoder", encoderName),
		slog.Int("video_quality", quality),
		slog.String("log_format", cfg.LogFormat),
	)

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	ai, err := provider.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
		cfg.ChatModel, cfg.ImageModel, cfg.VisionModel)
	if err != nil {
		return fmt.Errorf("initialize provider: %w", err)
	}

	mode := session.Mode(cfg.PromptMode)
	if !session.ValidMode(mode) {
		return fmt.Errorf("unknown prompt mode %q", cfg.PromptMode)
	}
	sess := session.New(mode, cfg.ManualPrompt, cfg.ThemePrompt,
		time.Duration(cfg.RefreshSeconds)*time.Second)

	renderer := &video.Renderer{
		EncoderName: encoderName,
		Quality:     quality,
	}

	orch := orchestrator.New(sess, store, ai, ai, renderer, nil, orchestrator.Options{
		Quirkiness: cfg.Quirkiness,
		Logger:     logger,
	})

	if err := server.EnsurePlaceholder(store, cfg.PublicBaseURL, logger); err != nil {
		return fmt.Errorf("write placeholder: %w", err)
	}

	handlers := server.NewHandlers(orch, sess, ai, logger)
	router := server.NewRouter(handlers, store, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Video synthesis happens on the request path
		IdleTimeout:  60 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal",
			slog.String("signal", sig.String()),
		)
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
