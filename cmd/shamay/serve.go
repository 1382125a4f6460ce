package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/agent/providers"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/config"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/gateway"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/intake"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/observability"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/security"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/sessions"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/trace"
)

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the appraisal chat server",
		Long: `Start the appraisal chat server.

The server loads its configuration, opens the record database, connects the
model provider and listens for chat requests. Graceful shutdown is handled
on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	store, err := sessions.NewSQLiteProvider(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	logger.Info(ctx, "database opened", "path", cfg.Database.Path)

	provider, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		MaxRetries:   cfg.LLM.MaxRetries,
		RetryDelay:   cfg.LLM.RetryDelay,
		DefaultModel: cfg.LLM.Model,
	})
	if err != nil {
		return fmt.Errorf("model provider: %w", err)
	}

	var extraSinks []trace.Sink
	if cfg.Trace.JSONLPath != "" {
		var opts []trace.JSONLOption
		if cfg.Trace.RedactContent {
			opts = append(opts, trace.WithRedactor(trace.DefaultRedactor))
		}
		writer, err := trace.NewJSONLFile(cfg.Trace.JSONLPath, opts...)
		if err != nil {
			return fmt.Errorf("trace file: %w", err)
		}
		defer writer.Close()
		extraSinks = append(extraSinks, writer)
	}

	server := gateway.NewServer(gateway.ServerConfig{
		Sessions:      store,
		Provider:      provider,
		InputFilter:   security.NewFilter(&security.FilterConfig{MaxInputRunes: cfg.Security.MaxInputRunes}),
		OutputFilter:  security.NewOutputFilter(),
		Scanner:       intake.NewScanner(&intake.ScannerConfig{MaxFileSize: cfg.Security.MaxFileBytes}),
		TraceStore:    trace.NewStore(cfg.Trace.MaxSessions),
		ExtraSinks:    extraSinks,
		Logger:        logger,
		Metrics:       metrics,
		Registry:      registry,
		MaxIterations: cfg.Chat.MaxIterations,
		MaxTokens:     cfg.Chat.MaxTokens,
		ToolTimeout:   cfg.Chat.ToolTimeout,
		ChunkRunes:    cfg.Chat.ChunkRunes,
		ChunkDelay:    cfg.Chat.ChunkDelay,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// No write timeout: chat replies stream for as long as the loop runs.
		WriteTimeout: 0,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info(context.Background(), "server stopped")
	return nil
}
