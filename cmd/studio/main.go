package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/screencast-studio/internal/config"
	"github.com/p-blackswan/screencast-studio/internal/generate"
	"github.com/p-blackswan/screencast-studio/internal/health"
	"github.com/p-blackswan/screencast-studio/internal/llm"
	"github.com/p-blackswan/screencast-studio/internal/metrics"
	"github.com/p-blackswan/screencast-studio/internal/project"
	"github.com/p-blackswan/screencast-studio/internal/quality"
	"github.com/p-blackswan/screencast-studio/internal/session"
	"github.com/p-blackswan/screencast-studio/internal/tts"
	"github.com/p-blackswan/screencast-studio/internal/web"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("http_addr", cfg.HTTPAddr).
		Str("projects_dir", cfg.ProjectsDir).
		Bool("llm_enabled", cfg.LLMEnabled()).
		Bool("session_persistence", cfg.SessionPersistenceEnabled()).
		Msg("starting screencast studio")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Metrics registry
	m := metrics.New()

	// Project store (JSON files, one directory per project)
	projects, err := project.NewStore(cfg.ProjectsDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ProjectsDir).Msg("failed to init project store")
	}

	// Recording-session store: memory, with optional SQLite write-through
	var sessionOpts []session.Option
	if cfg.SessionPersistenceEnabled() {
		backend, beErr := session.NewBackend(cfg.SessionDBPath, logger)
		if beErr != nil {
			logger.Warn().Err(beErr).Str("path", cfg.SessionDBPath).
				Msg("failed to open session database — running memory-only (non-fatal)")
		} else {
			sessionOpts = append(sessionOpts, session.WithBackend(backend))
			logger.Info().Str("path", cfg.SessionDBPath).Msg("session persistence enabled")
		}
	}
	sessions := session.NewStore(cfg.SessionTTL, logger, sessionOpts...)
	sessions.StartJanitor(cfg.SessionSweepInterval)

	// LLM client (optional — scoring degrades to rule-based without one)
	var client llm.Client
	provider := strings.ToLower(cfg.LLMProvider)
	if cfg.LLMEnabled() {
		llmOpts := []llm.Option{
			llm.WithModel(cfg.LLMModel),
			llm.WithMaxTokens(cfg.LLMMaxTokens),
			llm.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}),
			llm.WithLogger(logger),
			llm.WithUsageFunc(m.UsageFunc(provider)),
		}
		switch provider {
		case "openai":
			client = llm.NewOpenAI(cfg.OpenAIAPIKey, llmOpts...)
		default:
			client = llm.NewAnthropic(cfg.AnthropicAPIKey, llmOpts...)
		}
		client = m.WrapClient(client, provider)
		logger.Info().Str("provider", provider).Msg("LLM client initialized")
	} else {
		logger.Info().Msg("LLM not configured — scoring runs rule-based only")
	}

	// TTS replacement table overrides
	var customReplacements []tts.Replacement
	if cfg.TTSTablePath != "" {
		customReplacements, err = tts.LoadTable(cfg.TTSTablePath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.TTSTablePath).
				Msg("failed to load TTS table — using built-in replacements (non-fatal)")
			customReplacements = nil
		} else {
			logger.Info().Int("entries", len(customReplacements)).Msg("custom TTS table loaded")
		}
	}

	scorer := quality.NewScorer(client, logger)
	optimizer := tts.NewOptimizer(client, logger, customReplacements...)
	generator := generate.NewGenerator(client, logger)

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("project_store", health.DirWritable(projects.Root()))
	checker.Register("session_store", health.Ping(sessions.Ping))
	checker.Register("llm", health.Configured(cfg.LLMEnabled()))

	// HTTP API
	handlers := web.NewHandlers(cfg, projects, sessions, scorer, optimizer, generator, client, checker, m, logger)
	server := web.NewServer(cfg, handlers, m, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("HTTP server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
		}
		if err := sessions.Close(); err != nil {
			logger.Error().Err(err).Msg("session store close error")
		}
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all components stopped")
	case <-shutdownCtx.Done():
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("screencast studio stopped")
}
