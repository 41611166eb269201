// Package web serves the studio HTTP API: project CRUD, script parsing
// and generation, quality scoring with the auto-fix loop, recording
// sessions, playback timelines, and TTS narration, all under /api/v1
// with RFC 7807 problem responses.
package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
	"github.com/p-blackswan/screencast-studio/internal/config"
	"github.com/p-blackswan/screencast-studio/internal/generate"
	"github.com/p-blackswan/screencast-studio/internal/health"
	"github.com/p-blackswan/screencast-studio/internal/llm"
	"github.com/p-blackswan/screencast-studio/internal/metrics"
	"github.com/p-blackswan/screencast-studio/internal/project"
	"github.com/p-blackswan/screencast-studio/internal/quality"
	"github.com/p-blackswan/screencast-studio/internal/session"
	"github.com/p-blackswan/screencast-studio/internal/tts"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	cfg       *config.Config
	projects  *project.Store
	sessions  *session.Store
	scorer    *quality.Scorer
	optimizer *tts.Optimizer
	generator *generate.Generator
	client    llm.Client
	checker   *health.Checker
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance. client may be nil when no
// LLM provider is configured; scoring then runs rule-based only and the
// generation endpoints report the model as unavailable.
func NewHandlers(
	cfg *config.Config,
	projects *project.Store,
	sessions *session.Store,
	scorer *quality.Scorer,
	optimizer *tts.Optimizer,
	generator *generate.Generator,
	client llm.Client,
	checker *health.Checker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		cfg:       cfg,
		projects:  projects,
		sessions:  sessions,
		scorer:    scorer,
		optimizer: optimizer,
		generator: generator,
		client:    client,
		checker:   checker,
		metrics:   m,
		logger:    logger.With().Str("component", "handlers").Logger(),
		startTime: time.Now(),
	}
}

// llmContext bounds a model-backed handler by the configured LLM timeout.
func (h *Handlers) llmContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	timeout := h.cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return context.WithTimeout(c.Context(), timeout)
}

// projectProblem renders a project load failure, keeping the familiar
// "Project not found" detail for missing IDs.
func (h *Handlers) projectProblem(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", "Project not found")
	}
	return problemFromError(c, err)
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	ready := h.checker.IsReady(c.Context())
	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// HealthDetail handles GET /api/v1/health.
func (h *Handlers) HealthDetail(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())
	status := health.StatusOK
	for _, s := range results {
		if s == health.StatusDown {
			status = health.StatusDown
			break
		}
		if s == health.StatusDegraded {
			status = health.StatusDegraded
		}
	}
	return c.JSON(fiber.Map{
		"status":         status,
		"checks":         results,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"llm_enabled":    h.cfg.LLMEnabled(),
	})
}
