package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/p-blackswan/screencast-studio/internal/config"
	"github.com/p-blackswan/screencast-studio/internal/metrics"
	"github.com/p-blackswan/screencast-studio/internal/requestid"
)

// Server is the studio API Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	cfg      *config.Config
}

// NewServer creates and configures the studio API server.
func NewServer(cfg *config.Config, h *Handlers, m *metrics.Metrics, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
		ReadTimeout:           cfg.RequestTimeout,
		WriteTimeout:          cfg.RequestTimeout,
	})

	s := &Server{
		app:      app,
		handlers: h,
		metrics:  m,
		logger:   logger.With().Str("component", "server").Logger(),
		cfg:      cfg,
	}

	s.setupMiddleware(cfg, logger)
	s.setupRoutes(h)

	return s
}

func (s *Server) setupMiddleware(cfg *config.Config, logger zerolog.Logger) {
	// Recovery middleware
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware. Incoming IDs are kept so callers can trace
	// requests across services.
	s.app.Use(func(c *fiber.Ctx) error {
		reqID := c.Get(requestid.Header)
		if reqID == "" {
			_, reqID = requestid.New(c.Context())
		}
		c.Set(requestid.Header, reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	// CORS middleware
	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		}))
	}

	// Rate limiter
	if cfg.RateLimitRPS > 0 {
		s.app.Use(NewRateLimitMiddleware(RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		}))
	}

	// Auth middleware
	s.app.Use(NewAuthMiddleware(AuthConfig{
		Mode:      cfg.AuthMode,
		APIKey:    cfg.APIKey,
		JWTSecret: cfg.JWTSecret,
	}, logger))

	// Audit middleware (log every request, time every route)
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		// Skip noisy probe logging
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Str("ip", c.IP()).
			Str("request_id", fmt.Sprintf("%v", c.Locals("request_id"))).
			Msg("api request")

		start := time.Now()
		err := c.Next()

		if s.metrics != nil {
			status := c.Response().StatusCode()
			if err != nil {
				status = fiber.StatusInternalServerError
				var fe *fiber.Error
				if errors.As(err, &fe) {
					status = fe.Code
				}
			}
			route := c.Route().Path
			s.metrics.RecordHTTPRequest(c.Method(), route, strconv.Itoa(status))
			s.metrics.ObserveHTTPDuration(c.Method(), route, time.Since(start).Seconds())
		}
		return err
	})
}

func (s *Server) setupRoutes(h *Handlers) {
	// Probe endpoints (no auth required — handled in auth middleware)
	s.app.Get("/healthz", h.Liveness)
	s.app.Get("/readyz", h.Readiness)

	// Prometheus metrics
	if s.metrics != nil {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(s.metrics.Handler())
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	} else {
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			return c.SendString("# No metrics collector configured\n")
		})
	}

	// API v1 routes
	v1 := s.app.Group("/api/v1")

	// Projects
	v1.Post("/projects", h.CreateProject)
	v1.Get("/projects", h.ListProjects)
	v1.Get("/projects/:id", h.GetProject)
	v1.Put("/projects/:id", h.UpdateProject)
	v1.Delete("/projects/:id", requireRole(RoleOperator), h.DeleteProject)
	v1.Post("/projects/:id/import-script", h.ImportScript)
	v1.Get("/projects/:id/segments", h.GetSegments)
	v1.Put("/projects/:id/segments/:segID", h.UpdateSegment)

	// Script quality
	v1.Post("/projects/:id/score-script", h.ScoreScript)
	v1.Get("/projects/:id/quality-check", h.QualityCheck)
	v1.Post("/projects/:id/quality-check", h.QualityCheck)
	v1.Post("/projects/:id/fix-issue", h.FixIssue)
	v1.Post("/projects/:id/fix-all-issues", h.FixAllIssues)

	// Recording sessions
	v1.Post("/projects/:id/recording-session", h.CreateRecordingSession)
	v1.Get("/projects/:id/recording-session", h.GetRecordingSession)
	v1.Delete("/projects/:id/recording-session", h.DeleteRecordingSession)
	v1.Put("/projects/:id/recording-session/mode", h.SetRecordingMode)
	v1.Put("/projects/:id/recording-session/teleprompter", h.UpdateTeleprompter)
	v1.Post("/projects/:id/recording-session/rehearsal", h.StartRehearsal)
	v1.Post("/projects/:id/recording-session/rehearsal/complete", h.CompleteRehearsal)

	// Timeline & TTS
	v1.Get("/projects/:id/timeline", h.ProjectTimeline)
	v1.Post("/projects/:id/timeline", h.GenerateTimeline)
	v1.Post("/projects/:id/tts-script", h.TTSScript)

	// Generation & assistant chat
	v1.Post("/projects/:id/generate-script", h.GenerateProjectScript)
	v1.Post("/chat", h.Chat)

	// Health detail
	v1.Get("/health", h.HealthDetail)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}

	s.logger.Info().Str("addr", addr).Msg("studio API server starting")

	if s.cfg.TLSEnabled() {
		return s.app.ListenTLS(addr, s.cfg.TLSCert, s.cfg.TLSKey)
	}
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("studio API server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		detail := err.Error()
		// Don't leak internal details
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}

		c.Set(fiber.HeaderContentType, "application/problem+json")
		return c.Status(code).JSON(ProblemDetail{
			Type:     "internal_error",
			Title:    "Internal Server Error",
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
