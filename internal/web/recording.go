package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
	"github.com/p-blackswan/screencast-studio/internal/recording"
)

type sessionModeRequest struct {
	Mode string `json:"mode"`
}

type teleprompterRequest struct {
	FontSize         *int     `json:"font_size"`
	ScrollSpeed      *float64 `json:"scroll_speed"`
	LineHeight       *float64 `json:"line_height"`
	CountdownSeconds *int     `json:"countdown_seconds"`
	Mirror           *bool    `json:"mirror"`
	HighlightCurrent *bool    `json:"highlight_current"`
	AutoScroll       *bool    `json:"auto_scroll"`
}

type rehearsalRequest struct {
	ActualDuration float64                   `json:"actual_duration"`
	SectionTimings []recording.SectionTiming `json:"section_timings"`
	Notes          string                    `json:"notes"`
}

// sessionProblem renders a session lookup failure with the caller's
// detail for misses.
func (h *Handlers) sessionProblem(c *fiber.Ctx, err error, detail string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", detail)
	}
	return problemFromError(c, err)
}

// CreateRecordingSession handles POST /api/v1/projects/:id/recording-session.
// The session is rebuilt from the current script every time; an unknown
// mode falls back to teleprompter rather than failing.
func (h *Handlers) CreateRecordingSession(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}
	if p.RawScript == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_script", "Bad Request", "No script to generate session from")
	}

	var req sessionModeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
	}
	mode, err := recording.ParseMode(req.Mode)
	if err != nil {
		mode = recording.ModeTeleprompter
	}

	sess := recording.GenerateSession(p.ID, p.RawScript, mode)
	if err := h.sessions.Put(sess); err != nil {
		return problemFromError(c, err)
	}
	if h.metrics != nil {
		h.metrics.SetActiveSessions(h.sessions.Active())
	}

	h.logger.Info().
		Str("project_id", p.ID).
		Str("mode", string(mode)).
		Int("cues", len(sess.Cues)).
		Msg("recording session generated")

	return c.JSON(fiber.Map{"success": true, "session": sess})
}

// GetRecordingSession handles GET /api/v1/projects/:id/recording-session.
func (h *Handlers) GetRecordingSession(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.sessionProblem(c, err, "No recording session found. Generate one first.")
	}
	return c.JSON(fiber.Map{"session": sess})
}

// DeleteRecordingSession handles DELETE /api/v1/projects/:id/recording-session.
func (h *Handlers) DeleteRecordingSession(c *fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return h.sessionProblem(c, err, "No recording session found")
	}
	if h.metrics != nil {
		h.metrics.SetActiveSessions(h.sessions.Active())
	}
	return c.JSON(fiber.Map{"success": true})
}

// SetRecordingMode handles PUT /api/v1/projects/:id/recording-session/mode.
func (h *Handlers) SetRecordingMode(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.sessionProblem(c, err, "No recording session found")
	}

	var req sessionModeRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Mode == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_mode", "Bad Request", "mode is required")
	}

	mode, err := recording.ParseMode(req.Mode)
	if err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_mode", "Bad Request", "Invalid mode: "+req.Mode)
	}

	sess.Mode = mode
	if err := h.sessions.Put(sess); err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "mode": mode})
}

// UpdateTeleprompter handles PUT /api/v1/projects/:id/recording-session/teleprompter.
// Absent fields keep their current values.
func (h *Handlers) UpdateTeleprompter(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.sessionProblem(c, err, "No recording session found")
	}

	var req teleprompterRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	settings := &sess.TeleprompterSettings
	if req.FontSize != nil {
		settings.FontSize = *req.FontSize
	}
	if req.ScrollSpeed != nil {
		settings.ScrollSpeed = *req.ScrollSpeed
	}
	if req.LineHeight != nil {
		settings.LineHeight = *req.LineHeight
	}
	if req.CountdownSeconds != nil {
		settings.CountdownSeconds = *req.CountdownSeconds
	}
	if req.Mirror != nil {
		settings.Mirror = *req.Mirror
	}
	if req.HighlightCurrent != nil {
		settings.HighlightCurrent = *req.HighlightCurrent
	}
	if req.AutoScroll != nil {
		settings.AutoScroll = *req.AutoScroll
	}

	if err := h.sessions.Put(sess); err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "teleprompter_settings": sess.TeleprompterSettings})
}

// StartRehearsal handles POST /api/v1/projects/:id/recording-session/rehearsal.
// It hands the client everything needed to time a run: a fresh rehearsal
// id, the cue list, and the duration target.
func (h *Handlers) StartRehearsal(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.sessionProblem(c, err, "No recording session found")
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"rehearsal_id":    uuid.NewString()[:8],
		"total_cues":      len(sess.Cues),
		"target_duration": sess.TotalDurationEstimate,
		"cues":            sess.Cues,
	})
}

// CompleteRehearsal handles POST /api/v1/projects/:id/recording-session/rehearsal/complete.
func (h *Handlers) CompleteRehearsal(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return h.sessionProblem(c, err, "No recording session found")
	}

	var req rehearsalRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
	}

	result := recording.NewRehearsalResult(
		req.ActualDuration, sess.TotalDurationEstimate, req.SectionTimings, req.Notes)
	sess.Rehearsals = append(sess.Rehearsals, result)
	if err := h.sessions.Put(sess); err != nil {
		return problemFromError(c, err)
	}

	h.logger.Info().
		Str("project_id", sess.ProjectID).
		Str("rehearsal_id", result.ID).
		Str("pace", result.PaceFeedback()).
		Msg("rehearsal recorded")

	return c.JSON(fiber.Map{
		"success":          true,
		"rehearsal":        result,
		"total_rehearsals": len(sess.Rehearsals),
	})
}
