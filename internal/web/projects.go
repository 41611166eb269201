package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/screencast-studio/internal/project"
	"github.com/p-blackswan/screencast-studio/internal/script"
)

// createProjectRequest accepts both the short and the long field names
// editors send. A topic, when present, wins over name and title.
type createProjectRequest struct {
	Name            string `json:"name"`
	Title           string `json:"title"`
	Topic           string `json:"topic"`
	DurationMinutes int    `json:"duration_minutes"`
	Environment     string `json:"environment"`
	AudienceLevel   string `json:"audience_level"`
}

// updateProjectRequest uses pointers so absent fields stay untouched.
// A segments list, when present, replaces the parsed segments wholesale.
type updateProjectRequest struct {
	Name           *string          `json:"name"`
	Title          *string          `json:"title"`
	RawScript      *string          `json:"raw_script"`
	Description    *string          `json:"description"`
	TargetDuration *int             `json:"target_duration"`
	Environment    *string          `json:"environment"`
	AudienceLevel  *string          `json:"audience_level"`
	Style          *string          `json:"style"`
	Segments       []script.Segment `json:"segments"`
}

// updateSegmentRequest edits one segment in place. Status values are
// validated; everything else is taken as sent.
type updateSegmentRequest struct {
	Title            *string  `json:"title"`
	Narration        *string  `json:"narration"`
	VisualCue        *string  `json:"visual_cue"`
	Code             *string  `json:"code"`
	Section          *string  `json:"section"`
	DurationEstimate *float64 `json:"duration_estimate"`
	Status           *string  `json:"status"`
}

// importScriptRequest carries the markdown to parse. script_text is the
// editor's field name, raw_script the API one; either works.
type importScriptRequest struct {
	ScriptText string `json:"script_text"`
	RawScript  string `json:"raw_script"`
}

// ListProjects handles GET /api/v1/projects.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	summaries, err := h.projects.List()
	if err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(summaries)
}

// CreateProject handles POST /api/v1/projects.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
	}

	title := req.Name
	if title == "" {
		title = req.Title
	}
	p := project.New(title)

	if req.Topic != "" {
		p.Title = req.Topic
	}
	if req.DurationMinutes > 0 {
		p.TargetDuration = req.DurationMinutes
	}
	if req.Environment != "" {
		p.Environment = req.Environment
	}
	if req.AudienceLevel != "" {
		p.AudienceLevel = req.AudienceLevel
	}

	if err := h.projects.Save(p); err != nil {
		return problemFromError(c, err)
	}

	h.logger.Info().
		Str("project_id", p.ID).
		Str("title", p.Title).
		Msg("project created")

	return c.Status(fiber.StatusCreated).JSON(p)
}

// GetProject handles GET /api/v1/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}
	return c.JSON(p)
}

// UpdateProject handles PUT /api/v1/projects/:id.
func (h *Handlers) UpdateProject(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	var req updateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	if req.Name != nil {
		p.Title = *req.Name
	} else if req.Title != nil {
		p.Title = *req.Title
	}
	if req.RawScript != nil {
		p.RawScript = *req.RawScript
		p.Segments = script.Parse(p.RawScript)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.TargetDuration != nil {
		p.TargetDuration = *req.TargetDuration
	}
	if req.Environment != nil {
		p.Environment = *req.Environment
	}
	if req.AudienceLevel != nil {
		p.AudienceLevel = *req.AudienceLevel
	}
	if req.Style != nil {
		p.Style = *req.Style
	}
	if req.Segments != nil {
		p.Segments = req.Segments
	}

	if err := h.projects.Save(p); err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(p)
}

// DeleteProject handles DELETE /api/v1/projects/:id.
func (h *Handlers) DeleteProject(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.projects.Delete(id); err != nil {
		return h.projectProblem(c, err)
	}

	// A stale recording session must not outlive its project.
	if h.sessions != nil {
		_ = h.sessions.Delete(id)
	}

	h.logger.Info().Str("project_id", id).Msg("project deleted")
	return c.JSON(fiber.Map{"success": true})
}

// GetSegments handles GET /api/v1/projects/:id/segments.
func (h *Handlers) GetSegments(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}
	return c.JSON(fiber.Map{"segments": p.Segments})
}

// UpdateSegment handles PUT /api/v1/projects/:id/segments/:segID.
func (h *Handlers) UpdateSegment(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	seg := p.Segment(c.Params("segID"))
	if seg == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", "Segment not found")
	}

	var req updateSegmentRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	if req.Status != nil && !script.ValidStatus(*req.Status) {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_status", "Bad Request",
			"Invalid status: "+*req.Status)
	}

	if req.Title != nil {
		seg.Title = *req.Title
	}
	if req.Narration != nil {
		seg.Narration = *req.Narration
	}
	if req.VisualCue != nil {
		seg.VisualCue = *req.VisualCue
	}
	if req.Code != nil {
		seg.Code = *req.Code
	}
	if req.Section != nil {
		seg.Section = *req.Section
	}
	if req.DurationEstimate != nil {
		seg.DurationEstimate = *req.DurationEstimate
	}
	if req.Status != nil {
		seg.Status = script.SegmentStatus(*req.Status)
	}
	seg.UpdatedAt = time.Now().UTC()

	if err := h.projects.Save(p); err != nil {
		return problemFromError(c, err)
	}
	return c.JSON(seg)
}

// ImportScript handles POST /api/v1/projects/:id/import-script. It
// stores the raw markdown and replaces the segment list with a fresh
// parse. With an empty body the project's stored script is re-parsed.
func (h *Handlers) ImportScript(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	var req importScriptRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
	}

	text := req.ScriptText
	if text == "" {
		text = req.RawScript
	}
	if text == "" {
		text = p.RawScript
	}
	if text == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_script", "Bad Request", "No script text available")
	}

	p.RawScript = text
	p.Segments = script.Parse(text)
	if err := h.projects.Save(p); err != nil {
		return problemFromError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordScriptParsed()
	}
	h.logger.Info().
		Str("project_id", p.ID).
		Int("segments", len(p.Segments)).
		Msg("script imported")

	return c.JSON(fiber.Map{"success": true, "segments": p.Segments})
}
