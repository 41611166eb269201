package web

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
	"github.com/p-blackswan/screencast-studio/internal/generate"
	"github.com/p-blackswan/screencast-studio/internal/llm"
	"github.com/p-blackswan/screencast-studio/internal/script"
	"github.com/p-blackswan/screencast-studio/internal/timeline"
	"github.com/p-blackswan/screencast-studio/internal/tts"
)

// chatSystemPrompt steers the production assistant. Project context is
// appended per request when the caller names a project.
const chatSystemPrompt = `You are the AI assistant for ScreenCast Studio, helping create technical screencast packages.

You can help with:
1. Writing and refining narration scripts
2. Generating demo code that syncs with scripts
3. Creating sample datasets with realistic data
4. Optimizing text for TTS engines
5. Checking alignment between components
6. Suggesting improvements

Current project context will be provided. When the user asks for changes:
1. Make the specific change requested
2. Explain what you changed
3. Note any related updates needed in other components
4. Offer to make those related updates

Be concise but thorough. Show relevant snippets, not full files unless asked.`

// timelineEntry is one segment on the cumulative project timeline.
type timelineEntry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Section   string  `json:"section"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	EndTime   float64 `json:"end_time"`
	Narration string  `json:"narration"`
	VisualCue string  `json:"visual_cue"`
	Code      string  `json:"code"`
	AudioPath string  `json:"audio_path"`
}

// segmentDuration prefers the measured take over the estimate, with a
// thirty second default for segments that have neither.
func segmentDuration(seg *script.Segment) float64 {
	if seg.RecordedDuration > 0 {
		return seg.RecordedDuration
	}
	if seg.DurationEstimate > 0 {
		return seg.DurationEstimate
	}
	return 30
}

// segmentEnvironment picks the event vocabulary for one segment: code
// demos follow the project's recording environment, everything else is
// a slide.
func segmentEnvironment(seg *script.Segment, projectEnv string) timeline.Environment {
	if seg.Type != script.TypeScreencast {
		return timeline.EnvSlide
	}
	if projectEnv == string(timeline.EnvTerminal) {
		return timeline.EnvTerminal
	}
	return timeline.EnvNotebook
}

// ProjectTimeline handles GET /api/v1/projects/:id/timeline: the
// segments laid end to end, using recorded durations where available.
func (h *Handlers) ProjectTimeline(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	entries := make([]timelineEntry, 0, len(p.Segments))
	current := 0.0
	for i := range p.Segments {
		seg := &p.Segments[i]
		duration := segmentDuration(seg)
		entries = append(entries, timelineEntry{
			ID:        seg.ID,
			Title:     seg.Title,
			Section:   seg.Section,
			StartTime: current,
			Duration:  duration,
			EndTime:   current + duration,
			Narration: seg.Narration,
			VisualCue: seg.VisualCue,
			Code:      seg.Code,
			AudioPath: seg.AudioPath,
		})
		current += duration
	}

	return c.JSON(fiber.Map{
		"total_duration": current,
		"segments":       entries,
	})
}

type timelineRequest struct {
	SegmentID     string  `json:"segment_id"`
	AudioDuration float64 `json:"audio_duration"`
}

// GenerateTimeline handles POST /api/v1/projects/:id/timeline: the timed
// event sequence for one segment. audio_duration overrides the stored
// durations once the narration take has been measured.
func (h *Handlers) GenerateTimeline(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	var req timelineRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.SegmentID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_segment_id", "Bad Request", "segment_id is required")
	}

	seg := p.Segment(req.SegmentID)
	if seg == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found",
			fmt.Sprintf("Segment %s not found", req.SegmentID))
	}

	audio := req.AudioDuration
	if audio <= 0 {
		audio = segmentDuration(seg)
	}

	in := timeline.Input{
		SegmentID:   seg.ID,
		Environment: segmentEnvironment(seg, p.Environment),
	}
	if seg.Code != "" {
		in.Cells = []timeline.Cell{{ID: "cell_1", Code: seg.Code}}
	}

	tl := timeline.NewGenerator().Generate(in, audio)

	events := make([]fiber.Map, 0, len(tl.Events))
	for _, e := range tl.Events {
		events = append(events, fiber.Map{
			"time_ms": int(e.Time * 1000),
			"type":    e.Action,
			"data":    e.Params,
		})
	}

	return c.JSON(fiber.Map{
		"segment_id":        seg.ID,
		"total_duration_ms": int(tl.TotalDuration * 1000),
		"events":            events,
	})
}

type ttsScriptRequest struct {
	Polish bool `json:"polish"`
}

// TTSScript handles POST /api/v1/projects/:id/tts-script: extract the
// narration, run the replacement table (optionally with a model polish
// pass on top), persist the result on the project, and drop a narration
// file next to the project data for the voice pipeline.
func (h *Handlers) TTSScript(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}
	if p.RawScript == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_script", "Bad Request", "No script to extract narration from")
	}

	var req ttsScriptRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
	}

	segments := tts.ExtractNarration(p.RawScript)
	narration := tts.NarrationText(p.RawScript)

	var optimized string
	if req.Polish {
		ctx, cancel := h.llmContext(c)
		defer cancel()
		optimized = h.optimizer.Polish(ctx, narration)
	} else {
		optimized = h.optimizer.Optimize(narration)
	}
	changes := h.optimizer.Changes(narration, optimized)

	p.TTSScript = optimized
	if err := h.projects.Save(p); err != nil {
		return problemFromError(c, err)
	}

	narrationFile := ""
	if dir, err := h.projects.Dir(p.ID); err == nil {
		narrationFile = filepath.Join(dir, "data", "narration.txt")
		if err := os.WriteFile(narrationFile, []byte(optimized+"\n"), 0o644); err != nil {
			h.logger.Warn().Err(err).Str("project_id", p.ID).Msg("narration file write failed")
			narrationFile = ""
		}
	}

	total := tts.TotalDuration(segments)
	words := 0
	for _, s := range segments {
		words += s.WordCount
	}

	return c.JSON(fiber.Map{
		"success":            true,
		"tts_script":         optimized,
		"changes":            changes,
		"narration_file":     narrationFile,
		"total_words":        words,
		"estimated_duration": fmt.Sprintf("%d:%02d", int(total)/60, int(total)%60),
		"segments":           segments,
	})
}

// GenerateProjectScript handles POST /api/v1/projects/:id/generate-script.
// The topic falls back to the project title; duration, style, environment
// and audience fall back to the project brief. The generated script is
// stored and parsed in one step.
func (h *Handlers) GenerateProjectScript(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	var req generate.Request
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
	}

	if req.Topic == "" {
		req.Topic = p.Title
	}
	if req.Topic == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_topic", "Bad Request", "Topic is required")
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = p.TargetDuration
	}
	if req.Environment == "" {
		req.Environment = p.Environment
	}
	if req.Audience == "" {
		req.Audience = p.AudienceLevel
	}
	if req.Style == "" {
		req.Style = p.Style
	}

	ctx, cancel := h.llmContext(c)
	defer cancel()

	result, err := h.generator.GenerateScript(ctx, req)
	if err != nil {
		return problemFromError(c, err)
	}

	p.RawScript = result.Script
	p.Segments = script.Parse(result.Script)
	if err := h.projects.Save(p); err != nil {
		return problemFromError(c, err)
	}
	if h.metrics != nil {
		h.metrics.RecordScriptParsed()
	}

	h.logger.Info().
		Str("project_id", p.ID).
		Str("topic", req.Topic).
		Int("segments", len(p.Segments)).
		Msg("script generated")

	return c.JSON(fiber.Map{
		"success":  true,
		"script":   result.Script,
		"metadata": result.Metadata,
		"segments": p.Segments,
	})
}

type chatRequest struct {
	Message   string        `json:"message"`
	History   []llm.Message `json:"history"`
	ProjectID string        `json:"project_id"`
}

// Chat handles POST /api/v1/chat. Conversation state rides in the
// request and response; the server keeps none.
func (h *Handlers) Chat(c *fiber.Ctx) error {
	if h.client == nil {
		return problemFromError(c, fmt.Errorf("assistant chat: %w", apperr.ErrLLMUnavailable))
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Message == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_message", "Bad Request", "Message is required")
	}

	sys := chatSystemPrompt
	if req.ProjectID != "" {
		if p, err := h.projects.Load(req.ProjectID); err == nil {
			sys = fmt.Sprintf("%s\n\nContext:\nCurrent project:\nTopic: %s\nEnvironment: %s\nTarget duration: %d minutes",
				sys, p.Title, p.Environment, p.TargetDuration)
		}
	}

	ctx, cancel := h.llmContext(c)
	defer cancel()

	state := llm.ConversationState{Messages: req.History}
	reply, state, err := h.client.Chat(ctx, state, req.Message, llm.WithSystemPrompt(sys))
	if err != nil {
		return problemFromError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"reply":   reply,
		"history": state.Messages,
	})
}
