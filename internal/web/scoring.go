package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/screencast-studio/internal/quality"
	"github.com/p-blackswan/screencast-studio/internal/script"
)

// scoreResponse flattens the rubric score under a success flag.
type scoreResponse struct {
	Success bool `json:"success"`
	quality.Score
}

// reportResponse does the same for the rule-based report.
type reportResponse struct {
	Success bool `json:"success"`
	quality.Report
}

// ScoreScript handles POST /api/v1/projects/:id/score-script.
func (h *Handlers) ScoreScript(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	ctx, cancel := h.llmContext(c)
	defer cancel()

	score := h.scorer.ScoreScript(ctx, p.RawScript)
	if h.metrics != nil {
		h.metrics.ObserveScore(score.Total)
	}
	return c.JSON(scoreResponse{Success: true, Score: score})
}

// QualityCheck handles GET and POST /api/v1/projects/:id/quality-check:
// the rule-based report, no model involved. target_minutes (query or
// body) overrides the project's target duration for the timing check.
func (h *Handlers) QualityCheck(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	target := c.QueryInt("target_minutes", 0)
	if target == 0 && len(c.Body()) > 0 {
		var req struct {
			TargetMinutes int `json:"target_minutes"`
		}
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
		target = req.TargetMinutes
	}
	if target <= 0 {
		target = p.TargetDuration
	}

	report := quality.CheckScript(p.RawScript, target)
	return c.JSON(reportResponse{Success: true, Report: report})
}

type fixIssueRequest struct {
	IssueID string `json:"issue_id"`
}

// FixIssue handles POST /api/v1/projects/:id/fix-issue. The script is
// re-scored to locate the issue, fixed, saved with freshly parsed
// segments, and scored again.
func (h *Handlers) FixIssue(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	var req fixIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.IssueID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_issue_id", "Bad Request", "issue_id is required")
	}

	ctx, cancel := h.llmContext(c)
	defer cancel()

	score := h.scorer.ScoreScript(ctx, p.RawScript)
	var issue *quality.Issue
	for i := range score.Issues {
		if score.Issues[i].ID == req.IssueID {
			issue = &score.Issues[i]
			break
		}
	}
	if issue == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", "Issue not found")
	}

	updated, explanation, err := h.scorer.FixIssue(ctx, p.RawScript, *issue)
	if err != nil {
		return problemFromError(c, err)
	}

	p.RawScript = updated
	p.Segments = script.Parse(updated)
	if err := h.projects.Save(p); err != nil {
		return problemFromError(c, err)
	}

	newScore := h.scorer.ScoreScript(ctx, updated)
	if h.metrics != nil {
		h.metrics.ObserveScore(newScore.Total)
	}

	h.logger.Info().
		Str("project_id", p.ID).
		Str("issue_id", req.IssueID).
		Int("old_score", score.Total).
		Int("new_score", newScore.Total).
		Msg("issue fixed")

	return c.JSON(fiber.Map{
		"success":          true,
		"explanation":      explanation,
		"old_score":        score.Total,
		"new_score":        newScore.Total,
		"remaining_issues": len(newScore.Issues),
		"updated_script":   updated,
	})
}

type fixAllRequest struct {
	TargetScore   int `json:"target_score"`
	MaxIterations int `json:"max_iterations"`
}

// FixAllIssues handles POST /api/v1/projects/:id/fix-all-issues: the
// iterative fix loop, bounded by target score and iteration cap.
func (h *Handlers) FixAllIssues(c *fiber.Ctx) error {
	p, err := h.projects.Load(c.Params("id"))
	if err != nil {
		return h.projectProblem(c, err)
	}

	req := fixAllRequest{
		TargetScore:   h.cfg.FixTargetScore,
		MaxIterations: h.cfg.FixMaxIterations,
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"invalid_body", "Bad Request",
				"Invalid request body: "+err.Error())
		}
	}
	if req.TargetScore <= 0 {
		req.TargetScore = h.cfg.FixTargetScore
	}
	if req.MaxIterations <= 0 {
		req.MaxIterations = h.cfg.FixMaxIterations
	}

	ctx, cancel := h.llmContext(c)
	defer cancel()

	initial := h.scorer.ScoreScript(ctx, p.RawScript)

	updated, history, err := h.scorer.FixAllIssues(ctx, p.RawScript, req.MaxIterations, req.TargetScore)
	if err != nil {
		return problemFromError(c, err)
	}

	p.RawScript = updated
	p.Segments = script.Parse(updated)
	if err := h.projects.Save(p); err != nil {
		return problemFromError(c, err)
	}

	final := h.scorer.ScoreScript(ctx, updated)

	iterations := 0
	for _, e := range history {
		if !e.Final {
			iterations++
		}
	}
	if h.metrics != nil {
		h.metrics.ObserveFixIterations(iterations)
		h.metrics.ObserveScore(final.Total)
	}

	h.logger.Info().
		Str("project_id", p.ID).
		Int("initial_score", initial.Total).
		Int("final_score", final.Total).
		Int("iterations", iterations).
		Int("fixes", quality.UsedFixes(history)).
		Msg("fix loop finished")

	return c.JSON(fiber.Map{
		"success":          true,
		"initial_score":    initial.Total,
		"final_score":      final.Total,
		"iterations":       iterations,
		"history":          history,
		"remaining_issues": len(final.Issues),
	})
}
