// Package generate produces WWHAA+IVQ screencast scripts with a
// language model: a full-context path that writes the complete script
// from a topic brief, an outline path that expands bullet points into
// narration, and a section rewrite for reviewer feedback.
package generate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
	"github.com/p-blackswan/screencast-studio/internal/llm"
)

// RequiredSections are the headers every generated script must carry.
var RequiredSections = []string{"## HOOK", "## OBJECTIVE", "## CONTENT", "## IVQ", "## SUMMARY", "## CTA"}

// Request describes the video to script. Zero values fall back to the
// standard lesson: 5 minutes, tutorial style, Jupyter, intermediate.
type Request struct {
	Topic              string `json:"topic"`
	DurationMinutes    int    `json:"duration_minutes"`
	Style              string `json:"style"`       // tutorial, demo or conceptual
	Environment        string `json:"environment"` // jupyter, vscode or terminal
	Audience           string `json:"audience"`    // beginner, intermediate or advanced
	LearningObjectives string `json:"learning_objectives,omitempty"`
	SampleCode         string `json:"sample_code,omitempty"`
	Notes              string `json:"notes,omitempty"`
	CourseName         string `json:"course_name,omitempty"`
	LessonNumber       int    `json:"lesson_number,omitempty"`
	VideoNumber        int    `json:"video_number,omitempty"`
	FormatType         string `json:"format_type,omitempty"`
}

// Metadata echoes the effective generation parameters after defaults.
type Metadata struct {
	Topic           string `json:"topic"`
	DurationMinutes int    `json:"duration_minutes"`
	Style           string `json:"style"`
	Environment     string `json:"environment"`
	Audience        string `json:"audience"`
}

// Result carries a generated script and the parameters that shaped it.
type Result struct {
	Script   string   `json:"script"`
	Metadata Metadata `json:"metadata"`
}

// Generator wraps a model client for script production.
type Generator struct {
	client llm.Client
	logger zerolog.Logger
}

// NewGenerator returns a Generator. client may be nil; every generation
// call then fails with apperr.ErrLLMUnavailable.
func NewGenerator(client llm.Client, logger zerolog.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logger.With().Str("component", "generate").Logger(),
	}
}

// GenerateScript writes a complete script for the request. When the
// first attempt drops required sections it retries once with the
// missing headers called out; the retry result is returned as-is.
func (g *Generator) GenerateScript(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("topic is required: %w", apperr.ErrInvalidInput)
	}
	if g.client == nil {
		return nil, fmt.Errorf("generating script: %w", apperr.ErrLLMUnavailable)
	}
	req = req.withDefaults()

	prompt := BuildScriptPrompt(req)
	text, err := g.client.Generate(ctx, scriptSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("script generation: %w", err)
	}

	if missing := missingSections(text); len(missing) > 0 {
		g.logger.Warn().Strs("missing", missing).Msg("generated script is missing sections, retrying once")
		retryPrompt := fmt.Sprintf(
			"%s\n\nIMPORTANT: Your previous attempt was missing these sections: %s. You MUST include ALL sections: ## HOOK, ## OBJECTIVE, ## CONTENT, ## IVQ, ## SUMMARY, ## CTA.",
			prompt, strings.Join(missing, ", "))
		text, err = g.client.Generate(ctx, scriptSystemPrompt, retryPrompt)
		if err != nil {
			return nil, fmt.Errorf("script generation retry: %w", err)
		}
	}

	g.logger.Info().
		Str("topic", req.Topic).
		Int("duration_minutes", req.DurationMinutes).
		Int("script_chars", len(text)).
		Msg("script generated")

	return &Result{
		Script: text,
		Metadata: Metadata{
			Topic:           req.Topic,
			DurationMinutes: req.DurationMinutes,
			Style:           req.Style,
			Environment:     req.Environment,
			Audience:        req.Audience,
		},
	}, nil
}

// RegenerateSection rewrites one section of a script from reviewer
// feedback, leaving the rest of the script untouched.
func (g *Generator) RegenerateSection(ctx context.Context, rawScript, sectionName, feedback string) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("regenerating section: %w", apperr.ErrLLMUnavailable)
	}
	start, end, ok := sectionSpan(rawScript, sectionName)
	if !ok {
		return "", fmt.Errorf("section ## %s not found in script: %w", sectionName, apperr.ErrNotFound)
	}

	system := fmt.Sprintf("Rewrite only the %s section of this script based on feedback.\nKeep the same style and structure, but address the feedback.", sectionName)
	user := fmt.Sprintf("Current script:\n%s\n\nFeedback for %s section:\n%s\n\nProvide only the rewritten %s section.", rawScript, sectionName, feedback, sectionName)

	rewritten, err := g.client.Generate(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("section regeneration: %w", err)
	}
	rewritten = strings.TrimSpace(rewritten)
	// Models often echo the header they were asked to rewrite.
	rewritten = strings.TrimSpace(strings.TrimPrefix(rewritten, "## "+sectionName))

	return rawScript[:start] + "## " + sectionName + "\n" + rewritten + "\n\n" + rawScript[end:], nil
}

// BuildScriptPrompt assembles the full-context user prompt: topic,
// audience, environment and style blocks, the per-duration timing guide,
// then the optional metadata, objectives, reference code and notes.
func BuildScriptPrompt(req Request) string {
	req = req.withDefaults()
	timing := durationStructure[req.DurationMinutes]

	var b strings.Builder
	fmt.Fprintf(&b, `Create a %d-minute screencast video script about:

**TOPIC**: %s
%s
%s
%s

**TIMING GUIDE**:
- HOOK: %s
- OBJECTIVE: %s
- CONTENT: %s
- IVQ: %s
- SUMMARY: %s
- CTA: %s

Content guidance: %s
`,
		req.DurationMinutes, req.Topic,
		audienceContext[req.Audience], environmentContext[req.Environment], styleContext[req.Style],
		timing.Hook, timing.Objective, timing.Content, timing.IVQ, timing.Summary, timing.CTA,
		timing.Guidance)

	if req.CourseName != "" || req.LessonNumber != 0 || req.VideoNumber != 0 {
		fmt.Fprintf(&b, `
**VIDEO METADATA** (use these values in the metadata table):
- Course Name: %s
- Lesson Number: %s
- Video Number: %s
- Format: %s
`,
			stringOr(req.CourseName, "[Course Name]"),
			intOr(req.LessonNumber), intOr(req.VideoNumber),
			stringOr(req.FormatType, req.Style))
	}

	if strings.TrimSpace(req.LearningObjectives) != "" {
		fmt.Fprintf(&b, "\n**LEARNING OBJECTIVES** (use these exactly):\n%s\n", req.LearningObjectives)
	} else {
		b.WriteString(`
**LEARNING OBJECTIVES**: Generate 2-3 clear, measurable objectives using Bloom's Taxonomy verbs.
Format: "By the end of this video, you'll be able to:" followed by objectives starting with action verbs.
`)
	}

	b.WriteString(`
**BLOOM'S TAXONOMY VERB REFERENCE** (use appropriate level for objectives):
- Remember: define, list, identify, name, recall
- Understand: describe, explain, summarize, interpret
- Apply: apply, demonstrate, implement, solve
- Analyze: analyze, compare, contrast, distinguish
- Evaluate: assess, evaluate, critique, judge
- Create: create, design, develop, construct
`)

	if strings.TrimSpace(req.SampleCode) != "" {
		fmt.Fprintf(&b, "\n**REFERENCE DATA/CODE** (incorporate this into examples):\n%s\n%s\n%s\n",
			promptFence, req.SampleCode, promptFence)
	}

	if strings.TrimSpace(req.Notes) != "" {
		fmt.Fprintf(&b, "\n**ADDITIONAL REQUIREMENTS**:\n%s\n", req.Notes)
	}

	b.WriteString("\nNow generate the complete script. Start with the metadata table, then ## HOOK. No preamble.")
	return b.String()
}

func (r Request) withDefaults() Request {
	if _, ok := durationStructure[r.DurationMinutes]; !ok {
		r.DurationMinutes = 5
	}
	if _, ok := audienceContext[r.Audience]; !ok {
		r.Audience = "intermediate"
	}
	if _, ok := environmentContext[r.Environment]; !ok {
		r.Environment = "jupyter"
	}
	if _, ok := styleContext[r.Style]; !ok {
		r.Style = "tutorial"
	}
	return r
}

func missingSections(text string) []string {
	var missing []string
	for _, s := range RequiredSections {
		if !strings.Contains(text, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// sectionSpan locates "## name" at a line start and returns the byte
// range of the whole section, ending at the next ## header or the end
// of the script.
func sectionSpan(raw, name string) (start, end int, ok bool) {
	marker := "## " + name + "\n"
	from := 0
	for {
		i := strings.Index(raw[from:], marker)
		if i < 0 {
			return 0, 0, false
		}
		i += from
		if i == 0 || raw[i-1] == '\n' {
			end = len(raw)
			body := i + len(marker)
			if j := strings.Index(raw[body:], "\n## "); j >= 0 {
				end = body + j + 1
			}
			return i, end, true
		}
		from = i + len(marker)
	}
}

var envRecommendations = map[string]string{
	"data_analysis": "jupyter",
	"cli_tool":      "terminal",
	"web_app":       "vscode",
	"ml_training":   "jupyter",
	"data_pipeline": "vscode",
	"api_usage":     "ipython",
	"debugging":     "vscode",
	"refactoring":   "pycharm",
}

// RecommendEnvironment suggests a recording environment for a demo
// type. Unknown types get the Jupyter default.
func RecommendEnvironment(demoType string) string {
	if env, ok := envRecommendations[strings.ToLower(strings.TrimSpace(demoType))]; ok {
		return env
	}
	return "jupyter"
}

func stringOr(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func intOr(n int) string {
	if n == 0 {
		return "[N]"
	}
	return strconv.Itoa(n)
}
