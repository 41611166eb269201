package generate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
	"github.com/p-blackswan/screencast-studio/internal/script"
)

// BulletRequest describes the outline path input: bullet points to
// expand into a narration-only script, no code cells and no IVQ.
type BulletRequest struct {
	Bullets         string `json:"bullets"`
	Topic           string `json:"topic,omitempty"`
	AudienceLevel   string `json:"audience_level,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// GeneratedScript is the outline path result, parsed into sections with
// their share of the target duration.
type GeneratedScript struct {
	RawText                  string          `json:"raw_text"`
	Sections                 []ScriptSection `json:"sections"`
	TotalWords               int             `json:"total_words"`
	EstimatedDurationMinutes float64         `json:"estimated_duration_minutes"`
}

// ScriptSection is one parsed section of a generated narration.
type ScriptSection struct {
	Name            string `json:"name"`
	Content         string `json:"content"`
	DurationSeconds int    `json:"duration_seconds"`
	WordCount       int    `json:"word_count"`
}

// sectionShare allocates the target duration across narration sections.
// Sections without an entry get a fifth of the total.
var sectionShare = map[string]float64{
	"hook":      0.10,
	"objective": 0.10,
	"content":   0.60,
	"summary":   0.10,
	"cta":       0.10,
}

var outlineHeaderRe = regexp.MustCompile(`(?m)^## (HOOK|OBJECTIVE|CONTENT|SUMMARY|CALL TO ACTION)\s*$`)

// WordBudget is the word target for a narration of the given length at
// the standard pace.
func WordBudget(durationMinutes int) int {
	return durationMinutes * script.WordsPerMinute
}

// GenerateFromBullets expands bullet points into a WWHAA narration
// script and parses it into timed sections. A topic, when given, is
// prepended as context together with the audience level.
func (g *Generator) GenerateFromBullets(ctx context.Context, req BulletRequest) (*GeneratedScript, error) {
	if strings.TrimSpace(req.Bullets) == "" {
		return nil, fmt.Errorf("bullet points are required: %w", apperr.ErrInvalidInput)
	}
	if g.client == nil {
		return nil, fmt.Errorf("generating script: %w", apperr.ErrLLMUnavailable)
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 7
	}

	bullets := req.Bullets
	if req.Topic != "" {
		level := stringOr(req.AudienceLevel, "intermediate")
		bullets = fmt.Sprintf("Topic: %s\nAudience Level: %s\n\nKey Points:\n%s", req.Topic, level, bullets)
	}

	prompt := fmt.Sprintf(outlineUserPrompt, req.DurationMinutes, WordBudget(req.DurationMinutes), bullets)
	raw, err := g.client.Generate(ctx, outlineSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("script generation: %w", err)
	}

	sections := parseOutlineSections(raw, req.DurationMinutes)
	total := 0
	for _, s := range sections {
		total += s.WordCount
	}

	g.logger.Info().
		Int("duration_minutes", req.DurationMinutes).
		Int("sections", len(sections)).
		Int("total_words", total).
		Msg("outline script generated")

	return &GeneratedScript{
		RawText:                  raw,
		Sections:                 sections,
		TotalWords:               total,
		EstimatedDurationMinutes: float64(total) / script.WordsPerMinute,
	}, nil
}

// parseOutlineSections splits a narration on its canonical headers.
// Each section's time allocation comes from its share of the target
// duration, not from its actual word count.
func parseOutlineSections(text string, durationMinutes int) []ScriptSection {
	matches := outlineHeaderRe.FindAllStringSubmatchIndex(text, -1)
	sections := make([]ScriptSection, 0, len(matches))
	for i, m := range matches {
		name := text[m[2]:m[3]]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(text[m[1]:end])
		sections = append(sections, ScriptSection{
			Name:            name,
			Content:         content,
			DurationSeconds: int(float64(durationMinutes*60) * shareFor(name)),
			WordCount:       len(strings.Fields(content)),
		})
	}
	return sections
}

func shareFor(name string) float64 {
	key := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	if key == "call_to_action" {
		key = "cta"
	}
	if share, ok := sectionShare[key]; ok {
		return share
	}
	return 0.2
}
