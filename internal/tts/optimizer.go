// Package tts rewrites narration scripts for text-to-speech engines.
// A rule table expands acronyms, complexity notation and code idioms
// into speakable forms; an optional model pass smooths the result.
package tts

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/screencast-studio/internal/llm"
)

var (
	bracketCueRe = regexp.MustCompile(`\[[^\]]+\]`)
	percentRe    = regexp.MustCompile(`(\d+)%`)
	versionRe    = regexp.MustCompile(`\bv(\d+)\.(\d+)\b`)
	multiBlankRe = regexp.MustCompile(`\n{3,}`)
	wordPairRe   = regexp.MustCompile(`([\p{L}\p{N}_]+)\s+and\s+([\p{L}\p{N}_]+)`)
)

// step is one compiled table entry. Uppercase keys carry a word-boundary
// regexp so "AI" does not fire inside "maintain"; other keys replace
// literally.
type step struct {
	re   *regexp.Regexp
	from string
	to   string
}

// Optimizer converts narration text into a form speech engines read
// naturally.
type Optimizer struct {
	replacements []Replacement
	steps        []step
	client       llm.Client
	logger       zerolog.Logger
}

// NewOptimizer builds an optimizer over the default table plus any custom
// entries. client may be nil, in which case Polish returns the rule-based
// text without a model pass.
func NewOptimizer(client llm.Client, logger zerolog.Logger, custom ...Replacement) *Optimizer {
	table := DefaultReplacements
	if len(custom) > 0 {
		table = mergeTables(DefaultReplacements, custom)
	}
	return &Optimizer{
		replacements: table,
		steps:        compileSteps(table),
		client:       client,
		logger:       logger.With().Str("component", "tts").Logger(),
	}
}

// Optimize runs the rule pipeline: visual cues out, pronunciation table,
// spoken numbers, whitespace cleanup. Pause markers survive so the engine
// conversions can translate them.
func (o *Optimizer) Optimize(text string) string {
	text = removeVisualCues(text)
	text = o.applyReplacements(text)
	text = speakNumbers(text)
	return normalizeWhitespace(text)
}

// Polish runs Optimize and then asks the model for a final smoothing
// pass. Any model failure falls back to the rule-based result, so Polish
// never returns worse text than Optimize.
func (o *Optimizer) Polish(ctx context.Context, text string) string {
	ruled := o.Optimize(text)
	if o.client == nil {
		return ruled
	}
	polished, err := o.client.Generate(ctx, polishSystemPrompt, ruled)
	if err != nil {
		o.logger.Warn().Err(err).Msg("tts polish failed, keeping rule-based text")
		return ruled
	}
	if polished = stripFence(polished); polished == "" {
		return ruled
	}
	return polished
}

// Changes reports which table entries fired: the source form appears in
// the original text and its spoken form in the optimized text.
func (o *Optimizer) Changes(original, optimized string) []Replacement {
	var changes []Replacement
	for _, r := range o.replacements {
		if strings.Contains(original, r.From) && strings.Contains(optimized, r.To) {
			changes = append(changes, r)
		}
	}
	return changes
}

// SSML wraps optimized text for SSML-capable engines, converting pause
// markers into timed breaks.
func SSML(text string) string {
	text = strings.ReplaceAll(text, "[PAUSE]", `<break time="500ms"/>`)
	return "<speak>" + text + "</speak>"
}

// ElevenLabs rewrites optimized text for engines without SSML support:
// pauses become ellipses and "X and Y" pairs gain a clarifying comma so
// list items read as items instead of running together.
func ElevenLabs(text string) string {
	text = strings.ReplaceAll(text, "[PAUSE]", "...")
	return wordPairRe.ReplaceAllString(text, "$1, and $2")
}

// removeVisualCues strips bracketed recording directions. Pause markers
// are speech timing, not stage direction, and stay.
func removeVisualCues(text string) string {
	return bracketCueRe.ReplaceAllStringFunc(text, func(m string) string {
		if strings.HasPrefix(m, "[PAUSE") {
			return m
		}
		return ""
	})
}

func (o *Optimizer) applyReplacements(text string) string {
	for _, s := range o.steps {
		if s.re != nil {
			text = s.re.ReplaceAllLiteralString(text, s.to)
		} else {
			text = strings.ReplaceAll(text, s.from, s.to)
		}
	}
	return text
}

func speakNumbers(text string) string {
	text = percentRe.ReplaceAllString(text, "$1 percent")
	return versionRe.ReplaceAllString(text, "version $1 point $2")
}

func normalizeWhitespace(text string) string {
	text = multiBlankRe.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func compileSteps(table []Replacement) []step {
	steps := make([]step, 0, len(table))
	for _, r := range table {
		s := step{from: r.From, to: r.To}
		if isUpperKey(r.From) {
			s.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(r.From) + `\b`)
		}
		steps = append(steps, s)
	}
	return steps
}

// isUpperKey reports whether a key is written entirely in uppercase: at
// least one uppercase letter and no lowercase ones. Uncased runes like
// "/" do not count against it, so "I/O" is an uppercase key.
func isUpperKey(s string) bool {
	hasUpper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

// stripFence removes a wrapping markdown code fence from a model reply.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) >= 2 {
			s = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	return strings.TrimSpace(s)
}
