package tts

import (
	"math"
	"regexp"
	"strings"

	"github.com/p-blackswan/screencast-studio/internal/script"
)

// NarrationSegment is the spoken text of one script section with its
// word count and estimated read time at the standard narration pace.
type NarrationSegment struct {
	Section         string  `json:"section"`
	Text            string  `json:"text"`
	WordCount       int     `json:"word_count"`
	DurationSeconds float64 `json:"duration_seconds"`
}

var bracketSpanRe = regexp.MustCompile(`\[[^\]]*\]`)

// ExtractNarration pulls the presenter's spoken lines out of a script,
// one segment per section. Prose and narration labels are spoken; code,
// tables, headings, answer options and on-screen labels (outputs,
// questions, feedback) are not. Pause markers survive as [PAUSE] so the
// engine conversions can translate them. Text before the first section
// header is title and metadata, never narration.
func ExtractNarration(rawScript string) []NarrationSegment {
	var segments []NarrationSegment
	section := ""
	var paras []string
	var para []string

	flush := func() {
		if len(para) > 0 {
			paras = append(paras, strings.Join(para, " "))
			para = nil
		}
	}
	finish := func() {
		flush()
		if section == "" {
			paras = nil
			return
		}
		text := strings.TrimSpace(strings.Join(paras, "\n\n"))
		paras = nil
		if text == "" {
			return
		}
		words := countSpokenWords(text)
		segments = append(segments, NarrationSegment{
			Section:         section,
			Text:            text,
			WordCount:       words,
			DurationSeconds: spokenSeconds(words),
		})
	}

	for _, tok := range script.Tokenize(rawScript) {
		switch tok.Kind {
		case script.KindSection:
			finish()
			section = string(tok.Section)
		case script.KindBlank:
			flush()
		case script.KindText:
			para = append(para, tok.Raw)
		case script.KindBoldLabel:
			if strings.EqualFold(tok.Label, "NARRATION") {
				para = append(para, tok.Rest)
			}
		case script.KindBoldLine:
			marker := strings.TrimSpace(tok.Text)
			switch {
			case strings.EqualFold(marker, "[PAUSE]"):
				para = append(para, "[PAUSE]")
			case strings.HasPrefix(marker, "["):
				// recording action, not speech
			default:
				para = append(para, marker)
			}
		case script.KindBracket:
			if strings.EqualFold(tok.Text, "PAUSE") {
				para = append(para, "[PAUSE]")
			}
		default:
			// headings, code, tables, options, cell breaks
			flush()
		}
	}
	finish()
	return segments
}

// NarrationText joins the spoken segments into a single block ready for
// the optimizer. Returns "" when the script has no narration.
func NarrationText(rawScript string) string {
	segments := ExtractNarration(rawScript)
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n\n")
}

// TotalDuration sums segment read times in seconds.
func TotalDuration(segments []NarrationSegment) float64 {
	total := 0.0
	for _, s := range segments {
		total += s.DurationSeconds
	}
	return total
}

// countSpokenWords ignores bracket markers and bold formatting, which
// are read by nobody.
func countSpokenWords(text string) int {
	clean := bracketSpanRe.ReplaceAllString(text, "")
	clean = strings.ReplaceAll(clean, "**", "")
	return len(strings.Fields(clean))
}

func spokenSeconds(words int) float64 {
	return math.Round(float64(words) / script.WordsPerMinute * 60)
}
