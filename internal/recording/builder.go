package recording

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-blackswan/screencast-studio/internal/script"
)

// Markers the cue builder extracts from prose chunks. Pause wins over
// visual when both appear in one chunk: the presenter pauses, the
// remaining text (markers included) stays narration.
var (
	visualCueRe = regexp.MustCompile(`(?i)\[SCREEN:\s*([^\]]+)\]`)
	pauseRe     = regexp.MustCompile(`(?i)\*?\*?\[PAUSE\]\*?\*?`)
	runCellRe   = regexp.MustCompile(`(?i)\*?\*?\[RUN CELL\]\*?\*?`)

	boldSpanRe   = regexp.MustCompile(`\*\*.*?\*\*`)
	headMarkRe   = regexp.MustCompile(`#+ `)
	bracketSpanRe = regexp.MustCompile(`\[.*?\]`)
)

// GenerateSession builds a complete recording session from a raw script.
// The cue list is dense: orders run 0..n-1 and the total estimate is the
// sum of all cue durations.
func GenerateSession(projectID, rawScript string, mode Mode) *Session {
	cues := buildCues(script.Tokenize(rawScript))

	total := 0.0
	for _, c := range cues {
		total += c.DurationEstimate
	}

	return &Session{
		ID:                    uuid.NewString()[:8],
		ProjectID:             projectID,
		Mode:                  mode,
		Cues:                  cues,
		TeleprompterSettings:  DefaultTeleprompterSettings(),
		TimelineTracks:        buildTracks(cues),
		TotalDurationEstimate: round1(total),
		CreatedAt:             time.Now().UTC(),
	}
}

// buildCues reduces the token stream to recording cues. Paragraphs are
// runs of prose tokens between blank lines; code fences and section
// headers close the current paragraph. Cell breaks and metadata tables
// are not performed and emit nothing.
func buildCues(tokens []script.Token) []Cue {
	var cues []Cue
	section := ""
	var para []string

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(para, "\n"))
		para = para[:0]
		if chunk == "" {
			return
		}
		cues = append(cues, chunkCues(chunk, section)...)
	}

	for _, tok := range tokens {
		switch tok.Kind {
		case script.KindSection:
			flushPara()
			section = string(tok.Section)
		case script.KindBlank:
			flushPara()
		case script.KindCode:
			flushPara()
			code := strings.TrimSpace(tok.Text)
			cues = append(cues, Cue{
				ID:               newCueID(),
				Type:             CueCodeAction,
				Section:          section,
				Text:             code,
				DurationEstimate: estimateCodeDuration(code),
				Notes:            "Execute code in demo environment",
			})
		case script.KindCellBreak, script.KindTableRow:
			// skipped
		default:
			para = append(para, tok.Raw)
		}
	}
	flushPara()

	for i := range cues {
		cues[i].Order = i
	}
	return cues
}

// chunkCues emits the cue sequence for one prose chunk.
func chunkCues(chunk, section string) []Cue {
	var cues []Cue

	switch {
	case pauseRe.MatchString(chunk):
		if remaining := strings.TrimSpace(pauseRe.ReplaceAllString(chunk, "")); remaining != "" {
			cues = append(cues, narrationCue(remaining, section))
		}
		cues = append(cues, Cue{
			ID:               newCueID(),
			Type:             CuePause,
			Section:          section,
			Text:             "[PAUSE]",
			DurationEstimate: 2.0,
			Notes:            "Let the audience absorb the information",
		})

	case visualCueRe.MatchString(chunk):
		for _, m := range visualCueRe.FindAllStringSubmatch(chunk, -1) {
			cues = append(cues, Cue{
				ID:               newCueID(),
				Type:             CueVisual,
				Section:          section,
				Text:             strings.TrimSpace(m[1]),
				DurationEstimate: 1.0,
				Notes:            "Switch visual/screen display",
			})
		}
		if narration := strings.TrimSpace(visualCueRe.ReplaceAllString(chunk, "")); narration != "" {
			cues = append(cues, narrationCue(narration, section))
		}

	case runCellRe.MatchString(chunk):
		if remaining := strings.TrimSpace(runCellRe.ReplaceAllString(chunk, "")); remaining != "" {
			cues = append(cues, narrationCue(remaining, section))
		}
		cues = append(cues, Cue{
			ID:               newCueID(),
			Type:             CueCodeAction,
			Section:          section,
			Text:             "[RUN CELL]",
			DurationEstimate: 2.0,
			Notes:            "Execute the current cell",
		})

	default:
		cues = append(cues, narrationCue(chunk, section))
	}
	return cues
}

func narrationCue(text, section string) Cue {
	return Cue{
		ID:               newCueID(),
		Type:             CueNarration,
		Section:          section,
		Text:             text,
		DurationEstimate: estimateNarrationDuration(text),
	}
}

// estimateNarrationDuration counts words after stripping markdown
// formatting and bracket markers. Every narration cue is at least one
// second long.
func estimateNarrationDuration(text string) float64 {
	clean := boldSpanRe.ReplaceAllString(text, "")
	clean = headMarkRe.ReplaceAllString(clean, "")
	clean = bracketSpanRe.ReplaceAllString(clean, "")
	words := len(strings.Fields(clean))
	return round1(math.Max(1.0, float64(words)/script.WordsPerMinute*60))
}

// estimateCodeDuration allows roughly three seconds per non-blank line
// for typing and execution, with a two second floor.
func estimateCodeDuration(code string) float64 {
	lines := 0
	for _, l := range strings.Split(code, "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}
	return round1(math.Max(2.0, float64(lines)*3.0))
}

// buildTracks lays the cues onto parallel timeline tracks. Pauses and
// transitions advance the clock but get no track of their own.
func buildTracks(cues []Cue) []Track {
	var narration, code, visual []TrackEvent
	current := 0.0

	for _, cue := range cues {
		event := TrackEvent{
			CueID:     cue.ID,
			StartTime: round1(current),
			Duration:  cue.DurationEstimate,
			EndTime:   round1(current + cue.DurationEstimate),
			Text:      truncate(cue.Text, 80),
			Section:   cue.Section,
		}

		switch cue.Type {
		case CueNarration:
			narration = append(narration, event)
		case CueCodeAction:
			code = append(code, event)
		case CueVisual:
			visual = append(visual, event)
		case CuePause, CueTransition:
		}

		current += cue.DurationEstimate
	}

	var tracks []Track
	if len(narration) > 0 {
		tracks = append(tracks, Track{Name: "Narration", TrackType: "narration", Events: narration})
	}
	if len(code) > 0 {
		tracks = append(tracks, Track{Name: "Code", TrackType: "code", Events: code})
	}
	if len(visual) > 0 {
		tracks = append(tracks, Track{Name: "Visuals", TrackType: "visual", Events: visual})
	}
	return tracks
}

func newCueID() string {
	return uuid.NewString()[:8]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
