package script

import (
	"math"
	"regexp"
	"strings"
)

// Bold lines that are recording markers rather than segment titles.
var boldMarkers = map[string]bool{
	"NARRATION:": true,
	"OUTPUT:":    true,
	"[RUN CELL]": true,
	"[TYPE]":     true,
	"[SHOW]":     true,
	"[PAUSE]":    true,
}

var feedbackLabelRe = regexp.MustCompile(`^Feedback ([A-D])$`)

// Parse converts a WWHAA-format markdown script into an ordered list of
// segments. A new segment starts at every section header, sub-header and
// bold title line; narration, visual cues, code and IVQ fields accumulate
// into the current one. Content before the first segment boundary is
// dropped, as are cell-break separators and metadata tables.
func Parse(text string) []Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	segments := make([]Segment, 0, 8)
	var current *Segment
	currentSection := ""
	order := 0

	flush := func() {
		if current != nil {
			segments = append(segments, *current)
			current = nil
		}
	}
	start := func(typ SegmentType, section, title string) {
		flush()
		seg := NewSegment(typ, section, title)
		seg.Order = order
		order++
		current = &seg
	}
	narrate := func(s string) {
		if current == nil || s == "" {
			return
		}
		if current.Narration != "" {
			current.Narration += "\n"
		}
		current.Narration += s
	}

	for _, tok := range Tokenize(text) {
		switch tok.Kind {
		case KindBlank, KindCellBreak, KindTableRow:
			// separators and metadata tables carry no script content

		case KindSection:
			currentSection = string(tok.Section)
			if tok.Section == SectionIVQ {
				start(TypeIVQ, currentSection, "In-Video Question")
			} else {
				start(TypeSlide, currentSection, titleCase(currentSection))
			}

		case KindHeading:
			start(TypeSlide, currentSection, tok.Text)

		case KindCode:
			if current != nil {
				if current.Code != "" {
					current.Code += "\n\n" + tok.Text
				} else {
					current.Code = tok.Text
				}
				if current.Type != TypeIVQ {
					current.Type = TypeScreencast
				}
			}

		case KindBoldLine:
			title := tok.Text
			if boldMarkers[strings.ToUpper(title)] {
				continue
			}
			if rest, ok := strings.CutPrefix(title, "Question:"); ok {
				if current != nil && current.Type == TypeIVQ {
					current.Question = strings.TrimSpace(rest)
				}
				continue
			}
			start(TypeSlide, currentSection, title)

		case KindBoldLabel:
			switch {
			case tok.Label == "NARRATION" || tok.Label == "OUTPUT":
				narrate(tok.Rest)
			case tok.Label == "Question" && current != nil && current.Type == TypeIVQ:
				current.Question = tok.Rest
			case tok.Label == "Correct Answer" && isAnswerLetter(tok.Rest) &&
				current != nil && current.Type == TypeIVQ:
				current.CorrectAnswer = tok.Rest[:1]
			case feedbackLabelRe.MatchString(tok.Label) && current != nil && current.Type == TypeIVQ:
				letter := feedbackLabelRe.FindStringSubmatch(tok.Label)[1]
				if current.Feedback == nil {
					current.Feedback = make(map[string]string)
				}
				current.Feedback[letter] = tok.Rest
			default:
				narrate(tok.Raw)
			}

		case KindBracket:
			if current != nil {
				if current.VisualCue != "" {
					current.VisualCue += " | "
				}
				current.VisualCue += tok.Text
			}

		case KindOption:
			if current != nil && current.Type == TypeIVQ {
				current.Options = append(current.Options, Option{Letter: tok.Letter, Text: tok.Text})
			} else {
				narrate(tok.Raw)
			}

		case KindText:
			narrate(tok.Text)
		}
	}
	flush()

	for i := range segments {
		if segments[i].Narration != "" {
			words := WordCount(segments[i].Narration)
			segments[i].DurationEstimate = EstimateDuration(words)
		}
	}
	return segments
}

// EstimateDuration converts a word count into seconds of narration at the
// standard pace, rounded to one decimal.
func EstimateDuration(words int) float64 {
	return round1(float64(words) / WordsPerMinute * 60)
}

func isAnswerLetter(s string) bool {
	return len(s) > 0 && s[0] >= 'A' && s[0] <= 'D'
}

// titleCase renders a section name for display ("HOOK" → "Hook").
func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
