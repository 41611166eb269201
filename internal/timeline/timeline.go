// Package timeline turns a segment's code cells or slide bullets into a
// timed event sequence for synchronized playback against recorded audio.
package timeline

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Environment selects the event vocabulary for a segment's playback.
type Environment string

const (
	EnvNotebook Environment = "notebook"
	EnvTerminal Environment = "terminal"
	EnvSlide    Environment = "slide"
)

// ParseEnvironment maps a raw environment name to a known one. Unknown
// values fall back to slide, the only environment with no code surface.
func ParseEnvironment(s string) Environment {
	switch Environment(s) {
	case EnvNotebook, EnvTerminal, EnvSlide:
		return Environment(s)
	}
	return EnvSlide
}

// Event actions understood by playback front ends.
const (
	ActionAudioStart  = "audio_start"
	ActionAudioEnd    = "audio_end"
	ActionSegmentEnd  = "segment_end"
	ActionFocusCell   = "focusCell"
	ActionStartTyping = "startTyping"
	ActionExecuteCell = "executeCell"
	ActionShowOutput  = "showOutput"
	ActionShowPrompt  = "showPrompt"
	ActionShowBullet  = "showBullet"
)

// Cell is one code cell or terminal command to animate.
type Cell struct {
	ID     string `json:"id,omitempty"`
	Code   string `json:"code"`
	Output string `json:"output,omitempty"`
}

// Input describes the segment content a timeline is generated from.
type Input struct {
	SegmentID   string
	Environment Environment
	Cells       []Cell
	Bullets     []string
}

// Event is a single timed playback action.
type Event struct {
	Time   float64        `json:"time"`
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Timeline is the ordered event sequence for one segment.
type Timeline struct {
	SegmentID     string  `json:"segment_id"`
	Events        []Event `json:"events"`
	TotalDuration float64 `json:"total_duration"`
}

// Generator produces playback timelines. TypingSpeed is the simulated
// typing rate in characters per second.
type Generator struct {
	TypingSpeed float64
}

// NewGenerator returns a Generator at the default 25 cps typing rate.
func NewGenerator() *Generator {
	return &Generator{TypingSpeed: 25}
}

// Generate lays the segment's content across the audio duration. Every
// timeline opens with audio_start at zero and closes with audio_end and
// segment_end at the full duration; events between depend on the
// environment. Events are sorted by time, ties keeping emission order.
func (g *Generator) Generate(in Input, audioDuration float64) Timeline {
	events := []Event{{Time: 0, Action: ActionAudioStart}}

	switch in.Environment {
	case EnvNotebook:
		events = append(events, g.notebookEvents(in.Cells, audioDuration)...)
	case EnvTerminal:
		events = append(events, g.terminalEvents(in.Cells, audioDuration)...)
	default:
		events = append(events, slideEvents(in.Bullets, audioDuration)...)
	}

	events = append(events,
		Event{Time: audioDuration, Action: ActionAudioEnd},
		Event{Time: audioDuration, Action: ActionSegmentEnd},
	)

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})

	return Timeline{
		SegmentID:     in.SegmentID,
		Events:        events,
		TotalDuration: audioDuration,
	}
}

// GenerateAll pairs segments with their audio durations. Extra entries on
// either side are ignored.
func (g *Generator) GenerateAll(inputs []Input, audioDurations []float64) []Timeline {
	n := len(inputs)
	if len(audioDurations) < n {
		n = len(audioDurations)
	}
	timelines := make([]Timeline, 0, n)
	for i := 0; i < n; i++ {
		timelines = append(timelines, g.Generate(inputs[i], audioDurations[i]))
	}
	return timelines
}

// notebookEvents distributes cells across the middle 85% of the duration,
// reserving the first 10% and last 5% for intro and outro narration. Each
// cell gets focus, a typing animation capped at 80% of its slot, then an
// execute and output reveal if they still fit inside the slot.
func (g *Generator) notebookEvents(cells []Cell, duration float64) []Event {
	if len(cells) == 0 {
		return nil
	}

	codeStart := duration * 0.10
	codeEnd := duration * 0.95
	perCell := (codeEnd - codeStart) / float64(len(cells))

	var events []Event
	for i, cell := range cells {
		cellStart := codeStart + float64(i)*perCell

		typing := float64(utf8.RuneCountInString(cell.Code)) / g.TypingSpeed
		if max := perCell * 0.8; typing > max {
			typing = max
		}

		cellID := cell.ID
		if cellID == "" {
			cellID = fmt.Sprintf("cell_%d", i)
		}

		events = append(events, Event{
			Time:   cellStart,
			Action: ActionFocusCell,
			Params: map[string]any{"cellIndex": i, "cellId": cellID},
		})

		typeStart := cellStart + 0.3
		events = append(events, Event{
			Time:   typeStart,
			Action: ActionStartTyping,
			Params: map[string]any{"cellIndex": i, "code": cell.Code, "duration": typing},
		})

		execTime := typeStart + typing + 0.5
		if execTime < cellStart+perCell {
			events = append(events, Event{
				Time:   execTime,
				Action: ActionExecuteCell,
				Params: map[string]any{"cellIndex": i},
			})
			if cell.Output != "" {
				events = append(events, Event{
					Time:   execTime + 0.3,
					Action: ActionShowOutput,
					Params: map[string]any{"cellIndex": i, "output": cell.Output},
				})
			}
		}
	}
	return events
}

// terminalEvents is the notebook layout with a 10%/90% buffer split, a
// tighter 60% typing cap, and no explicit execute step: the output reveal
// follows the typing directly.
func (g *Generator) terminalEvents(cells []Cell, duration float64) []Event {
	if len(cells) == 0 {
		return nil
	}

	codeStart := duration * 0.10
	codeEnd := duration * 0.90
	perCmd := (codeEnd - codeStart) / float64(len(cells))

	var events []Event
	for i, cell := range cells {
		cmdStart := codeStart + float64(i)*perCmd

		typing := float64(utf8.RuneCountInString(cell.Code)) / g.TypingSpeed
		if max := perCmd * 0.6; typing > max {
			typing = max
		}

		events = append(events, Event{
			Time:   cmdStart,
			Action: ActionShowPrompt,
			Params: map[string]any{"commandIndex": i},
		})
		events = append(events, Event{
			Time:   cmdStart + 0.2,
			Action: ActionStartTyping,
			Params: map[string]any{"commandIndex": i, "code": cell.Code, "duration": typing},
		})
		if cell.Output != "" {
			events = append(events, Event{
				Time:   cmdStart + 0.2 + typing + 0.3,
				Action: ActionShowOutput,
				Params: map[string]any{"commandIndex": i, "output": cell.Output},
			})
		}
	}
	return events
}

// slideEvents staggers bullets evenly across the duration with no buffer
// reservation.
func slideEvents(bullets []string, duration float64) []Event {
	if len(bullets) == 0 {
		return nil
	}

	delay := duration / float64(len(bullets)+1)

	events := make([]Event, 0, len(bullets))
	for i, bullet := range bullets {
		events = append(events, Event{
			Time:   delay * float64(i+1),
			Action: ActionShowBullet,
			Params: map[string]any{"index": i, "text": bullet},
		})
	}
	return events
}
