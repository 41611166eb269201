// Package recording turns a parsed script into a performable recording
// session: an ordered cue list, timeline tracks, teleprompter settings
// and rehearsal results.
package recording

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
)

// Mode selects how the recording UI presents the session.
type Mode string

const (
	ModeTeleprompter Mode = "teleprompter"
	ModeCueSystem    Mode = "cue_system"
	ModeRehearsal    Mode = "rehearsal"
	ModeTimeline     Mode = "timeline"
)

// ParseMode validates a recording mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTeleprompter, ModeCueSystem, ModeRehearsal, ModeTimeline:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown recording mode %q", apperr.ErrInvalidInput, s)
}

// UnmarshalJSON accepts unknown modes as teleprompter so persisted
// sessions keep loading after the enum evolves.
func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if parsed, err := ParseMode(s); err == nil {
		*m = parsed
	} else {
		*m = ModeTeleprompter
	}
	return nil
}

// CueType classifies what the presenter does when a cue fires.
type CueType string

const (
	CueNarration  CueType = "narration"
	CueCodeAction CueType = "code_action"
	CueVisual     CueType = "visual_cue"
	CuePause      CueType = "pause"
	CueTransition CueType = "transition"
)

// UnmarshalJSON accepts unknown cue types as narration.
func (t *CueType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch CueType(s) {
	case CueNarration, CueCodeAction, CueVisual, CuePause, CueTransition:
		*t = CueType(s)
	default:
		*t = CueNarration
	}
	return nil
}

// Cue is a single step in the recording session.
type Cue struct {
	ID               string  `json:"id"`
	Type             CueType `json:"cue_type"`
	Section          string  `json:"section"`
	Text             string  `json:"text"`
	DurationEstimate float64 `json:"duration_estimate"`
	Order            int     `json:"order"`
	Notes            string  `json:"notes"`
}

// TeleprompterSettings controls the teleprompter display.
type TeleprompterSettings struct {
	FontSize         int     `json:"font_size"`
	ScrollSpeed      float64 `json:"scroll_speed"`
	LineHeight       float64 `json:"line_height"`
	Mirror           bool    `json:"mirror"`
	HighlightCurrent bool    `json:"highlight_current"`
	CountdownSeconds int     `json:"countdown_seconds"`
	AutoScroll       bool    `json:"auto_scroll"`
}

// DefaultTeleprompterSettings returns the settings every new session
// starts with.
func DefaultTeleprompterSettings() TeleprompterSettings {
	return TeleprompterSettings{
		FontSize:         32,
		ScrollSpeed:      1.0,
		LineHeight:       1.8,
		Mirror:           false,
		HighlightCurrent: true,
		CountdownSeconds: 3,
		AutoScroll:       true,
	}
}

// SectionTiming is one per-section measurement from a rehearsal run.
type SectionTiming struct {
	Section string  `json:"section"`
	Seconds float64 `json:"seconds"`
}

// RehearsalResult captures one timed run-through of the session.
type RehearsalResult struct {
	ID             string          `json:"id"`
	ActualDuration float64         `json:"actual_duration"`
	TargetDuration float64         `json:"target_duration"`
	SectionTimings []SectionTiming `json:"section_timings"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewRehearsalResult records a finished rehearsal against the session's
// duration estimate.
func NewRehearsalResult(actual, target float64, timings []SectionTiming, notes string) RehearsalResult {
	return RehearsalResult{
		ID:             uuid.NewString()[:8],
		ActualDuration: actual,
		TargetDuration: target,
		SectionTimings: timings,
		Notes:          notes,
		CreatedAt:      time.Now().UTC(),
	}
}

// PaceRatio is actual over target duration, or 0 when there is no target.
func (r RehearsalResult) PaceRatio() float64 {
	if r.TargetDuration == 0 {
		return 0
	}
	return r.ActualDuration / r.TargetDuration
}

// PaceFeedback grades the rehearsal pace. Within 15 percent of the
// target counts as good.
func (r RehearsalResult) PaceFeedback() string {
	ratio := r.PaceRatio()
	switch {
	case ratio == 0:
		return "no data"
	case ratio < 0.85:
		return "too fast"
	case ratio > 1.15:
		return "too slow"
	}
	return "good pace"
}

// MarshalJSON includes the derived pace fields alongside the raw ones.
func (r RehearsalResult) MarshalJSON() ([]byte, error) {
	type plain RehearsalResult
	return json.Marshal(struct {
		plain
		PaceRatio    float64 `json:"pace_ratio"`
		PaceFeedback string  `json:"pace_feedback"`
	}{
		plain:        plain(r),
		PaceRatio:    math.Round(r.PaceRatio()*100) / 100,
		PaceFeedback: r.PaceFeedback(),
	})
}

// TrackEvent positions one cue on a timeline track.
type TrackEvent struct {
	CueID     string  `json:"cue_id"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Section   string  `json:"section"`
}

// Track groups cues of one kind for the timeline view.
type Track struct {
	Name      string       `json:"name"`
	TrackType string       `json:"track_type"` // narration, code, visual
	Events    []TrackEvent `json:"events"`
}

// Session is a complete recording session for one project.
type Session struct {
	ID                    string               `json:"id"`
	ProjectID             string               `json:"project_id"`
	Mode                  Mode                 `json:"mode"`
	Cues                  []Cue                `json:"cues"`
	TeleprompterSettings  TeleprompterSettings `json:"teleprompter_settings"`
	TimelineTracks        []Track              `json:"timeline_tracks"`
	Rehearsals            []RehearsalResult    `json:"rehearsals"`
	TotalDurationEstimate float64              `json:"total_duration_estimate"`
	CreatedAt             time.Time            `json:"created_at"`
}
