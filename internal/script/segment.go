// Package script parses WWHAA-format markdown scripts into recordable
// segments. The grammar lives in one tokenizer; the segment parser here,
// the cue builder in internal/recording and the scorer in internal/quality
// all consume the same token stream.
package script

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WordsPerMinute is the narration pace all duration estimates assume.
const WordsPerMinute = 150

// SegmentType classifies how a segment is presented on screen.
type SegmentType string

const (
	TypeSlide      SegmentType = "slide"
	TypeScreencast SegmentType = "screencast"
	TypeIVQ        SegmentType = "ivq"
)

// UnmarshalJSON accepts unknown type values as slide so project files
// written by newer schema versions still load.
func (t *SegmentType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch SegmentType(s) {
	case TypeSlide, TypeScreencast, TypeIVQ:
		*t = SegmentType(s)
	default:
		*t = TypeSlide
	}
	return nil
}

// SegmentStatus tracks a segment through the recording workflow.
type SegmentStatus string

const (
	StatusDraft    SegmentStatus = "draft"
	StatusRecorded SegmentStatus = "recorded"
	StatusApproved SegmentStatus = "approved"
)

// UnmarshalJSON accepts unknown status values as draft.
func (s *SegmentStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch SegmentStatus(v) {
	case StatusDraft, StatusRecorded, StatusApproved:
		*s = SegmentStatus(v)
	default:
		*s = StatusDraft
	}
	return nil
}

// ValidStatus reports whether v names a known workflow state. Unlike the
// unmarshal fallback, API writes reject unknown values outright.
func ValidStatus(v string) bool {
	switch SegmentStatus(v) {
	case StatusDraft, StatusRecorded, StatusApproved:
		return true
	}
	return false
}

// Option is one answer choice of an in-video question.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Segment is one recordable unit of a video script.
type Segment struct {
	ID               string      `json:"id"`
	Type             SegmentType `json:"type"`
	Section          string      `json:"section"`
	Title            string      `json:"title"`
	Narration        string      `json:"narration"`
	VisualCue        string      `json:"visual_cue"`
	Code             string      `json:"code"`
	DurationEstimate float64     `json:"duration_estimate"`

	// Recording data
	AudioPath        string        `json:"audio_path,omitempty"`
	VideoPath        string        `json:"video_path,omitempty"`
	RecordedDuration float64       `json:"recorded_duration,omitempty"`
	Status           SegmentStatus `json:"status"`

	// IVQ-specific fields
	Question      string            `json:"question,omitempty"`
	Options       []Option          `json:"options,omitempty"`
	CorrectAnswer string            `json:"correct_answer,omitempty"`
	Feedback      map[string]string `json:"feedback,omitempty"`

	// Metadata
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSegment returns a draft segment of the given type with a fresh ID.
func NewSegment(typ SegmentType, section, title string) Segment {
	now := time.Now().UTC()
	return Segment{
		ID:        uuid.NewString()[:8],
		Type:      typ,
		Section:   section,
		Title:     title,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
