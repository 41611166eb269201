// Package project persists screencast projects on disk, one directory per
// project holding a project.json manifest plus audio/, video/ and data/
// scaffolding for recorded assets.
package project

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-blackswan/screencast-studio/internal/script"
)

// Defaults applied when a project is created without explicit settings.
const (
	DefaultTitle          = "Untitled Project"
	DefaultTargetDuration = 7
	DefaultEnvironment    = "jupyter"
	DefaultAudienceLevel  = "intermediate"
	DefaultStyle          = "tutorial"
)

// Project is the persisted aggregate: the raw markdown script, the segments
// parsed from it, and everything derived downstream (TTS text, timeline).
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	RawScript string           `json:"raw_script"`
	Segments  []script.Segment `json:"segments"`

	TargetDuration int    `json:"target_duration"`
	Environment    string `json:"environment"`
	AudienceLevel  string `json:"audience_level"`
	Style          string `json:"style"`

	TTSScript string           `json:"tts_script"`
	Timeline  json.RawMessage  `json:"timeline,omitempty"`
	Datasets  []map[string]any `json:"datasets"`

	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// New builds a project with generated id and default settings. A blank title
// falls back to DefaultTitle.
func New(title string) *Project {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	now := time.Now().UTC()
	return &Project{
		ID:             NewID(),
		Title:          title,
		Segments:       []script.Segment{},
		TargetDuration: DefaultTargetDuration,
		Environment:    DefaultEnvironment,
		AudienceLevel:  DefaultAudienceLevel,
		Style:          DefaultStyle,
		Datasets:       []map[string]any{},
		SchemaVersion:  1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewID returns a fresh project id: "proj_" plus the first 12 hex characters
// of a UUID.
func NewID() string {
	return "proj_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Segment returns a pointer to the segment with the given id so callers can
// edit it in place, or nil if the project has no such segment.
func (p *Project) Segment(id string) *script.Segment {
	for i := range p.Segments {
		if p.Segments[i].ID == id {
			return &p.Segments[i]
		}
	}
	return nil
}
