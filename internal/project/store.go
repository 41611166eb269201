package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
)

const manifestName = "project.json"

// Subdirectories scaffolded alongside the manifest for recorded assets.
var projectSubDirs = []string{"audio", "video", "data"}

// Summary is the listing shape: manifest header fields plus a segment count,
// without the script payload.
type Summary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	TargetDuration int       `json:"target_duration"`
	Environment    string    `json:"environment"`
	SegmentCount   int       `json:"segment_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store reads and writes project directories under a single root.
type Store struct {
	root   string
	logger zerolog.Logger
}

// NewStore creates the root directory if needed and returns a store over it.
func NewStore(root string, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("projects directory is required: %w", apperr.ErrInvalidInput)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating projects directory: %w", err)
	}
	return &Store{
		root:   root,
		logger: logger.With().Str("component", "project").Logger(),
	}, nil
}

// Root returns the directory all projects live under.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory for a project id, rejecting ids that would
// escape the root.
func (s *Store) Dir(id string) (string, error) {
	clean, err := sanitizeID(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, clean), nil
}

// Save writes the manifest atomically (temp file, then rename) and makes
// sure the asset subdirectories exist. UpdatedAt is stamped on every save.
func (s *Store) Save(p *Project) error {
	if p == nil {
		return fmt.Errorf("nil project: %w", apperr.ErrInvalidInput)
	}
	dir, err := s.Dir(p.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}
	for _, sub := range projectSubDirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("creating %s directory: %w", sub, err)
		}
	}

	p.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project %s: %w", p.ID, err)
	}
	data = append(data, '\n')

	target := filepath.Join(dir, manifestName)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing project %s: %w", p.ID, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing project %s: %w", p.ID, err)
	}
	s.logger.Debug().Str("project_id", p.ID).Msg("project saved")
	return nil
}

// Load reads a project manifest. Missing projects return ErrNotFound.
func (s *Store) Load(id string) (*Project, error) {
	dir, err := s.Dir(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("project %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading project %s: %w", id, err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project %s: %w", id, err)
	}
	return &p, nil
}

// List returns summaries for every readable project, most recently updated
// first. Directories without a parseable manifest are skipped.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading projects directory: %w", err)
	}
	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, entry.Name(), manifestName))
		if err != nil {
			continue
		}
		var p Project
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn().Str("project_id", entry.Name()).Err(err).Msg("skipping unreadable project")
			continue
		}
		summaries = append(summaries, Summary{
			ID:             p.ID,
			Title:          p.Title,
			Description:    p.Description,
			TargetDuration: p.TargetDuration,
			Environment:    p.Environment,
			SegmentCount:   len(p.Segments),
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Delete removes the whole project directory, assets included.
func (s *Store) Delete(id string) error {
	dir, err := s.Dir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("project %s: %w", id, apperr.ErrNotFound)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	s.logger.Info().Str("project_id", id).Msg("project deleted")
	return nil
}

// sanitizeID strips path separators and parent references from an id before
// any filesystem use. Removing a separator can expose a fresh dot pair, so
// the ".." pass runs last.
func sanitizeID(id string) (string, error) {
	clean := strings.ReplaceAll(id, "/", "")
	clean = strings.ReplaceAll(clean, "\\", "")
	clean = strings.ReplaceAll(clean, "..", "")
	if clean == "" {
		return "", fmt.Errorf("project id %q: %w", id, apperr.ErrInvalidInput)
	}
	return clean, nil
}
