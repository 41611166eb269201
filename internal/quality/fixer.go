package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
)

// Stop reasons recorded on the history entry that ended the fix loop.
const (
	StopTargetReached   = "target_reached"
	StopScorePlateaued  = "score_plateaued"
	StopNoFixableIssues = "no_fixable_issues"
)

// maxFixesPerIteration caps model calls per loop round.
const maxFixesPerIteration = 3

// FixEntry records one round of the fix loop. The terminal entry has
// Final set and carries the score after the last applied fix.
type FixEntry struct {
	Iteration    int
	Final        bool
	Score        int
	IssuesCount  int
	FixesApplied []string
	Stopped      string
}

// MarshalJSON emits loop entries with a numeric iteration and an always
// present fixes_applied list, and the terminal entry as iteration
// "final" without one.
func (e FixEntry) MarshalJSON() ([]byte, error) {
	if e.Final {
		return json.Marshal(struct {
			Iteration   string `json:"iteration"`
			Score       int    `json:"score"`
			IssuesCount int    `json:"issues_count"`
		}{"final", e.Score, e.IssuesCount})
	}
	fixes := e.FixesApplied
	if fixes == nil {
		fixes = []string{}
	}
	return json.Marshal(struct {
		Iteration    int      `json:"iteration"`
		Score        int      `json:"score"`
		IssuesCount  int      `json:"issues_count"`
		FixesApplied []string `json:"fixes_applied"`
		Stopped      string   `json:"stopped,omitempty"`
	}{e.Iteration, e.Score, e.IssuesCount, fixes, e.Stopped})
}

// FixIssue rewrites the script to resolve one issue. The model returns
// the complete updated script; a wrapping markdown fence is stripped.
func (s *Scorer) FixIssue(ctx context.Context, text string, issue Issue) (string, string, error) {
	if s.client == nil {
		return "", "", fmt.Errorf("fixing issues: %w", apperr.ErrLLMUnavailable)
	}

	prompt := fmt.Sprintf(fixUserPrompt,
		issue.Title, issue.Category, issue.Description, issue.SuggestedFix, issue.Location, text)

	result, err := s.client.Generate(ctx, fixSystemPrompt, prompt)
	if err != nil {
		return "", "", fmt.Errorf("fix generation: %w", err)
	}

	s.logger.Debug().Str("issue_id", issue.ID).Str("title", issue.Title).Msg("applied fix")
	return stripFence(result), "Fixed: " + issue.Title, nil
}

// FixAllIssues re-scores and fixes the script until it reaches
// targetScore, the score stops improving, nothing fixable remains, or
// maxIterations rounds have run. Each round fixes at most three issues,
// worst first. The returned history holds one entry per round plus a
// terminal entry with the final score, so its length never exceeds
// maxIterations+1.
func (s *Scorer) FixAllIssues(ctx context.Context, text string, maxIterations, targetScore int) (string, []FixEntry, error) {
	if s.client == nil {
		return "", nil, fmt.Errorf("fixing issues: %w", apperr.ErrLLMUnavailable)
	}

	history := make([]FixEntry, 0, maxIterations+1)
	current := text
	prevScore := -1

	for i := 0; i < maxIterations; i++ {
		sc := s.ScoreScript(ctx, current)
		entry := FixEntry{
			Iteration:    i,
			Score:        sc.Total,
			IssuesCount:  len(sc.Issues),
			FixesApplied: []string{},
		}

		if sc.Total >= targetScore {
			entry.Stopped = StopTargetReached
			history = append(history, entry)
			break
		}
		if sc.Total <= prevScore {
			entry.Stopped = StopScorePlateaued
			history = append(history, entry)
			break
		}
		prevScore = sc.Total

		fixable := make([]Issue, 0, len(sc.Issues))
		for _, issue := range sc.Issues {
			if issue.AutoFixable {
				fixable = append(fixable, issue)
			}
		}
		sort.SliceStable(fixable, func(a, b int) bool {
			ra, rb := severityRank(fixable[a].Severity), severityRank(fixable[b].Severity)
			if ra != rb {
				return ra < rb
			}
			return fixable[a].PointsLost > fixable[b].PointsLost
		})

		if len(fixable) == 0 {
			entry.Stopped = StopNoFixableIssues
			history = append(history, entry)
			break
		}

		if len(fixable) > maxFixesPerIteration {
			fixable = fixable[:maxFixesPerIteration]
		}
		for _, issue := range fixable {
			updated, explanation, err := s.FixIssue(ctx, current, issue)
			if err != nil {
				entry.FixesApplied = append(entry.FixesApplied,
					fmt.Sprintf("Failed to fix '%s': %v", issue.Title, err))
				continue
			}
			current = updated
			entry.FixesApplied = append(entry.FixesApplied, explanation)
		}

		s.logger.Info().
			Int("iteration", i).
			Int("score", sc.Total).
			Int("fixes", len(entry.FixesApplied)).
			Msg("fix loop round complete")
		history = append(history, entry)
	}

	final := s.ScoreScript(ctx, current)
	history = append(history, FixEntry{
		Final:       true,
		Score:       final.Total,
		IssuesCount: len(final.Issues),
	})

	return current, history, nil
}

func severityRank(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeveritySuggestion:
		return 2
	default:
		return 3
	}
}

// UsedFixes reports how many fix attempts a history implies, for
// metrics and logs.
func UsedFixes(history []FixEntry) int {
	n := 0
	for _, e := range history {
		n += len(e.FixesApplied)
	}
	return n
}
