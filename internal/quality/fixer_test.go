package quality

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
)

func testIssue(title string) Issue {
	return Issue{
		ID:           "test0001",
		Severity:     SeverityWarning,
		Category:     CategoryQuality,
		Title:        title,
		Description:  "The hook is generic.",
		Location:     "HOOK",
		SuggestedFix: "Add a personal story.",
		AutoFixable:  true,
		PointsLost:   5,
	}
}

func TestFixIssue_ReturnsUpdatedScriptAndExplanation(t *testing.T) {
	mock := &fakeLLM{verdictsJSON: passingVerdicts(t)}
	scorer := newTestScorer(mock)

	updated, explanation, err := scorer.FixIssue(context.Background(), incompleteScript, testIssue("Hook lacks anecdote"))

	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(incompleteScript), updated)
	assert.Equal(t, "Fixed: Hook lacks anecdote", explanation)

	// The fix prompt carries the issue context and the full script.
	require.Len(t, mock.prompts, 1)
	assert.Contains(t, mock.prompts[0], "ISSUE: Hook lacks anecdote")
	assert.Contains(t, mock.prompts[0], "SUGGESTED FIX: Add a personal story.")
	assert.Contains(t, mock.prompts[0], "## CONTENT")
}

func TestFixIssue_StripsWrappingFence(t *testing.T) {
	mock := &fakeLLM{fixResponse: fence + "\n## HOOK\nBetter hook.\n" + fence}
	scorer := newTestScorer(mock)

	updated, _, err := scorer.FixIssue(context.Background(), incompleteScript, testIssue("Weak hook"))

	require.NoError(t, err)
	assert.Equal(t, "## HOOK\nBetter hook.", updated)
}

func TestFixIssue_RequiresClient(t *testing.T) {
	scorer := newTestScorer(nil)

	_, _, err := scorer.FixIssue(context.Background(), incompleteScript, testIssue("Weak hook"))

	assert.ErrorIs(t, err, apperr.ErrLLMUnavailable)
}

func TestFixAllIssues_RequiresClient(t *testing.T) {
	scorer := newTestScorer(nil)

	_, _, err := scorer.FixAllIssues(context.Background(), incompleteScript, 5, 95)

	assert.ErrorIs(t, err, apperr.ErrLLMUnavailable)
}

func TestFixAllIssues_StopsAtTarget(t *testing.T) {
	mock := &fakeLLM{verdictsJSON: passingVerdicts(t)}
	scorer := newTestScorer(mock)

	updated, history, err := scorer.FixAllIssues(context.Background(), completeScript, 5, 80)

	require.NoError(t, err)
	assert.Equal(t, completeScript, updated)
	require.Len(t, history, 2)

	assert.Equal(t, 0, history[0].Iteration)
	assert.Equal(t, 80, history[0].Score)
	assert.Equal(t, StopTargetReached, history[0].Stopped)
	assert.Empty(t, history[0].FixesApplied)

	assert.True(t, history[1].Final)
	assert.Equal(t, 80, history[1].Score)
}

func TestFixAllIssues_FixesWorstFirstAndPlateaus(t *testing.T) {
	mock := &fakeLLM{verdictsJSON: passingVerdicts(t)}
	scorer := newTestScorer(mock)

	updated, history, err := scorer.FixAllIssues(context.Background(), incompleteScript, 3, 95)

	require.NoError(t, err)
	assert.Contains(t, updated, "## IVQ")
	require.Len(t, history, 4)

	// Round one fixes the three worst issues: the 10-point missing IVQ
	// first, then the 5-point criticals in report order.
	assert.Equal(t, 45, history[0].Score)
	assert.Equal(t, 8, history[0].IssuesCount)
	assert.Equal(t, []string{
		"Fixed: Missing IVQ section",
		"Fixed: Missing OBJECTIVE section",
		"Fixed: Missing SUMMARY section",
	}, history[0].FixesApplied)

	assert.Equal(t, 1, history[1].Iteration)
	assert.Equal(t, 60, history[1].Score)
	assert.Len(t, history[1].FixesApplied, 3)

	// The placeholder sections stop helping, so the score plateaus.
	assert.Equal(t, StopScorePlateaued, history[2].Stopped)
	assert.Equal(t, 60, history[2].Score)
	assert.Empty(t, history[2].FixesApplied)

	assert.True(t, history[3].Final)
	assert.Equal(t, 60, history[3].Score)
}

func TestFixAllIssues_RecordsFailedFixes(t *testing.T) {
	mock := &fakeLLM{verdictsJSON: passingVerdicts(t), fixErr: errors.New("boom")}
	scorer := newTestScorer(mock)

	updated, history, err := scorer.FixAllIssues(context.Background(), incompleteScript, 3, 95)

	require.NoError(t, err)
	assert.Equal(t, incompleteScript, updated)
	require.Len(t, history, 3)

	require.Len(t, history[0].FixesApplied, 3)
	assert.Equal(t, "Failed to fix 'Missing IVQ section': fix generation: boom", history[0].FixesApplied[0])

	assert.Equal(t, StopScorePlateaued, history[1].Stopped)
	assert.True(t, history[2].Final)
}

func TestFixEntry_MarshalJSON(t *testing.T) {
	loop := FixEntry{Iteration: 2, Score: 55, IssuesCount: 3}
	b, err := json.Marshal(loop)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, float64(2), decoded["iteration"])
	assert.Equal(t, []any{}, decoded["fixes_applied"])
	assert.NotContains(t, decoded, "stopped")

	stopped := FixEntry{Iteration: 0, Score: 90, IssuesCount: 1, Stopped: StopTargetReached}
	b, err = json.Marshal(stopped)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, StopTargetReached, decoded["stopped"])

	final := FixEntry{Final: true, Score: 80, IssuesCount: 1}
	b, err = json.Marshal(final)
	require.NoError(t, err)

	decoded = map[string]any{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "final", decoded["iteration"])
	assert.Equal(t, float64(80), decoded["score"])
	assert.NotContains(t, decoded, "fixes_applied")
}

func TestUsedFixes(t *testing.T) {
	history := []FixEntry{
		{Iteration: 0, FixesApplied: []string{"a", "b", "c"}},
		{Iteration: 1, FixesApplied: []string{"d"}},
		{Final: true},
	}
	assert.Equal(t, 4, UsedFixes(history))
}
