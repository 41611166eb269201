package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const codeFence = "```"

// screencastScript mixes plain prose with the full screencast format:
// narration labels, screen cues, cell breaks and an on-screen question.
const screencastScript = `# Optimizing Pandas

| Field | Value |
|-------|-------|
| Duration | 5 min |

## HOOK

Your pipeline is slow. [SCREEN: terminal]

**[PAUSE]**

## CONTENT

### Segment 1: Profiling

[SCREEN: Jupyter notebook]

**NARRATION:** Let's profile the hot loop.

` + codeFence + `python
import cProfile
` + codeFence + `

**[RUN CELL]**

**OUTPUT:** 2.3 seconds

--- CELL BREAK ---

## IVQ

**Question:** What tool profiles Python?

A) print statements
B) cProfile
C) guessing
D) none of these

**Correct Answer:** B

**Feedback A:** Try again.

## SUMMARY

Profile first, optimize second.
`

func TestExtractNarration_SpokenLinesOnly(t *testing.T) {
	segments := ExtractNarration(screencastScript)

	// The IVQ is an on-screen overlay with no spoken prose, so it does
	// not produce a segment. Title and metadata table never do.
	require.Len(t, segments, 3)
	assert.Equal(t, "HOOK", segments[0].Section)
	assert.Equal(t, "CONTENT", segments[1].Section)
	assert.Equal(t, "SUMMARY", segments[2].Section)

	assert.Equal(t, "Your pipeline is slow. [SCREEN: terminal]\n\n[PAUSE]", segments[0].Text)
	assert.Equal(t, "Let's profile the hot loop.", segments[1].Text)
	assert.Equal(t, "Profile first, optimize second.", segments[2].Text)
}

func TestExtractNarration_CountsSpokenWords(t *testing.T) {
	segments := ExtractNarration(screencastScript)
	require.Len(t, segments, 3)

	// Bracket markers do not count as spoken words.
	assert.Equal(t, 4, segments[0].WordCount)
	assert.Equal(t, 5, segments[1].WordCount)
	assert.InDelta(t, 2.0, segments[0].DurationSeconds, 0.001)
	assert.InDelta(t, 2.0, segments[1].DurationSeconds, 0.001)
}

func TestExtractNarration_PlainProseSections(t *testing.T) {
	raw := "## HOOK\n\nEver waited ten minutes for a loop?\n\n" +
		"## OBJECTIVE\n\nBy the end of this video, you'll be able to:\n- Profile pandas code\n\n" +
		"## CONTENT\n\nStart with the profiler.\n\n**Remember this**\n\n" +
		"## SUMMARY\n\nWe profiled and optimized.\n\n" +
		"## CALL TO ACTION\n\nTry it on your own data.\n"

	segments := ExtractNarration(raw)
	require.Len(t, segments, 5)

	sections := make([]string, 0, len(segments))
	for _, s := range segments {
		sections = append(sections, s.Section)
	}
	assert.Equal(t, []string{"HOOK", "OBJECTIVE", "CONTENT", "SUMMARY", "CTA"}, sections)

	// Lines inside a paragraph join with spaces; a bold line is spoken
	// emphasis and keeps its text.
	assert.Equal(t, "By the end of this video, you'll be able to: - Profile pandas code", segments[1].Text)
	assert.Equal(t, "Start with the profiler.\n\nRemember this", segments[2].Text)
}

func TestExtractNarration_NoSectionsMeansNoNarration(t *testing.T) {
	assert.Empty(t, ExtractNarration("just prose\nwith no headers at all"))
	assert.Empty(t, ExtractNarration(""))
}

func TestNarrationText_JoinsSegments(t *testing.T) {
	text := NarrationText(screencastScript)

	want := "Your pipeline is slow. [SCREEN: terminal]\n\n[PAUSE]\n\n" +
		"Let's profile the hot loop.\n\n" +
		"Profile first, optimize second."
	assert.Equal(t, want, text)
}

func TestNarrationText_FeedsOptimizerCleanly(t *testing.T) {
	o := newTestOptimizer()
	out := o.Optimize(NarrationText(screencastScript))

	want := "Your pipeline is slow.\n\n[PAUSE]\n\n" +
		"Let's profile the hot loop.\n\n" +
		"Profile first, optimize second."
	assert.Equal(t, want, out)
}

func TestTotalDuration(t *testing.T) {
	segments := []NarrationSegment{
		{DurationSeconds: 12},
		{DurationSeconds: 30.5},
	}
	assert.InDelta(t, 42.5, TotalDuration(segments), 0.001)
	assert.Zero(t, TotalDuration(nil))
}
