package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSection(t *testing.T) {
	cases := []struct {
		header  string
		section Section
		ok      bool
	}{
		{"HOOK", SectionHook, true},
		{"hook", SectionHook, true},
		{"HOOK — The Slow Query", SectionHook, true},
		{"HOOK: opening", SectionHook, true},
		{"Hooking Into Events", "", false},
		{"OBJECTIVE", SectionObjective, true},
		{"CONTENT", SectionContent, true},
		{"CONTENT 2: Advanced", SectionContent, true},
		{"SUMMARY", SectionSummary, true},
		{"Summary of Results", "", false},
		{"CTA", SectionCTA, true},
		{"CALL TO ACTION", SectionCTA, true},
		{"Call to Action: subscribe", SectionCTA, true},
		{"IVQ", SectionIVQ, true},
		{"IVQ 1", SectionIVQ, true},
		{"In-Video Question", SectionIVQ, true},
		{"IN-VIDEO QUESTION (choose one)", SectionIVQ, true},
		{"Introduction", "", false},
		{"CONTENTS", "", false},
	}

	for _, tc := range cases {
		section, ok := MatchSection(tc.header)
		assert.Equal(t, tc.ok, ok, "header %q", tc.header)
		assert.Equal(t, tc.section, section, "header %q", tc.header)
	}
}

func TestTokenize_Classification(t *testing.T) {
	src := strings.Join([]string{
		"## HOOK",
		"",
		"Plain narration line.",
		"[SCREEN: Title slide]",
		"**Loading the Data**",
		"**NARRATION:** Spoken text here.",
		"A) First option",
		"| Field | Value |",
		"--- CELL BREAK ---",
		"### Deep Dive",
	}, "\n")

	tokens := Tokenize(src)
	require.Len(t, tokens, 10)

	assert.Equal(t, KindSection, tokens[0].Kind)
	assert.Equal(t, SectionHook, tokens[0].Section)
	assert.Equal(t, KindBlank, tokens[1].Kind)
	assert.Equal(t, KindText, tokens[2].Kind)
	assert.Equal(t, KindBracket, tokens[3].Kind)
	assert.Equal(t, "SCREEN: Title slide", tokens[3].Text)
	assert.Equal(t, KindBoldLine, tokens[4].Kind)
	assert.Equal(t, "Loading the Data", tokens[4].Text)
	assert.Equal(t, KindBoldLabel, tokens[5].Kind)
	assert.Equal(t, "NARRATION", tokens[5].Label)
	assert.Equal(t, "Spoken text here.", tokens[5].Rest)
	assert.Equal(t, KindOption, tokens[6].Kind)
	assert.Equal(t, "A", tokens[6].Letter)
	assert.Equal(t, "First option", tokens[6].Text)
	assert.Equal(t, KindTableRow, tokens[7].Kind)
	assert.Equal(t, KindCellBreak, tokens[8].Kind)
	assert.Equal(t, KindHeading, tokens[9].Kind)
	assert.Equal(t, "Deep Dive", tokens[9].Text)
}

func TestTokenize_CodeFences(t *testing.T) {
	src := strings.Join([]string{
		"## CONTENT",
		"```python",
		"import pandas as pd",
		"",
		"df = pd.read_csv('events.csv')",
		"```",
		"After the code.",
	}, "\n")

	tokens := Tokenize(src)
	require.Len(t, tokens, 3)
	assert.Equal(t, KindCode, tokens[1].Kind)
	assert.Equal(t, "python", tokens[1].Lang)
	assert.Equal(t, "import pandas as pd\n\ndf = pd.read_csv('events.csv')", tokens[1].Text)
	assert.Equal(t, KindText, tokens[2].Kind)
}

func TestTokenize_UnterminatedFenceKeepsCode(t *testing.T) {
	tokens := Tokenize("## CONTENT\n```python\nx = 1")
	require.Len(t, tokens, 2)
	assert.Equal(t, KindCode, tokens[1].Kind)
	assert.Equal(t, "x = 1", tokens[1].Text)
}

func TestTokenize_BoldLineBeforeBoldLabel(t *testing.T) {
	// A trailing-colon bold line with nothing after it is a bold line,
	// exactly like a bold title.
	tokens := Tokenize("**Correct Answer:**")
	require.Len(t, tokens, 1)
	assert.Equal(t, KindBoldLine, tokens[0].Kind)
	assert.Equal(t, "Correct Answer:", tokens[0].Text)

	tokens = Tokenize("**Correct Answer:** B")
	require.Len(t, tokens, 1)
	assert.Equal(t, KindBoldLabel, tokens[0].Kind)
	assert.Equal(t, "Correct Answer", tokens[0].Label)
	assert.Equal(t, "B", tokens[0].Rest)
}

func TestPresentSections(t *testing.T) {
	src := strings.Join([]string{
		"## HOOK",
		"text",
		"## CONTENT",
		"### Summary of Results",
		"more",
		"## HOOK",
	}, "\n")

	sections := PresentSections(src)
	assert.Equal(t, []Section{SectionHook, SectionContent}, sections)
}

func TestSplitSections_EnclosingAttribution(t *testing.T) {
	src := strings.Join([]string{
		"Intro text before any header is dropped.",
		"## HOOK",
		"one two three",
		"## CONTENT",
		"four five",
		"### Summary of Results",
		"six seven eight",
		"## SUMMARY",
		"nine",
	}, "\n")

	sections := SplitSections(src)
	assert.Equal(t, "one two three", sections[SectionHook])
	// The prose sub-header stays inside CONTENT rather than starting a
	// SUMMARY section.
	assert.Contains(t, sections[SectionContent], "six seven eight")
	assert.Contains(t, sections[SectionContent], "Summary of Results")
	assert.Equal(t, "nine", sections[SectionSummary])
}

func TestSplitSections_MergesRepeatedSection(t *testing.T) {
	src := "## CONTENT\nfirst part\n## IVQ\nquestion\n## CONTENT\nsecond part"
	sections := SplitSections(src)
	assert.Equal(t, "first part\nsecond part", sections[SectionContent])
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   \n\t"))
	assert.Equal(t, 4, WordCount("one two  three\nfour"))
}
