package quality

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckScript_CompleteScriptHasNoErrors(t *testing.T) {
	report := CheckScript(completeScript, 3)

	assert.Equal(t, 0, report.Errors)
	assert.Empty(t, report.Issues.Structure)
	assert.Empty(t, report.Issues.IVQ)
	assert.Empty(t, report.Issues.Code)

	// The fixture has two visual cues and no pause markers.
	require.Len(t, report.Issues.Engagement, 2)
	assert.Equal(t, "No [PAUSE] markers found", report.Issues.Engagement[0].Message)
	assert.Equal(t, "Only 2 visual cues found", report.Issues.Engagement[1].Message)
}

func TestCheckScript_MissingSectionsCounted(t *testing.T) {
	report := CheckScript("## HOOK\nHi\n", 7)

	require.Len(t, report.Issues.Structure, 5)
	assert.Equal(t, "Missing section: ## OBJECTIVE", report.Issues.Structure[0].Message)
	assert.Equal(t, "Add ## OBJECTIVE section to your script", report.Issues.Structure[0].Suggestion)
	assert.Equal(t, "error", report.Issues.Structure[0].Severity)

	require.Len(t, report.Issues.IVQ, 1)
	assert.Equal(t, "No IVQ section found", report.Issues.IVQ[0].Message)

	// 5 structure errors + 1 IVQ error; "too short" timing warning;
	// 2 engagement infos.
	assert.Equal(t, 9, report.TotalIssues)
	assert.Equal(t, 6, report.Errors)
	assert.Equal(t, 1, report.Warnings)
}

func TestCheckScript_TimingBands(t *testing.T) {
	base := "## HOOK\n"

	within := CheckScript(base+strings.Repeat("word ", 1050), 7)
	assert.Empty(t, within.Issues.Timing)

	long := CheckScript(base+strings.Repeat("word ", 1300), 7)
	require.Len(t, long.Issues.Timing, 1)
	assert.Contains(t, long.Issues.Timing[0].Message, "(too long)")
	assert.Contains(t, long.Issues.Timing[0].Message, "target is 7 min")
	assert.Equal(t, "Consider shortening CONTENT section", long.Issues.Timing[0].Suggestion)

	short := CheckScript(base+strings.Repeat("word ", 500), 7)
	require.Len(t, short.Issues.Timing, 1)
	assert.Contains(t, short.Issues.Timing[0].Message, "(too short)")
}

func TestCheckScript_CodeFences(t *testing.T) {
	unbalanced := CheckScript("## CONTENT\n"+fence+"python\nx = 1\n", 7)
	require.Len(t, unbalanced.Issues.Code, 1)
	assert.Equal(t, "Unbalanced code fences", unbalanced.Issues.Code[0].Message)
	assert.Equal(t, "error", unbalanced.Issues.Code[0].Severity)

	empty := CheckScript("## CONTENT\n"+fence+"python\n\n"+fence+"\n", 7)
	require.Len(t, empty.Issues.Code, 1)
	assert.Equal(t, "Code block 1 is empty", empty.Issues.Code[0].Message)
	assert.Equal(t, "warning", empty.Issues.Code[0].Severity)

	clean := CheckScript("## CONTENT\n"+fence+"python\nx = 1\n"+fence+"\n", 7)
	assert.Empty(t, clean.Issues.Code)
}

func TestCheckScript_LongParagraphFlagged(t *testing.T) {
	para := strings.TrimSpace(strings.Repeat("word ", 101))
	report := CheckScript("## CONTENT\nShort intro.\n\n"+para+"\n", 7)

	require.Len(t, report.Issues.Clarity, 1)
	assert.Equal(t, "Long paragraph (101 words)", report.Issues.Clarity[0].Message)
	assert.Equal(t, "Break into smaller paragraphs or add [PAUSE] markers", report.Issues.Clarity[0].Suggestion)
}

func TestCheckScript_IVQDetails(t *testing.T) {
	bare := CheckScript("## IVQ\n**Question:** What?\n", 7)
	require.Len(t, bare.Issues.IVQ, 2)
	assert.Equal(t, "IVQ section missing answer options (A-D)", bare.Issues.IVQ[0].Message)
	assert.Equal(t, "IVQ missing correct answer indicator", bare.Issues.IVQ[1].Message)

	full := CheckScript(scriptNoFeedback, 7)
	assert.Empty(t, full.Issues.IVQ)
}

func TestCheckScript_EngagementSatisfied(t *testing.T) {
	text := `## CONTENT
[SCREEN: One]
[SCREEN: Two]
[SCREEN: Three]

Run it. **[PAUSE]**
`
	report := CheckScript(text, 7)
	assert.Empty(t, report.Issues.Engagement)
}

func TestCheckScript_ReportMarshalsAllCategories(t *testing.T) {
	report := CheckScript(completeScript, 3)

	b, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded struct {
		Issues map[string]json.RawMessage `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	for _, category := range []string{
		"structure", "timing", "code", "clarity",
		"engagement", "ivq", "accessibility", "technical_accuracy",
	} {
		assert.Contains(t, decoded.Issues, category)
	}
	assert.Equal(t, "[]", string(decoded.Issues["accessibility"]))
}
