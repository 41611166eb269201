package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
	"github.com/p-blackswan/screencast-studio/internal/llm"
)

type fakeLLM struct {
	responses []string // consumed in order, last one repeats
	err       error
	systems   []string
	prompts   []string
}

func (f *fakeLLM) Generate(_ context.Context, system, user string, _ ...llm.Option) (string, error) {
	f.systems = append(f.systems, system)
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeLLM) Chat(_ context.Context, state llm.ConversationState, _ string, _ ...llm.Option) (string, llm.ConversationState, error) {
	return "", state, nil
}

const completeGenerated = `| Field | Value |
|-------|-------|
| Duration | 5 minutes |

## HOOK
Last week I watched a nightly job crawl for forty minutes.

## OBJECTIVE
By the end of this video, you'll be able to:
- Profile a slow DataFrame operation

## CONTENT
### Segment 1: Profiling
The content.

## IVQ
**Question:** What does a profiler measure?

## SUMMARY
We profiled and fixed it.

## CTA
Take the practice quiz.
`

func newTestGenerator(client llm.Client) *Generator {
	return NewGenerator(client, zerolog.Nop())
}

func TestBuildScriptPrompt_Defaults(t *testing.T) {
	prompt := BuildScriptPrompt(Request{Topic: "Pandas vectorization"})

	assert.Contains(t, prompt, "Create a 5-minute screencast video script about:")
	assert.Contains(t, prompt, "**TOPIC**: Pandas vectorization")
	assert.Contains(t, prompt, "AUDIENCE: Intermediate learners with basic Python knowledge")
	assert.Contains(t, prompt, "ENVIRONMENT: Jupyter Notebook")
	assert.Contains(t, prompt, "STYLE: Step-by-Step Tutorial")
	assert.Contains(t, prompt, "- HOOK: 30 seconds")
	assert.Contains(t, prompt, "- CONTENT: 2 minutes 45 seconds")
	assert.Contains(t, prompt, "Content guidance: Standard format.")
	assert.Contains(t, prompt, "**LEARNING OBJECTIVES**: Generate 2-3 clear, measurable objectives")
	assert.Contains(t, prompt, "**BLOOM'S TAXONOMY VERB REFERENCE**")
	assert.True(t, strings.HasSuffix(prompt, "No preamble."))

	assert.NotContains(t, prompt, "**VIDEO METADATA**")
	assert.NotContains(t, prompt, "**REFERENCE DATA/CODE**")
	assert.NotContains(t, prompt, "**ADDITIONAL REQUIREMENTS**")
}

func TestBuildScriptPrompt_FullContext(t *testing.T) {
	prompt := BuildScriptPrompt(Request{
		Topic:              "Profiling pandas pipelines",
		DurationMinutes:    10,
		Style:              "demo",
		Environment:        "terminal",
		Audience:           "advanced",
		LearningObjectives: "- Analyze flame graphs",
		SampleCode:         "import pandas as pd",
		Notes:              "Mention py-spy.",
		CourseName:         "Python Performance",
		LessonNumber:       3,
		VideoNumber:        2,
		FormatType:         "screencast",
	})

	assert.Contains(t, prompt, "Create a 10-minute screencast video script about:")
	assert.Contains(t, prompt, "AUDIENCE: Advanced developers seeking specialized knowledge")
	assert.Contains(t, prompt, "ENVIRONMENT: Terminal / Command Line")
	assert.Contains(t, prompt, "STYLE: Live Demo")
	assert.Contains(t, prompt, "- Course Name: Python Performance")
	assert.Contains(t, prompt, "- Lesson Number: 3")
	assert.Contains(t, prompt, "- Video Number: 2")
	assert.Contains(t, prompt, "- Format: screencast")
	assert.Contains(t, prompt, "**LEARNING OBJECTIVES** (use these exactly):\n- Analyze flame graphs")
	assert.Contains(t, prompt, "**REFERENCE DATA/CODE** (incorporate this into examples):\n```\nimport pandas as pd\n```")
	assert.Contains(t, prompt, "**ADDITIONAL REQUIREMENTS**:\nMention py-spy.")
	assert.NotContains(t, prompt, "Generate 2-3 clear, measurable objectives")
}

func TestBuildScriptPrompt_UnknownValuesFallBack(t *testing.T) {
	prompt := BuildScriptPrompt(Request{
		Topic:           "Sorting",
		DurationMinutes: 4,
		Style:           "noir",
		Environment:     "emacs",
		Audience:        "expert",
	})

	assert.Contains(t, prompt, "Create a 5-minute screencast video script about:")
	assert.Contains(t, prompt, "AUDIENCE: Intermediate learners")
	assert.Contains(t, prompt, "ENVIRONMENT: Jupyter Notebook")
	assert.Contains(t, prompt, "STYLE: Step-by-Step Tutorial")
}

func TestBuildScriptPrompt_MetadataPlaceholders(t *testing.T) {
	prompt := BuildScriptPrompt(Request{Topic: "Joins", VideoNumber: 3})

	assert.Contains(t, prompt, "- Course Name: [Course Name]")
	assert.Contains(t, prompt, "- Lesson Number: [N]")
	assert.Contains(t, prompt, "- Video Number: 3")
	assert.Contains(t, prompt, "- Format: tutorial")
}

func TestGenerateScript_Success(t *testing.T) {
	client := &fakeLLM{responses: []string{completeGenerated}}
	g := newTestGenerator(client)

	result, err := g.GenerateScript(context.Background(), Request{Topic: "Profiling pandas"})
	require.NoError(t, err)

	assert.Equal(t, completeGenerated, result.Script)
	assert.Equal(t, Metadata{
		Topic:           "Profiling pandas",
		DurationMinutes: 5,
		Style:           "tutorial",
		Environment:     "jupyter",
		Audience:        "intermediate",
	}, result.Metadata)

	require.Len(t, client.systems, 1)
	assert.Contains(t, client.systems[0], "expert instructional designer")
}

func TestGenerateScript_RetriesOnMissingSections(t *testing.T) {
	incomplete := "## HOOK\nHi.\n\n## OBJECTIVE\nLearn.\n\n## CONTENT\nStuff.\n\n## CTA\nGo.\n"
	client := &fakeLLM{responses: []string{incomplete, completeGenerated}}
	g := newTestGenerator(client)

	result, err := g.GenerateScript(context.Background(), Request{Topic: "Profiling"})
	require.NoError(t, err)

	assert.Equal(t, completeGenerated, result.Script)
	require.Len(t, client.prompts, 2)
	assert.Contains(t, client.prompts[1], "IMPORTANT: Your previous attempt was missing these sections: ## IVQ, ## SUMMARY.")
	assert.Contains(t, client.prompts[1], "You MUST include ALL sections: ## HOOK, ## OBJECTIVE, ## CONTENT, ## IVQ, ## SUMMARY, ## CTA.")
}

func TestGenerateScript_RetryResultReturnedAsIs(t *testing.T) {
	incomplete := "## HOOK\nStill missing everything else.\n"
	client := &fakeLLM{responses: []string{incomplete, incomplete}}
	g := newTestGenerator(client)

	result, err := g.GenerateScript(context.Background(), Request{Topic: "Profiling"})
	require.NoError(t, err)

	// One retry only; a second bad attempt is the caller's problem.
	assert.Equal(t, incomplete, result.Script)
	assert.Len(t, client.prompts, 2)
}

func TestGenerateScript_EmptyTopic(t *testing.T) {
	client := &fakeLLM{responses: []string{completeGenerated}}
	g := newTestGenerator(client)

	_, err := g.GenerateScript(context.Background(), Request{Topic: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Empty(t, client.prompts)
}

func TestGenerateScript_NoClient(t *testing.T) {
	g := newTestGenerator(nil)

	_, err := g.GenerateScript(context.Background(), Request{Topic: "Profiling"})
	assert.ErrorIs(t, err, apperr.ErrLLMUnavailable)
}

func TestGenerateScript_PropagatesModelError(t *testing.T) {
	client := &fakeLLM{err: errors.New("overloaded")}
	g := newTestGenerator(client)

	_, err := g.GenerateScript(context.Background(), Request{Topic: "Profiling"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script generation: overloaded")
}

func TestRegenerateSection_ReplacesOnlyThatSection(t *testing.T) {
	raw := "## HOOK\nOld boring hook.\n\n## CONTENT\nThe body stays.\n"
	client := &fakeLLM{responses: []string{"A hook with an actual story."}}
	g := newTestGenerator(client)

	updated, err := g.RegenerateSection(context.Background(), raw, "HOOK", "Needs an anecdote")
	require.NoError(t, err)

	assert.Equal(t, "## HOOK\nA hook with an actual story.\n\n## CONTENT\nThe body stays.\n", updated)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.systems[0], "Rewrite only the HOOK section")
	assert.Contains(t, client.prompts[0], "Feedback for HOOK section:\nNeeds an anecdote")
	assert.Contains(t, client.prompts[0], "Current script:\n## HOOK")
}

func TestRegenerateSection_StripsEchoedHeader(t *testing.T) {
	raw := "## HOOK\nOld.\n\n## CONTENT\nBody.\n"
	client := &fakeLLM{responses: []string{"## HOOK\nFresh hook."}}
	g := newTestGenerator(client)

	updated, err := g.RegenerateSection(context.Background(), raw, "HOOK", "feedback")
	require.NoError(t, err)
	assert.Equal(t, "## HOOK\nFresh hook.\n\n## CONTENT\nBody.\n", updated)
}

func TestRegenerateSection_LastSectionRunsToEnd(t *testing.T) {
	raw := "## HOOK\nHi.\n\n## SUMMARY\nOld summary.\nMore old text.\n"
	client := &fakeLLM{responses: []string{"New summary."}}
	g := newTestGenerator(client)

	updated, err := g.RegenerateSection(context.Background(), raw, "SUMMARY", "shorter")
	require.NoError(t, err)
	assert.Equal(t, "## HOOK\nHi.\n\n## SUMMARY\nNew summary.\n\n", updated)
}

func TestRegenerateSection_UnknownSection(t *testing.T) {
	g := newTestGenerator(&fakeLLM{})

	_, err := g.RegenerateSection(context.Background(), "## HOOK\nHi.\n", "EPILOGUE", "feedback")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecommendEnvironment(t *testing.T) {
	assert.Equal(t, "jupyter", RecommendEnvironment("data_analysis"))
	assert.Equal(t, "terminal", RecommendEnvironment("cli_tool"))
	assert.Equal(t, "ipython", RecommendEnvironment("api_usage"))
	assert.Equal(t, "pycharm", RecommendEnvironment("refactoring"))
	assert.Equal(t, "jupyter", RecommendEnvironment("Data_Analysis"))
	assert.Equal(t, "jupyter", RecommendEnvironment("quantum_computing"))
}
