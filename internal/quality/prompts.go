package quality

const promptFence = "```"

const modelCheckSystemPrompt = `You are a Coursera screencast script quality analyst.
Analyze the script for these specific dimensions only. Return a JSON array of issues found.

Each issue must be:
{
  "check_id": "hook_anecdote|blooms_verbs|has_examples|no_sequential_refs|consistent_terminology|active_voice",
  "found": true,
  "detail": "Specific explanation"
}

If a check passes, set "found" to false with a brief note why it passes.
Return ONLY a valid JSON array, no other text.`

// modelCheckUserPrompt takes the script excerpt as its one format verb.
const modelCheckUserPrompt = `Analyze this script:

` + promptFence + `
%s
` + promptFence + `

Check these items:
1. hook_anecdote: Does the HOOK section contain a personal anecdote, relatable story, or engaging real-world scenario? (Not just a generic question like "Have you ever wondered...")
2. blooms_verbs: Does the OBJECTIVE section use measurable Bloom's taxonomy verbs (define, apply, analyze, create, evaluate, etc.)?
3. has_examples: Does the CONTENT section include concrete examples with specific numbers, names, or scenarios?
4. no_sequential_refs: Does the script contain references to other videos, modules, or weeks? (e.g., "in the last video", "next week", "module 3")
5. consistent_terminology: Are technical terms used consistently throughout? (e.g., not switching between "DataFrame" and "dataframe" or "ML" and "machine learning" inconsistently)
6. active_voice: Is the script predominantly in active voice? Flag if passive voice is used excessively.`

const fixSystemPrompt = `You are an expert Coursera screencast script editor.
Fix the specified issue in the script while preserving:
- All ## and ### section headers
- All [SCREEN:], [PAUSE], [RUN CELL] markers
- All ` + promptFence + `python code blocks` + promptFence + `
- All **NARRATION:** and **OUTPUT:** labels
- The same conversational tone and style

Return ONLY the complete updated script. No explanations before or after.`

// fixUserPrompt takes title, category, description, suggested fix,
// location, and the full script, in that order.
const fixUserPrompt = `Fix this issue in the script below:

ISSUE: %s
CATEGORY: %s
DESCRIPTION: %s
SUGGESTED FIX: %s
LOCATION: %s

SCRIPT:
` + promptFence + `
%s
` + promptFence + `

Return the complete fixed script.`
