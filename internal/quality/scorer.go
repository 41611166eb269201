// Package quality scores screencast scripts against a fixed 100-point
// rubric, reports issues with suggested fixes, and drives the iterative
// auto-fix loop. Rule-based checks work offline; six judgment checks are
// delegated to a language model when one is configured.
package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/screencast-studio/internal/llm"
	"github.com/p-blackswan/screencast-studio/internal/script"
)

// Severity ranks an issue by how urgently it should be fixed.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Category names the rubric group an issue counts against.
type Category string

const (
	CategoryStructure Category = "structure"
	CategoryQuality   Category = "quality"
	CategoryTiming    Category = "timing"
	CategoryPolish    Category = "polish"
)

// Check is one line item of the scoring rubric.
type Check struct {
	ID     string
	Label  string
	Points int
}

// The rubric is fixed: four categories totalling 100 points. Checks are
// listed in report order.
var (
	StructureChecks = []Check{
		{ID: "has_hook", Label: "HOOK section present", Points: 5},
		{ID: "has_objective", Label: "OBJECTIVE section present", Points: 5},
		{ID: "has_content", Label: "CONTENT section present", Points: 10},
		{ID: "has_ivq", Label: "IVQ section present", Points: 10},
		{ID: "has_summary", Label: "SUMMARY section present", Points: 5},
		{ID: "has_cta", Label: "CTA / CALL TO ACTION section present", Points: 5},
	}

	QualityChecks = []Check{
		{ID: "hook_anecdote", Label: "Hook has relatable anecdote or story", Points: 5},
		{ID: "blooms_verbs", Label: "Objectives use Bloom's taxonomy verbs", Points: 5},
		{ID: "has_examples", Label: "Content has concrete examples", Points: 5},
		{ID: "visual_cues", Label: "Sufficient [SCREEN:] visual cues (>=3)", Points: 5},
		{ID: "ivq_4_options", Label: "IVQ has 4 answer options (A-D)", Points: 5},
		{ID: "ivq_feedback", Label: "IVQ has feedback for wrong answers", Points: 5},
		{ID: "no_sequential_refs", Label: "No references to other videos/modules", Points: 5},
	}

	TimingChecks = []Check{
		{ID: "hook_duration", Label: "Hook is 30-60 seconds (50-100 words)", Points: 5},
		{ID: "content_duration", Label: "Content under 6 minutes (<900 words)", Points: 5},
		{ID: "total_duration", Label: "Total under 10 minutes (<1500 words)", Points: 5},
	}

	PolishChecks = []Check{
		{ID: "consistent_terminology", Label: "Consistent term usage throughout", Points: 5},
		{ID: "active_voice", Label: "Predominantly active voice", Points: 5},
	}
)

// rubric pairs each category with its checks, in report order.
var rubric = []struct {
	category Category
	checks   []Check
}{
	{CategoryStructure, StructureChecks},
	{CategoryQuality, QualityChecks},
	{CategoryTiming, TimingChecks},
	{CategoryPolish, PolishChecks},
}

// TotalPossible is the maximum rubric score.
var TotalPossible = func() int {
	total := 0
	for _, group := range rubric {
		for _, c := range group.checks {
			total += c.Points
		}
	}
	return total
}()

// PassingScore is the threshold at which a script counts as passed.
const PassingScore = 80

func checkPoints(id string) int {
	for _, group := range rubric {
		for _, c := range group.checks {
			if c.ID == id {
				return c.Points
			}
		}
	}
	return 0
}

func checkLabel(id string) string {
	for _, group := range rubric {
		for _, c := range group.checks {
			if c.ID == id {
				return c.Label
			}
		}
	}
	return id
}

// Issue is one concrete problem found in a script, with enough context
// for a reader (or the fixer) to act on it.
type Issue struct {
	ID           string   `json:"id"`
	Severity     Severity `json:"severity"`
	Category     Category `json:"category"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	SuggestedFix string   `json:"suggested_fix"`
	AutoFixable  bool     `json:"auto_fixable"`
	PointsLost   int      `json:"points_lost"`
}

func newIssue(severity Severity, category Category, title, description, location, fix string, points int) Issue {
	return Issue{
		ID:           uuid.NewString()[:8],
		Severity:     severity,
		Category:     category,
		Title:        title,
		Description:  description,
		Location:     location,
		SuggestedFix: fix,
		AutoFixable:  true,
		PointsLost:   points,
	}
}

// Score is the result of a rubric run. Total is always the maximum minus
// the points lost to Issues, so the two views never disagree.
type Score struct {
	Total     int              `json:"total"`
	Breakdown map[Category]int `json:"breakdown"`
	Issues    []Issue          `json:"issues"`
	Passed    bool             `json:"passed"`
}

var (
	screenCueRe   = regexp.MustCompile(`(?i)\[SCREEN:`)
	ivqOptionRe   = regexp.MustCompile(`(?m)^[A-D]\)\s+`)
	ivqFeedbackRe = regexp.MustCompile(`\*\*Feedback [A-D]:\*\*`)
)

// Scorer runs the rubric. A nil client skips the model-backed checks and
// grants them full credit, so scoring stays usable offline.
type Scorer struct {
	client llm.Client
	logger zerolog.Logger
}

func NewScorer(client llm.Client, logger zerolog.Logger) *Scorer {
	return &Scorer{
		client: client,
		logger: logger.With().Str("component", "quality").Logger(),
	}
}

// ScoreScript runs every rubric check against the script and returns the
// aggregate score. Rule checks never touch the network; the six judgment
// checks call the model and fall back to full credit when it is
// unreachable or returns garbage, so a flaky model can only ever help a
// script, never sink it.
func (s *Scorer) ScoreScript(ctx context.Context, text string) Score {
	if strings.TrimSpace(text) == "" {
		return Score{Total: 0, Breakdown: map[Category]int{}, Issues: []Issue{}, Passed: false}
	}

	points := make(map[string]int)
	issues := []Issue{}

	issues = append(issues, s.checkStructure(text, points)...)
	issues = append(issues, s.checkTiming(text, points)...)
	issues = append(issues, s.checkVisualCues(text, points)...)
	issues = append(issues, s.checkIVQDetails(text, points)...)
	issues = append(issues, s.checkWithModel(ctx, text, points)...)

	total := 0
	breakdown := make(map[Category]int)
	for _, group := range rubric {
		sum := 0
		for _, c := range group.checks {
			sum += points[c.ID]
		}
		breakdown[group.category] = sum
		total += sum
	}
	if total > TotalPossible {
		total = TotalPossible
	}
	if total < 0 {
		total = 0
	}

	s.logger.Debug().
		Int("total", total).
		Int("issues", len(issues)).
		Bool("passed", total >= PassingScore).
		Msg("scored script")

	return Score{
		Total:     total,
		Breakdown: breakdown,
		Issues:    issues,
		Passed:    total >= PassingScore,
	}
}

// structureSections maps structure checks to the canonical section each
// one requires.
var structureSections = []struct {
	checkID string
	section script.Section
}{
	{"has_hook", script.SectionHook},
	{"has_objective", script.SectionObjective},
	{"has_content", script.SectionContent},
	{"has_ivq", script.SectionIVQ},
	{"has_summary", script.SectionSummary},
	{"has_cta", script.SectionCTA},
}

func (s *Scorer) checkStructure(text string, points map[string]int) []Issue {
	present := make(map[script.Section]bool)
	for _, section := range script.PresentSections(text) {
		present[section] = true
	}

	var issues []Issue
	for _, sc := range structureSections {
		pts := checkPoints(sc.checkID)
		if present[sc.section] {
			points[sc.checkID] = pts
			continue
		}
		points[sc.checkID] = 0
		name := string(sc.section)
		issues = append(issues, newIssue(
			SeverityCritical, CategoryStructure,
			fmt.Sprintf("Missing %s section", name),
			fmt.Sprintf("Script is missing a ## %s section header.", name),
			"global",
			fmt.Sprintf("Add a ## %s section with appropriate content.", name),
			pts,
		))
	}
	return issues
}

func (s *Scorer) checkTiming(text string, points map[string]int) []Issue {
	var issues []Issue
	sections := script.SplitSections(text)

	hookWords := script.WordCount(sections[script.SectionHook])
	if hookWords >= 50 && hookWords <= 100 {
		points["hook_duration"] = checkPoints("hook_duration")
	} else if strings.TrimSpace(sections[script.SectionHook]) != "" {
		points["hook_duration"] = 0
		direction, action := "short", "Expand"
		if hookWords > 100 {
			direction, action = "long", "Trim"
		}
		issues = append(issues, newIssue(
			SeverityWarning, CategoryTiming,
			fmt.Sprintf("Hook is too %s (%d words)", direction, hookWords),
			fmt.Sprintf("Hook should be 50-100 words (30-60 seconds). Currently %d words.", hookWords),
			"HOOK",
			fmt.Sprintf("%s the HOOK section to 50-100 words.", action),
			checkPoints("hook_duration"),
		))
	}

	contentWords := script.WordCount(sections[script.SectionContent])
	if contentWords <= 900 {
		points["content_duration"] = checkPoints("content_duration")
	} else {
		points["content_duration"] = 0
		issues = append(issues, newIssue(
			SeverityWarning, CategoryTiming,
			fmt.Sprintf("Content too long (%d words, ~%.0f min)", contentWords, float64(contentWords)/150),
			fmt.Sprintf("Content should be under 900 words (<6 minutes). Currently %d words.", contentWords),
			"CONTENT",
			"Trim the CONTENT section. Remove tangential examples or split into multiple videos.",
			checkPoints("content_duration"),
		))
	}

	totalWords := script.WordCount(text)
	if totalWords <= 1500 {
		points["total_duration"] = checkPoints("total_duration")
	} else {
		points["total_duration"] = 0
		issues = append(issues, newIssue(
			SeverityWarning, CategoryTiming,
			fmt.Sprintf("Script too long (%d words, ~%.0f min)", totalWords, float64(totalWords)/150),
			fmt.Sprintf("Total should be under 1500 words (<10 minutes). Currently %d words.", totalWords),
			"global",
			"Reduce overall script length. Focus on essential content.",
			checkPoints("total_duration"),
		))
	}

	return issues
}

func (s *Scorer) checkVisualCues(text string, points map[string]int) []Issue {
	count := len(screenCueRe.FindAllString(text, -1))
	if count >= 3 {
		points["visual_cues"] = checkPoints("visual_cues")
		return nil
	}
	points["visual_cues"] = 0
	return []Issue{newIssue(
		SeverityWarning, CategoryQuality,
		fmt.Sprintf("Only %d visual cues found", count),
		"Scripts should have at least 3 [SCREEN: ...] cues for visual direction.",
		"global",
		"Add [SCREEN: ...] cues to indicate what should be shown on screen.",
		checkPoints("visual_cues"),
	)}
}

func (s *Scorer) checkIVQDetails(text string, points map[string]int) []Issue {
	var issues []Issue

	options := len(ivqOptionRe.FindAllString(text, -1))
	if options >= 4 {
		points["ivq_4_options"] = checkPoints("ivq_4_options")
	} else {
		points["ivq_4_options"] = 0
		if options > 0 {
			issues = append(issues, newIssue(
				SeverityWarning, CategoryQuality,
				fmt.Sprintf("IVQ has only %d options (need 4)", options),
				"In-video questions should have exactly 4 options (A through D).",
				"IVQ",
				"Add options A) through D) to the IVQ section.",
				checkPoints("ivq_4_options"),
			))
		}
	}

	feedback := len(ivqFeedbackRe.FindAllString(text, -1))
	if feedback >= 3 {
		points["ivq_feedback"] = checkPoints("ivq_feedback")
	} else {
		points["ivq_feedback"] = 0
		if hasIVQSection(text) {
			issues = append(issues, newIssue(
				SeverityWarning, CategoryQuality,
				"IVQ missing feedback for answer options",
				"IVQ should have **Feedback A/B/C/D:** lines explaining why each option is correct or incorrect.",
				"IVQ",
				"Add **Feedback A:** through **Feedback D:** lines to the IVQ section.",
				checkPoints("ivq_feedback"),
			))
		}
	}

	return issues
}

func hasIVQSection(text string) bool {
	for _, section := range script.PresentSections(text) {
		if section == script.SectionIVQ {
			return true
		}
	}
	return false
}

// modelCheck describes one judgment check the model answers.
type modelCheck struct {
	id       string
	category Category
	location string
	fix      string
}

// For no_sequential_refs a found=true verdict is the problem; for every
// other check found=false is.
var modelChecks = []modelCheck{
	{
		id:       "hook_anecdote",
		category: CategoryQuality,
		location: "HOOK",
		fix:      "Add a personal anecdote, real-world scenario, or relatable story to the HOOK section.",
	},
	{
		id:       "blooms_verbs",
		category: CategoryQuality,
		location: "OBJECTIVE",
		fix:      "Use measurable Bloom's verbs in objectives: define, apply, analyze, create, evaluate.",
	},
	{
		id:       "has_examples",
		category: CategoryQuality,
		location: "CONTENT",
		fix:      "Add concrete examples with specific numbers, names, or real scenarios in the CONTENT.",
	},
	{
		id:       "no_sequential_refs",
		category: CategoryQuality,
		location: "global",
		fix:      "Remove references to other videos/modules. Each video should stand alone.",
	},
	{
		id:       "consistent_terminology",
		category: CategoryPolish,
		location: "global",
		fix:      "Pick one term for each concept and use it consistently throughout.",
	},
	{
		id:       "active_voice",
		category: CategoryPolish,
		location: "global",
		fix:      "Rewrite passive constructions in active voice (e.g., \"The model is trained\" → \"We train the model\").",
	},
}

// modelVerdict is one entry of the model's answer.
type modelVerdict struct {
	CheckID string `json:"check_id" jsonschema_description:"One of the six check ids from the instructions."`
	Found   bool   `json:"found" jsonschema_description:"Whether the condition asked about was found in the script."`
	Detail  string `json:"detail" jsonschema_description:"Specific explanation grounded in the script text."`
}

// modelReport wraps the verdict list so structured-output providers can
// enforce an object-rooted schema.
type modelReport struct {
	Checks []modelVerdict `json:"checks" jsonschema_description:"One verdict per check id."`
}

const maxPromptRunes = 4000

// checkWithModel scores the six judgment checks. Any failure along the
// way, transport or parse, grants full credit for whatever is still
// unscored: the model gets the benefit of the doubt, not the last word.
func (s *Scorer) checkWithModel(ctx context.Context, text string, points map[string]int) []Issue {
	grantRemaining := func() {
		for _, mc := range modelChecks {
			if _, ok := points[mc.id]; !ok {
				points[mc.id] = checkPoints(mc.id)
			}
		}
	}

	if s.client == nil {
		grantRemaining()
		return nil
	}

	excerpt := text
	if runes := []rune(excerpt); len(runes) > maxPromptRunes {
		excerpt = string(runes[:maxPromptRunes])
	}
	prompt := fmt.Sprintf(modelCheckUserPrompt, excerpt)

	verdicts, err := s.requestVerdicts(ctx, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Msg("model quality check failed, granting full credit")
		grantRemaining()
		return nil
	}

	var issues []Issue
	for _, v := range verdicts {
		mc, ok := lookupModelCheck(v.CheckID)
		if !ok {
			continue
		}
		problem := v.Found
		if mc.id != "no_sequential_refs" {
			problem = !v.Found
		}
		if !problem {
			points[mc.id] = checkPoints(mc.id)
			continue
		}
		points[mc.id] = 0
		issues = append(issues, newIssue(
			SeverityWarning, mc.category,
			checkLabel(mc.id),
			v.Detail,
			mc.location,
			mc.fix,
			checkPoints(mc.id),
		))
	}

	// Checks the model left unanswered keep their full credit.
	grantRemaining()
	return issues
}

func lookupModelCheck(id string) (modelCheck, bool) {
	for _, mc := range modelChecks {
		if mc.id == id {
			return mc, true
		}
	}
	return modelCheck{}, false
}

func (s *Scorer) requestVerdicts(ctx context.Context, prompt string) ([]modelVerdict, error) {
	if sg, ok := s.client.(llm.StructuredGenerator); ok {
		var report modelReport
		err := sg.GenerateStructured(ctx, modelCheckSystemPrompt, prompt, "quality_checks", &report,
			llm.WithMaxTokens(1500))
		if err != nil {
			return nil, err
		}
		return report.Checks, nil
	}

	raw, err := s.client.Generate(ctx, modelCheckSystemPrompt, prompt, llm.WithMaxTokens(1500))
	if err != nil {
		return nil, err
	}
	return parseVerdicts(raw)
}

// parseVerdicts accepts the bare JSON array the prompt asks for, with or
// without a markdown fence around it.
func parseVerdicts(raw string) ([]modelVerdict, error) {
	cleaned := stripFence(raw)
	var verdicts []modelVerdict
	if err := json.Unmarshal([]byte(cleaned), &verdicts); err != nil {
		return nil, fmt.Errorf("parsing quality check response: %w", err)
	}
	return verdicts, nil
}

// stripFence removes a wrapping markdown code fence, if present, and
// trims surrounding whitespace.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) >= 2 {
			s = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	return strings.TrimSpace(s)
}
