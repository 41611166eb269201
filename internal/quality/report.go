package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/p-blackswan/screencast-studio/internal/script"
)

// Report severities. These are a coarser vocabulary than Issue
// severities: the report is advisory output for a review pane, not
// rubric accounting.
const (
	reportError   = "error"
	reportWarning = "warning"
	reportInfo    = "info"
)

// ReportIssue is one advisory finding in a quality-check report.
type ReportIssue struct {
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	Suggestion  string `json:"suggestion"`
	AutoFixable bool   `json:"auto_fixable"`
}

// ReportIssues groups findings by check category. Every category is
// present in the JSON output even when empty.
type ReportIssues struct {
	Structure         []ReportIssue `json:"structure"`
	Timing            []ReportIssue `json:"timing"`
	Code              []ReportIssue `json:"code"`
	Clarity           []ReportIssue `json:"clarity"`
	Engagement        []ReportIssue `json:"engagement"`
	IVQ               []ReportIssue `json:"ivq"`
	Accessibility     []ReportIssue `json:"accessibility"`
	TechnicalAccuracy []ReportIssue `json:"technical_accuracy"`
}

// Report is the rule-based quality check: fast, offline, and read-only.
// It overlaps the rubric on purpose so it can run without a model.
type Report struct {
	TotalIssues int          `json:"total_issues"`
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
	Issues      ReportIssues `json:"issues"`
}

var (
	codeBlockRe    = regexp.MustCompile("(?s)```(?:python)?\n(.*?)```")
	anyIVQOptionRe = regexp.MustCompile(`[A-D]\)`)
)

// CheckScript runs every report check against the script. targetMinutes
// is the project's intended video length and drives the timing check.
func CheckScript(text string, targetMinutes int) Report {
	issues := ReportIssues{
		Structure:         checkReportStructure(text),
		Timing:            checkReportTiming(text, targetMinutes),
		Code:              checkReportCode(text),
		Clarity:           checkReportClarity(text),
		Engagement:        checkReportEngagement(text),
		IVQ:               checkReportIVQ(text),
		Accessibility:     []ReportIssue{},
		TechnicalAccuracy: []ReportIssue{},
	}

	report := Report{Issues: issues}
	for _, group := range [][]ReportIssue{
		issues.Structure, issues.Timing, issues.Code, issues.Clarity,
		issues.Engagement, issues.IVQ, issues.Accessibility, issues.TechnicalAccuracy,
	} {
		report.TotalIssues += len(group)
		for _, issue := range group {
			switch issue.Severity {
			case reportError:
				report.Errors++
			case reportWarning:
				report.Warnings++
			}
		}
	}
	return report
}

func checkReportStructure(text string) []ReportIssue {
	present := make(map[script.Section]bool)
	for _, section := range script.PresentSections(text) {
		present[section] = true
	}

	issues := []ReportIssue{}
	for _, section := range script.Sections {
		if present[section] {
			continue
		}
		issues = append(issues, ReportIssue{
			Severity:   reportError,
			Message:    fmt.Sprintf("Missing section: ## %s", section),
			Suggestion: fmt.Sprintf("Add ## %s section to your script", section),
		})
	}
	return issues
}

func checkReportTiming(text string, targetMinutes int) []ReportIssue {
	issues := []ReportIssue{}
	estMinutes := float64(script.WordCount(text)) / float64(script.WordsPerMinute)
	target := float64(targetMinutes)

	switch {
	case estMinutes > target*1.2:
		issues = append(issues, ReportIssue{
			Severity:   reportWarning,
			Message:    fmt.Sprintf("Script is ~%.1f min, target is %d min (too long)", estMinutes, targetMinutes),
			Suggestion: "Consider shortening CONTENT section",
		})
	case estMinutes < target*0.7:
		issues = append(issues, ReportIssue{
			Severity:   reportWarning,
			Message:    fmt.Sprintf("Script is ~%.1f min, target is %d min (too short)", estMinutes, targetMinutes),
			Suggestion: "Consider expanding CONTENT section with more examples",
		})
	}
	return issues
}

// checkReportCode validates fenced code blocks structurally: balanced
// fences and no empty blocks.
func checkReportCode(text string) []ReportIssue {
	issues := []ReportIssue{}
	if strings.Count(text, "```")%2 != 0 {
		issues = append(issues, ReportIssue{
			Severity:   reportError,
			Message:    "Unbalanced code fences",
			Suggestion: "Close every ``` code block with a matching ```",
		})
	}
	for i, m := range codeBlockRe.FindAllStringSubmatch(text, -1) {
		if strings.TrimSpace(m[1]) == "" {
			issues = append(issues, ReportIssue{
				Severity:   reportWarning,
				Message:    fmt.Sprintf("Code block %d is empty", i+1),
				Suggestion: "Add code to the block or remove it",
			})
		}
	}
	return issues
}

func checkReportClarity(text string) []ReportIssue {
	issues := []ReportIssue{}
	for _, para := range strings.Split(text, "\n\n") {
		words := script.WordCount(para)
		if words > 100 {
			issues = append(issues, ReportIssue{
				Severity:   reportWarning,
				Message:    fmt.Sprintf("Long paragraph (%d words)", words),
				Suggestion: "Break into smaller paragraphs or add [PAUSE] markers",
			})
		}
	}
	return issues
}

func checkReportEngagement(text string) []ReportIssue {
	issues := []ReportIssue{}
	if !strings.Contains(text, "[PAUSE]") {
		issues = append(issues, ReportIssue{
			Severity:   reportInfo,
			Message:    "No [PAUSE] markers found",
			Suggestion: "Add [PAUSE] markers after key outputs to let viewers absorb information",
		})
	}
	if cues := strings.Count(text, "[SCREEN:"); cues < 3 {
		issues = append(issues, ReportIssue{
			Severity:   reportInfo,
			Message:    fmt.Sprintf("Only %d visual cues found", cues),
			Suggestion: "Add more [SCREEN: ...] cues for visual direction",
		})
	}
	return issues
}

func checkReportIVQ(text string) []ReportIssue {
	issues := []ReportIssue{}
	if !hasIVQSection(text) {
		return append(issues, ReportIssue{
			Severity:   reportError,
			Message:    "No IVQ section found",
			Suggestion: "Add an in-video question section",
		})
	}
	if !anyIVQOptionRe.MatchString(text) {
		issues = append(issues, ReportIssue{
			Severity:   reportWarning,
			Message:    "IVQ section missing answer options (A-D)",
			Suggestion: "Add multiple choice options A) through D)",
		})
	}
	if !strings.Contains(text, "Correct Answer") {
		issues = append(issues, ReportIssue{
			Severity:   reportWarning,
			Message:    "IVQ missing correct answer indicator",
			Suggestion: "Add **Correct Answer:** line",
		})
	}
	return issues
}
