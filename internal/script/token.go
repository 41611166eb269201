package script

import (
	"bufio"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Section names one of the canonical WWHAA+IVQ parts of a script.
type Section string

const (
	SectionHook      Section = "HOOK"
	SectionObjective Section = "OBJECTIVE"
	SectionContent   Section = "CONTENT"
	SectionIVQ       Section = "IVQ"
	SectionSummary   Section = "SUMMARY"
	SectionCTA       Section = "CTA"
)

// Sections lists the canonical sections in script order.
var Sections = []Section{
	SectionHook,
	SectionObjective,
	SectionContent,
	SectionIVQ,
	SectionSummary,
	SectionCTA,
}

// TokenKind discriminates the line-level tokens of the script grammar.
type TokenKind int

const (
	KindText      TokenKind = iota // prose line
	KindSection                    // ##/### header naming a canonical section
	KindHeading                    // any other ##/### header
	KindCode                       // fenced code block, collapsed to one token
	KindBoldLabel                  // "**Label:** rest" line
	KindBoldLine                   // "**text**" alone on a line
	KindBracket                    // "[cue]" alone on a line
	KindOption                     // "A) choice" answer line
	KindTableRow                   // "|...|" markdown table row
	KindBlank                      // empty line, separates paragraphs
	KindCellBreak                  // "--- CELL BREAK ---" separator
)

// Token is one lexed line of a script (code fences collapse into a single
// token). Raw preserves the stripped source text so consumers can rebuild
// prose verbatim; for code tokens Raw is the fence body without markers.
type Token struct {
	Kind    TokenKind
	Raw     string
	Section Section // KindSection
	Text    string  // header title, bold text, bracket body, option text or prose
	Label   string  // KindBoldLabel: the text before the colon
	Rest    string  // KindBoldLabel: the text after the closing **
	Letter  string  // KindOption
	Lang    string  // KindCode
}

var (
	headerRe    = regexp.MustCompile(`^#{2,3}\s+(.+)$`)
	boldLabelRe = regexp.MustCompile(`^\*\*([^*]+?):\*\*\s*(.+)$`)
	boldLineRe  = regexp.MustCompile(`^\*\*([^*]+)\*\*\s*$`)
	bracketRe   = regexp.MustCompile(`^\[(.+)\]$`)
	optionRe    = regexp.MustCompile(`^([A-D])\)\s+(.+)$`)
)

var sectionAliases = []struct {
	keyword string
	section Section
}{
	{"HOOK", SectionHook},
	{"OBJECTIVE", SectionObjective},
	{"CONTENT", SectionContent},
	{"SUMMARY", SectionSummary},
	{"CALL TO ACTION", SectionCTA},
	{"CTA", SectionCTA},
	{"IN-VIDEO QUESTION", SectionIVQ},
	{"IVQ", SectionIVQ},
}

// MatchSection reports whether a header title names a canonical section.
// The keyword must stand alone or be followed by a separator: a colon, a
// tab, or a space and then punctuation. "HOOK — The Slow Query" names
// HOOK; "Summary of Results" is prose and names nothing.
func MatchSection(header string) (Section, bool) {
	upper := strings.ToUpper(strings.TrimSpace(header))
	if strings.Contains(upper, "IN-VIDEO") {
		return SectionIVQ, true
	}
	for _, alias := range sectionAliases {
		if keywordDelimited(upper, alias.keyword) {
			return alias.section, true
		}
	}
	return "", false
}

func keywordDelimited(s, keyword string) bool {
	if !strings.HasPrefix(s, keyword) {
		return false
	}
	rest := s[len(keyword):]
	if rest == "" {
		return true
	}
	switch rest[0] {
	case ':', '\t':
		return true
	case ' ':
		// "HOOK — Intro" and "IVQ 1" are sections; "Summary of Results"
		// is prose that merely begins with a keyword.
		r, _ := utf8.DecodeRuneInString(strings.TrimLeft(rest, " "))
		return r != utf8.RuneError && !unicode.IsLetter(r)
	}
	return false
}

// Tokenize lexes a markdown script into line-level tokens. Lines are
// stripped of surrounding whitespace except inside code fences, which
// keep their indentation.
func Tokenize(script string) []Token {
	var tokens []Token
	var code []string
	var codeLang string
	inCode := false

	scanner := bufio.NewScanner(strings.NewReader(script))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		stripped := strings.TrimSpace(line)

		if inCode {
			if strings.HasPrefix(stripped, "```") {
				body := strings.Join(code, "\n")
				tokens = append(tokens, Token{Kind: KindCode, Raw: body, Text: body, Lang: codeLang})
				inCode = false
				code = code[:0]
				continue
			}
			code = append(code, line)
			continue
		}

		switch {
		case strings.HasPrefix(stripped, "---") && strings.Contains(strings.ToUpper(stripped), "CELL BREAK"):
			tokens = append(tokens, Token{Kind: KindCellBreak, Raw: stripped})
		case strings.HasPrefix(stripped, "```"):
			inCode = true
			codeLang = strings.TrimSpace(strings.TrimPrefix(stripped, "```"))
		case stripped == "":
			tokens = append(tokens, Token{Kind: KindBlank})
		default:
			tokens = append(tokens, classifyLine(stripped))
		}
	}

	// An unterminated fence keeps its buffered code instead of dropping it.
	if inCode && len(code) > 0 {
		body := strings.Join(code, "\n")
		tokens = append(tokens, Token{Kind: KindCode, Raw: body, Text: body, Lang: codeLang})
	}
	return tokens
}

func classifyLine(stripped string) Token {
	if m := headerRe.FindStringSubmatch(stripped); m != nil {
		title := strings.TrimSpace(m[1])
		if section, ok := MatchSection(title); ok {
			return Token{Kind: KindSection, Raw: stripped, Section: section, Text: title}
		}
		return Token{Kind: KindHeading, Raw: stripped, Text: title}
	}
	// BoldLine first: "**Correct Answer:**" with nothing after the bold is
	// a bold line, not a labeled field.
	if m := boldLineRe.FindStringSubmatch(stripped); m != nil {
		return Token{Kind: KindBoldLine, Raw: stripped, Text: strings.TrimSpace(m[1])}
	}
	if m := boldLabelRe.FindStringSubmatch(stripped); m != nil {
		return Token{Kind: KindBoldLabel, Raw: stripped, Label: m[1], Rest: strings.TrimSpace(m[2])}
	}
	if m := bracketRe.FindStringSubmatch(stripped); m != nil {
		return Token{Kind: KindBracket, Raw: stripped, Text: strings.TrimSpace(m[1])}
	}
	if m := optionRe.FindStringSubmatch(stripped); m != nil {
		return Token{Kind: KindOption, Raw: stripped, Letter: m[1], Text: m[2]}
	}
	if strings.HasPrefix(stripped, "|") && strings.HasSuffix(stripped, "|") {
		return Token{Kind: KindTableRow, Raw: stripped}
	}
	return Token{Kind: KindText, Raw: stripped, Text: stripped}
}

// PresentSections returns the canonical sections that appear in the
// script, in first-appearance order.
func PresentSections(script string) []Section {
	seen := make(map[Section]bool)
	var out []Section
	for _, tok := range Tokenize(script) {
		if tok.Kind == KindSection && !seen[tok.Section] {
			seen[tok.Section] = true
			out = append(out, tok.Section)
		}
	}
	return out
}

// SplitSections buckets the raw lines of a script by canonical section.
// Sub-headers that do not name a canonical section stay inside the
// enclosing section, a repeated section merges with its earlier text, and
// anything before the first section header is dropped.
func SplitSections(script string) map[Section]string {
	sections := make(map[Section]string)
	var current Section
	var lines []string

	flush := func() {
		if current == "" {
			lines = lines[:0]
			return
		}
		text := strings.Join(lines, "\n")
		if existing, ok := sections[current]; ok && existing != "" {
			text = existing + "\n" + text
		}
		sections[current] = text
		lines = lines[:0]
	}

	scanner := bufio.NewScanner(strings.NewReader(script))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := headerRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if section, ok := MatchSection(strings.TrimSpace(m[1])); ok {
				flush()
				current = section
				continue
			}
		}
		if current != "" {
			lines = append(lines, line)
		}
	}
	flush()
	return sections
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
