// Package narrative checks generated horse summaries for the mechanical
// and stylistic faults the prompts forbid.
package narrative

import (
	"regexp"
	"strings"
)

// Issues, reported at most once each and always in this order.
const (
	IssueFormatting   = "formatting: write plain paragraphs with no bullets, numbered lists, headings, label lines, or em-dashes"
	IssueAdvice       = "advice: describe what happened without telling the rider what to do"
	IssueDatasetSpeak = "dataset-speak: write about the horse and the rides, not about data or records"
	IssueDateCount    = "too many dates: mention at most two specific dates"
	IssueDateLed      = "date-led sentences: stop opening sentences with dates and summarize instead"
)

// AdviceTerms are directive phrases a summary must not contain.
var AdviceTerms = []string{
	"should", "try", "recommend", "consider", "next time", "work on", "focus on", "aim to",
}

// DatasetTerms are words that make a summary read like a report on a
// spreadsheet.
var DatasetTerms = []string{
	"data", "dataset", "data points", "entries", "entry", "records", "rows",
	"metrics", "signals", "logged", "the log", "tracked", "statistics",
}

const (
	maxDateMentions  = 2
	maxDateLedOpener = 2
)

const monthDay = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?\s+\d{1,2}(?:st|nd|rd|th)?\b`

var (
	bulletLine   = regexp.MustCompile(`(?m)^\s*[-*•+]\s+`)
	numberedLine = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	headingLine  = regexp.MustCompile(`(?m)^\s*#{1,6}\s`)
	labelLine    = regexp.MustCompile(`(?m)^\s*[A-Z][A-Za-z ]{0,24}:(?:\s|$)`)

	adviceRe  = termsPattern(AdviceTerms)
	datasetRe = termsPattern(DatasetTerms)

	dateMention   = regexp.MustCompile(`(?i)\b` + monthDay + `|\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b|\b\d{4}-\d{2}-\d{2}\b`)
	dateOpener    = regexp.MustCompile(`(?i)^(?:on\s+|by\s+|from\s+)?(?:(?:mon|tues|wednes|thurs|fri|satur|sun)day,?\s+)?(?:` + monthDay + `|\d{1,2}/\d{1,2}|\d{4}-\d{2}-\d{2})`)
	sentenceBreak = regexp.MustCompile(`[.!?]+\s+|\n+`)

	stripPrefix = regexp.MustCompile(`^(\s*)(?:[-*•+]|\d+[.)]|#{1,6})\s+`)
	emDash      = regexp.MustCompile(`\s*—\s*`)
)

func termsPattern(terms []string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Result is the outcome of one validation pass.
type Result struct {
	Valid  bool
	Issues []string
}

// Validate checks text against every rule category. Several violations in
// one category still produce a single issue.
func Validate(text string) Result {
	var issues []string
	if hasFormatting(text) {
		issues = append(issues, IssueFormatting)
	}
	if adviceRe.MatchString(text) {
		issues = append(issues, IssueAdvice)
	}
	if datasetRe.MatchString(text) {
		issues = append(issues, IssueDatasetSpeak)
	}
	if len(dateMention.FindAllStringIndex(text, -1)) > maxDateMentions {
		issues = append(issues, IssueDateCount)
	}
	if dateLedSentences(text) > maxDateLedOpener {
		issues = append(issues, IssueDateLed)
	}
	return Result{Valid: len(issues) == 0, Issues: issues}
}

func hasFormatting(text string) bool {
	return bulletLine.MatchString(text) ||
		numberedLine.MatchString(text) ||
		headingLine.MatchString(text) ||
		labelLine.MatchString(text) ||
		strings.ContainsRune(text, '—')
}

func dateLedSentences(text string) int {
	n := 0
	for _, s := range sentenceBreak.Split(text, -1) {
		if dateOpener.MatchString(strings.TrimSpace(s)) {
			n++
		}
	}
	return n
}

// Strip removes bullet, heading, and numbering prefixes and turns em-dashes
// into commas. It only fixes mechanical formatting, so the result may still
// fail Validate. Strip(Strip(s)) == Strip(s).
func Strip(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for stripPrefix.MatchString(line) {
			line = stripPrefix.ReplaceAllString(line, "$1")
		}
		lines[i] = line
	}
	return emDash.ReplaceAllString(strings.Join(lines, "\n"), ", ")
}
