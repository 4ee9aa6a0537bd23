// Package segment locates the bibliography section inside full document
// text. It scans a line-tokenized view of the document against a fixed
// vocabulary of section headings and terminators.
package segment

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNotFound is returned when no bibliography heading is present.
// Callers decide whether to fall back to Tail.
var ErrNotFound = errors.New("references section not found")

// headings are the section titles that open a bibliography.
var headings = []string{
	"references",
	"reference list",
	"bibliography",
	"works cited",
	"literature cited",
}

// terminators are top-level sections that end a bibliography.
var terminators = []string{
	"appendix",
	"appendices",
	"acknowledgments",
	"acknowledgements",
	"supplementary material",
	"supplementary materials",
	"supporting information",
	"about the authors",
	"author biographies",
	"index",
}

// numberingRe strips leading section numbering such as "7.", "VII." or "[7]"
// from a candidate heading line.
var numberingRe = regexp.MustCompile(`^(?:\[?\d{1,2}\]?|[ivxlc]{1,5})[.)]?\s+`)

// Find returns the substring of text believed to contain the bibliography.
// When several heading candidates exist, the last occurrence before the
// first terminator that follows any heading wins, which avoids matching
// in-text lines like a lone "References" in the body while ignoring
// heading-shaped lines inside appendices. The segment runs from the chosen
// heading to that terminator, or to the end of the document when no
// terminator exists.
func Find(text string) (string, error) {
	lines := strings.Split(text, "\n")
	start, end := -1, -1
	for i, line := range lines {
		if end >= 0 {
			break
		}
		if isHeading(line, headings) {
			start = i
			continue
		}
		if start >= 0 && isHeading(line, terminators) {
			end = i
		}
	}
	if start < 0 {
		return "", ErrNotFound
	}
	if end < 0 {
		end = len(lines)
	}
	seg := strings.TrimSpace(strings.Join(lines[start+1:end], "\n"))
	if seg == "" {
		return "", ErrNotFound
	}
	return seg, nil
}

// Tail returns the trailing fraction of the document (clamped to (0,1]).
// It exists for the orchestrator's opt-in fallback when Find fails; the
// segmenter itself never applies it.
func Tail(text string, fraction float64) string {
	if fraction <= 0 || fraction > 1 {
		fraction = 0.2
	}
	lines := strings.Split(text, "\n")
	from := int(float64(len(lines)) * (1 - fraction))
	if from >= len(lines) {
		from = len(lines) - 1
	}
	if from < 0 {
		from = 0
	}
	return strings.TrimSpace(strings.Join(lines[from:], "\n"))
}

// isHeading reports whether the line, ignoring case, surrounding whitespace,
// leading numbering, and a trailing colon or period, equals one of the
// vocabulary entries exactly.
func isHeading(line string, vocab []string) bool {
	s := strings.ToLower(strings.TrimSpace(line))
	s = numberingRe.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ":.")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return false
	}
	for _, h := range vocab {
		if s == h {
			return true
		}
	}
	return false
}
