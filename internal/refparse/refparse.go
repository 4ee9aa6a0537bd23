// Package refparse splits a segmented bibliography into individual
// references and extracts structured fields from each entry. Extraction is
// deterministic and best-effort: a field that no rule matches stays absent,
// and an entry with zero extractable fields is still retained so reviewers
// see it rather than silently losing it.
package refparse

import (
	"regexp"
	"strings"
)

// Reference is one parsed bibliography entry. Fields are never mutated
// after parsing; validation outcomes attach elsewhere.
type Reference struct {
	Number  int      `json:"number"`
	RawText string   `json:"raw_text"`
	Authors []string `json:"authors,omitempty"`
	Title   string   `json:"title,omitempty"`
	Year    string   `json:"year,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	URLs    []string `json:"urls,omitempty"`
}

// Entries shorter than this are treated as splitting noise (stray page
// numbers, orphaned line fragments) and dropped.
const minEntryChars = 10

// Entry markers tried in order; the first pattern that matches anywhere in
// the segment is used to split the whole segment.
var markerRes = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*\[\d+\]\s*`),
	regexp.MustCompile(`(?m)^\s*\d+\.\s+`),
	regexp.MustCompile(`(?m)^\s*\(\d+\)\s*`),
}

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// Parse splits the bibliography segment into references and extracts the
// structured fields of each. Numbers are assigned by output position,
// 1-based.
func Parse(seg string) []Reference {
	blocks := splitEntries(seg)
	refs := make([]Reference, 0, len(blocks))
	for _, block := range blocks {
		refs = append(refs, ParseEntry(len(refs)+1, block))
	}
	return refs
}

// ParseEntry extracts fields from one entry's text. RawText keeps the
// original block for audit; extraction runs over a whitespace-joined copy.
func ParseEntry(number int, block string) Reference {
	ref := Reference{Number: number, RawText: strings.TrimSpace(block)}
	text := strings.Join(strings.Fields(block), " ")

	ref.DOI = extractDOI(text)
	ref.URLs = extractURLs(text, ref.DOI)
	ref.Year = extractYear(text)

	clean := stripLinks(text)
	ref.Title = extractTitle(clean)
	ref.Authors = extractAuthors(clean, ref.Title, ref.Year)
	return ref
}

// splitEntries delimits entries by leading numeric or bracketed markers,
// falling back to blank-line paragraphs when no marker style is detectable.
func splitEntries(seg string) []string {
	for _, re := range markerRes {
		locs := re.FindAllStringIndex(seg, -1)
		if len(locs) == 0 {
			continue
		}
		var blocks []string
		// Anything before the first marker is the first entry when present.
		if lead := strings.TrimSpace(seg[:locs[0][0]]); lead != "" {
			blocks = append(blocks, lead)
		}
		for i, loc := range locs {
			end := len(seg)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			blocks = append(blocks, strings.TrimSpace(seg[loc[1]:end]))
		}
		return filterEntries(blocks)
	}
	return filterEntries(blankLineRe.Split(seg, -1))
}

func filterEntries(blocks []string) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		b = strings.TrimSpace(b)
		if len(b) >= minEntryChars {
			out = append(out, b)
		}
	}
	return out
}

// Surname returns the part used for author lookups: the text before the
// comma in "Last, F. M." style names, otherwise the first word.
func Surname(name string) string {
	if i := strings.Index(name, ","); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
