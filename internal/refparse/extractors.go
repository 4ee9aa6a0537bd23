package refparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field extraction is an ordered list of independent rules per field,
// combined by first success, so each rule stays testable on its own.

const trailingPunct = ".,;:)]}"

var (
	doiPrefixedRe = regexp.MustCompile(`(?i)(?:doi[:\s]\s*|https?://(?:dx\.)?doi\.org/)(10\.\d+(?:\.\d+)*/[^\s"'<>,;]+)`)
	doiBareRe     = regexp.MustCompile(`\b(10\.\d+(?:\.\d+)*/[^\s"'<>,;]+)`)

	urlRe = regexp.MustCompile(`https?://[^\s<>"\)\]]+`)

	parenYearRe = regexp.MustCompile(`\(((?:19|20)\d{2})\)`)
	bareYearRe  = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

	quotedTitleRes = []*regexp.Regexp{
		regexp.MustCompile(`"([^"]{4,})"`),
		regexp.MustCompile(`“([^”]{4,})”`),
		regexp.MustCompile("``([^`']{4,})''"),
	}

	// "Last, F. M." style author names, possibly multi-word surnames.
	authorInitialsRe = regexp.MustCompile(`([A-Z][A-Za-z'’\-]+(?:\s+[A-Z][A-Za-z'’\-]+)*)\s*,\s*((?:[A-Z]\.[\s\-]*)+)`)
	authorAndSplitRe = regexp.MustCompile(`\s+and\s+|\s*&\s*`)
	initialsLeadRe   = regexp.MustCompile(`^[A-Z]\s*\.\s*[A-Z]`)
)

const maxAuthors = 10

// extractDOI returns the bare normalized DOI or empty. Prefixed forms
// (doi:, doi.org URLs) win over a bare token.
func extractDOI(text string) string {
	for _, re := range []*regexp.Regexp{doiPrefixedRe, doiBareRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimRight(m[1], trailingPunct)
		}
	}
	return ""
}

// extractURLs collects all http(s) tokens, deduplicated in insertion order,
// with the canonical DOI URL prepended when a DOI is present.
func extractURLs(text, doi string) []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		u = strings.TrimRight(u, trailingPunct)
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	if doi != "" {
		add("https://doi.org/" + doi)
	}
	for _, u := range urlRe.FindAllString(text, -1) {
		add(u)
	}
	return urls
}

// extractYear returns the first 4-digit token in [1900, current year + 1],
// preferring a parenthesized year over a bare one.
func extractYear(text string) string {
	maxYear := time.Now().Year() + 1
	for _, re := range []*regexp.Regexp{parenYearRe, bareYearRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			y, err := strconv.Atoi(m[1])
			if err == nil && y >= 1900 && y <= maxYear {
				return m[1]
			}
		}
	}
	return ""
}

// stripLinks removes URL and DOI tokens so they cannot pollute title and
// author heuristics.
func stripLinks(text string) string {
	text = urlRe.ReplaceAllString(text, "")
	text = doiPrefixedRe.ReplaceAllString(text, "")
	text = doiBareRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// extractTitle tries quoted titles first, then the longest early sentence
// that does not look like an author list. Inherently approximate: no single
// rule wins across citation styles.
func extractTitle(clean string) string {
	for _, re := range quotedTitleRes {
		if m := re.FindStringSubmatch(clean); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, part := range strings.Split(clean, ".") {
		part = strings.TrimSpace(part)
		if len(part) < 30 {
			continue
		}
		if initialsLeadRe.MatchString(part) {
			continue
		}
		return strings.TrimRight(part, trailingPunct)
	}
	return ""
}

// extractAuthors parses the author block: the text before the title when
// one was found, else before the year token, else the whole entry. The
// "Last, F. M." rule wins; an and/&-separated name split is the fallback.
func extractAuthors(clean, title, year string) []string {
	region := clean
	if title != "" {
		if i := strings.Index(clean, title); i > 0 {
			region = clean[:i]
		}
	} else if year != "" {
		if i := strings.Index(clean, year); i > 0 {
			region = clean[:i]
		}
	}

	var authors []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(strings.Trim(name, ",."))
		if name != "" && !seen[name] && len(authors) < maxAuthors {
			seen[name] = true
			authors = append(authors, name)
		}
	}

	for _, m := range authorInitialsRe.FindAllStringSubmatch(region, -1) {
		add(m[1] + ", " + strings.TrimSpace(m[2]))
	}
	if len(authors) > 0 {
		return authors
	}

	for _, part := range authorAndSplitRe.Split(region, -1) {
		part = strings.TrimSpace(strings.Trim(part, ",."))
		if len(part) <= 3 {
			continue
		}
		if r := part[0]; r < 'A' || r > 'Z' {
			continue
		}
		add(part)
	}
	return authors
}
