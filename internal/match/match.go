// Package match compares a parsed reference against content extracted from
// a fetched page, producing a 0..100 title similarity and a per-author
// found list.
package match

import (
	"strings"

	"github.com/hyperifyio/refcheck/internal/refparse"
	"github.com/hyperifyio/refcheck/internal/similarity"
)

// Result is one fetch-and-score outcome for a candidate URL.
type Result struct {
	URL           string   `json:"url"`
	FinalURL      string   `json:"final_url,omitempty"`
	StatusCode    int      `json:"status_code,omitempty"`
	TitleMatch    int      `json:"title_match"`
	AuthorsFound  int      `json:"authors_found"`
	AuthorMatches []string `json:"author_matches,omitempty"`
}

// StrongMatchThreshold is advisory guidance for callers: scores at or above
// it are presented as strong matches, but nothing is auto-rejected below it.
const StrongMatchThreshold = 85

// Evaluate scores a page against the reference. An empty or unparseable
// page yields zero scores, never an error.
func Evaluate(ref refparse.Reference, page Page) Result {
	res := Result{}

	if ref.Title != "" {
		if best := page.BestTitle(); best != "" {
			res.TitleMatch = similarity.Score(ref.Title, best)
		}
	}

	normText := similarity.Normalize(page.Text)
	for _, author := range ref.Authors {
		if authorOnPage(author, page.MetaAuthors, normText) {
			res.AuthorsFound++
			res.AuthorMatches = append(res.AuthorMatches, author)
		}
	}
	return res
}

// authorOnPage checks citation_author metadata first (fuzzy whole-name
// comparison), then falls back to a surname scan over the page text.
func authorOnPage(author string, metaAuthors []string, normText string) bool {
	for _, meta := range metaAuthors {
		if similarity.Score(author, meta) > 80 {
			return true
		}
	}
	surname := similarity.Normalize(refparse.Surname(author))
	if surname == "" || normText == "" {
		return false
	}
	return strings.Contains(normText, surname)
}
