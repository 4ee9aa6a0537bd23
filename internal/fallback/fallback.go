// Package fallback finds candidate sources for references that carry no
// URL: it queries a search provider with title and author terms, fetches
// the top hits, and ranks them with the content matcher.
package fallback

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/refcheck/internal/match"
	"github.com/hyperifyio/refcheck/internal/refparse"
	"github.com/hyperifyio/refcheck/internal/resolve"
	"github.com/hyperifyio/refcheck/internal/search"
	"github.com/hyperifyio/refcheck/internal/similarity"
)

const defaultMaxResults = 5

// Titles longer than this contribute only their head to the query.
const maxQueryTitleChars = 100

// Searcher runs the search-and-rank fallback for one reference at a time.
type Searcher struct {
	Provider search.Provider
	Resolver *resolve.Client
	// MaxResults caps how many hits are fetched and scored (default 5).
	MaxResults int
	// Delay is waited before each candidate-page fetch, including the
	// first one after the provider request; the orchestrator passes its
	// configured inter-request delay here so rate policy stays uniform.
	Delay time.Duration
}

// Run searches for the reference and returns candidate matches sorted by
// descending title_match, then descending authors_found; remaining ties
// keep the search engine's own ranking. A provider failure returns an
// error wrapping search.ErrUnavailable; callers treat it as non-fatal.
func (s *Searcher) Run(ctx context.Context, ref refparse.Reference) ([]match.Result, error) {
	if s.Provider == nil {
		return nil, fmt.Errorf("no provider configured: %w", search.ErrUnavailable)
	}
	query := BuildQuery(ref)
	if query == "" {
		return nil, nil
	}
	limit := s.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	hits, err := s.Provider.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", s.Provider.Name(), err)
	}

	results := make([]match.Result, 0, len(hits))
	for _, hit := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// The provider request itself counts against the rate policy, so
		// even the first candidate fetch waits out the delay.
		if s.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.Delay):
			}
		}
		results = append(results, s.scoreHit(ctx, ref, hit))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TitleMatch != results[j].TitleMatch {
			return results[i].TitleMatch > results[j].TitleMatch
		}
		return results[i].AuthorsFound > results[j].AuthorsFound
	})
	return results, nil
}

// scoreHit fetches the candidate page and evaluates it against the
// reference. When the page cannot be fetched, the hit's own title and
// snippet are scored instead so the candidate still ranks.
func (s *Searcher) scoreHit(ctx context.Context, ref refparse.Reference, hit search.Result) match.Result {
	if s.Resolver != nil {
		out := s.Resolver.Resolve(ctx, hit.URL)
		if out.Accessible() {
			res := match.Evaluate(ref, match.ParsePage(out.Body))
			res.URL = hit.URL
			res.FinalURL = out.FinalURL
			res.StatusCode = out.StatusCode
			return res
		}
		log.Debug().Str("url", hit.URL).Str("reason", out.Reason).Msg("candidate fetch failed; scoring snippet")
	}
	return snippetScore(ref, hit)
}

// snippetScore approximates a match from search metadata alone.
func snippetScore(ref refparse.Reference, hit search.Result) match.Result {
	res := match.Result{URL: hit.URL}
	if ref.Title != "" {
		res.TitleMatch = similarity.Score(ref.Title, hit.Title)
		if snip := similarity.Score(ref.Title, hit.Snippet); snip > res.TitleMatch {
			res.TitleMatch = snip
		}
	}
	haystack := similarity.Normalize(hit.Title + " " + hit.Snippet)
	for _, author := range ref.Authors {
		surname := similarity.Normalize(refparse.Surname(author))
		if surname != "" && strings.Contains(haystack, surname) {
			res.AuthorsFound++
			res.AuthorMatches = append(res.AuthorMatches, author)
		}
	}
	return res
}

// Surnames beyond this many add noise, not precision, to a search query.
const maxQuerySurnames = 3

// BuildQuery assembles the search query from the reference: title head,
// author surnames, and year, whichever are present.
func BuildQuery(ref refparse.Reference) string {
	var parts []string
	if ref.Title != "" {
		title := ref.Title
		if len(title) > maxQueryTitleChars {
			title = title[:maxQueryTitleChars]
		}
		parts = append(parts, title)
	}
	for i, author := range ref.Authors {
		if i >= maxQuerySurnames {
			break
		}
		if surname := refparse.Surname(author); surname != "" {
			parts = append(parts, surname)
		}
	}
	if ref.Year != "" {
		parts = append(parts, ref.Year)
	}
	return strings.Join(parts, " ")
}
