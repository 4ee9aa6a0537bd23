package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// FileProvider serves results from a local JSON file for offline runs and
// tests. The file holds an array of {"title", "url", "snippet"} objects.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("file provider path is empty")
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var raw []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(query))
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" || r.Title == "" {
			continue
		}
		if !anyTermMatches(terms, strings.ToLower(r.Title+" "+r.Snippet)) {
			continue
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet, Source: f.Name()})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// anyTermMatches keeps a result when any query term appears in it, or when
// the query is empty. Bibliographic queries are long; requiring every term
// would starve the fallback of candidates.
func anyTermMatches(terms []string, haystack string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}
