package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperifyio/refcheck/internal/app"
	"github.com/hyperifyio/refcheck/internal/match"
)

// writeJSONReport marshals the full job result. An empty path writes to
// stdout so the tool composes with jq and friends.
func writeJSONReport(result *app.JobResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// writeTextReport renders a human-readable summary, one block per
// reference.
func writeTextReport(result *app.JobResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	renderText(f, result)
	return f.Close()
}

func renderText(w io.Writer, result *app.JobResult) {
	fmt.Fprintf(w, "Reference check: %d references\n", len(result.References))
	fmt.Fprintln(w, strings.Repeat("=", 40))
	for _, ref := range result.References {
		fmt.Fprintf(w, "\n[%d] %s\n", ref.Number, ref.RawText)
		if len(ref.Authors) > 0 {
			fmt.Fprintf(w, "    authors: %s\n", strings.Join(ref.Authors, "; "))
		}
		if ref.Title != "" {
			fmt.Fprintf(w, "    title:   %s\n", ref.Title)
		}
		if ref.Year != "" {
			fmt.Fprintf(w, "    year:    %s\n", ref.Year)
		}
		if ref.DOI != "" {
			fmt.Fprintf(w, "    doi:     %s\n", ref.DOI)
		}
		v := ref.Validation
		if v == nil {
			fmt.Fprintln(w, "    not validated")
			continue
		}
		for _, u := range v.AccessibleURLs {
			fmt.Fprintf(w, "    OK   %s%s\n", u, matchNote(v.MatchResults, u))
		}
		for _, iu := range v.InaccessibleURLs {
			fmt.Fprintf(w, "    FAIL %s (%s)\n", iu.URL, iu.Reason)
		}
		if v.SearchPerformed {
			if len(v.SearchResults) == 0 {
				fmt.Fprintln(w, "    search: no candidates found")
			}
			for _, c := range v.SearchResults {
				fmt.Fprintf(w, "    candidate %s (title match %d, authors %d)\n", c.URL, c.TitleMatch, c.AuthorsFound)
			}
		}
	}
}

// matchNote formats the content score for an accessible URL when one was
// computed.
func matchNote(results []match.Result, url string) string {
	for _, r := range results {
		if r.URL == url {
			note := fmt.Sprintf(" (title match %d", r.TitleMatch)
			if r.AuthorsFound > 0 {
				note += fmt.Sprintf(", %d author(s) found", r.AuthorsFound)
			}
			if r.TitleMatch >= match.StrongMatchThreshold {
				note += ", strong match"
			}
			return note + ")"
		}
	}
	return ""
}
