package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperifyio/refcheck/internal/progress"
	"github.com/hyperifyio/refcheck/internal/segment"
)

func TestRunParsesAndValidates(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="citation_title" content="A Study on Machine Learning Methods"></head><body>written by Smith</body></html>`)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer bad.Close()

	doc := "Body text about nothing in particular.\n\nReferences\n" +
		"[1] Smith, J. (2020). A Study on Machine Learning Methods. " + good.URL + "\n" +
		"[2] Doe, A. (2019). Another Work Entirely. " + bad.URL + "\n"

	a := New(Config{Timeout: DefaultConfig().Timeout, ValidateURLs: true})
	res, err := a.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.References) != 2 {
		t.Fatalf("got %d references, want 2", len(res.References))
	}

	first := res.References[0]
	if first.Validation == nil {
		t.Fatal("first reference has no validation result")
	}
	if len(first.Validation.AccessibleURLs) != 1 || first.Validation.AccessibleURLs[0] != good.URL {
		t.Fatalf("accessible urls = %v", first.Validation.AccessibleURLs)
	}
	if len(first.Validation.MatchResults) != 1 {
		t.Fatalf("match results = %v", first.Validation.MatchResults)
	}
	if m := first.Validation.MatchResults[0]; m.TitleMatch < 85 || m.AuthorsFound != 1 {
		t.Fatalf("title match %d, authors found %d", m.TitleMatch, m.AuthorsFound)
	}

	second := res.References[1]
	if second.Validation == nil {
		t.Fatal("second reference has no validation result")
	}
	if len(second.Validation.InaccessibleURLs) != 1 {
		t.Fatalf("inaccessible urls = %v", second.Validation.InaccessibleURLs)
	}
	if got := second.Validation.InaccessibleURLs[0]; got.StatusCode != http.StatusNotFound || got.Reason == "" {
		t.Fatalf("inaccessible = %+v", got)
	}

	// Every URL must land in exactly one bucket.
	for _, ref := range res.References {
		total := len(ref.Validation.AccessibleURLs) + len(ref.Validation.InaccessibleURLs)
		if total != len(ref.URLs) {
			t.Fatalf("reference %d: %d urls but %d classified", ref.Number, len(ref.URLs), total)
		}
	}
}

func TestRunSkipsValidationWhenDisabled(t *testing.T) {
	doc := "References\n[1] Smith, J. (2020). A Study. https://example.invalid/paper\n"
	a := New(Config{ValidateURLs: false})
	res, err := a.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.References) != 1 {
		t.Fatalf("got %d references, want 1", len(res.References))
	}
	if res.References[0].Validation != nil {
		t.Fatalf("validation should be nil when disabled, got %+v", res.References[0].Validation)
	}
}

func TestRunSearchesOnlyURLLessReferences(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Deep Convolutional Networks Revisited</title></head><body>Doe wrote this</body></html>`)
	}))
	defer page.Close()

	resultsPath := filepath.Join(t.TempDir(), "results.json")
	data := fmt.Sprintf(`[{"title":"Deep Convolutional Networks Revisited","url":"%s","snippet":"Doe 2019"}]`, page.URL)
	if err := os.WriteFile(resultsPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	linked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head><title>whatever</title></head></html>")
	}))
	defer linked.Close()

	doc := "References\n" +
		"[1] Smith, J. (2020). Linked Work. " + linked.URL + "\n" +
		"[2] Doe, A. (2019). Deep Convolutional Networks Revisited.\n"

	a := New(Config{ValidateURLs: true, EnableSearch: true, SearchFile: resultsPath})
	res, err := a.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	withURL := res.References[0].Validation
	if withURL.SearchPerformed || len(withURL.SearchResults) != 0 {
		t.Fatalf("reference with URL should not be searched: %+v", withURL)
	}

	noURL := res.References[1].Validation
	if !noURL.SearchPerformed {
		t.Fatal("reference without URL was not searched")
	}
	if len(noURL.SearchResults) != 1 {
		t.Fatalf("search results = %+v", noURL.SearchResults)
	}
	if m := noURL.SearchResults[0]; m.TitleMatch < 85 || m.AuthorsFound != 1 {
		t.Fatalf("search candidate scored %+v", m)
	}
}

func TestNewDefaults(t *testing.T) {
	a := New(Config{})
	if a.cfg.Timeout != DefaultConfig().Timeout {
		t.Fatalf("timeout = %v, want default %v", a.cfg.Timeout, DefaultConfig().Timeout)
	}
	if a.cfg.MaxSearchResults != DefaultConfig().MaxSearchResults {
		t.Fatalf("max search results = %d, want default %d", a.cfg.MaxSearchResults, DefaultConfig().MaxSearchResults)
	}
	// Zero delay is a deliberate choice, not an unset field.
	if a.cfg.Delay != 0 {
		t.Fatalf("delay = %v, want 0 as given", a.cfg.Delay)
	}
}

func TestRunPacesSearchRequests(t *testing.T) {
	resultsPath := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(resultsPath, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := "References\n" +
		"[1] Smith, J. (2020). First Unlinked Reference Entry.\n" +
		"[2] Doe, A. (2019). Second Unlinked Reference Entry.\n"

	delay := 50 * time.Millisecond
	a := New(Config{
		ValidateURLs: true,
		EnableSearch: true,
		SearchFile:   resultsPath,
		Delay:        delay,
	})

	start := time.Now()
	res, err := a.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, ref := range res.References {
		if ref.Validation == nil || !ref.Validation.SearchPerformed {
			t.Fatalf("reference %d not searched: %+v", ref.Number, ref.Validation)
		}
	}
	// No URLs were fetched, so the only pause is the one between the two
	// provider requests.
	if elapsed := time.Since(start); elapsed < delay {
		t.Fatalf("second search not paced: ran in %v, delay is %v", elapsed, delay)
	}
}

func TestRunSearchFailureIsNonFatal(t *testing.T) {
	doc := "References\n[1] Doe, A. (2019). Unfindable Work Of Note.\n"
	a := New(Config{
		ValidateURLs: true,
		EnableSearch: true,
		SearchFile:   filepath.Join(t.TempDir(), "missing.json"),
	})
	res, err := a.Run(context.Background(), doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	v := res.References[0].Validation
	if v == nil || !v.SearchPerformed {
		t.Fatalf("search not recorded: %+v", v)
	}
	if len(v.SearchResults) != 0 {
		t.Fatalf("expected no results, got %+v", v.SearchResults)
	}
}

func TestRunNoSectionFound(t *testing.T) {
	a := New(Config{})
	res, err := a.Run(context.Background(), "Just an abstract with no bibliography at all.")
	if !errors.Is(err, segment.ErrNotFound) {
		t.Fatalf("err = %v, want segment.ErrNotFound", err)
	}
	if res == nil || len(res.Events) == 0 {
		t.Fatal("expected partial result with events")
	}
	last := res.Events[len(res.Events)-1]
	if last.Stage != progress.StageFailed {
		t.Fatalf("last stage = %s, want %s", last.Stage, progress.StageFailed)
	}
}

func TestRunSegmentFallback(t *testing.T) {
	head := "Long body text.\n"
	for i := 0; i < 50; i++ {
		head += "Filler paragraph that is not a bibliography.\n"
	}
	tail := "[1] Smith, J. (2020). Tail Parsed Work On Long Documents.\n"
	a := New(Config{SegmentFallback: true, ValidateURLs: false})
	res, err := a.Run(context.Background(), head+tail)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, ref := range res.References {
		if ref.Title == "Tail Parsed Work On Long Documents" {
			found = true
		}
	}
	if !found {
		t.Fatalf("tail reference not parsed: %+v", res.References)
	}
}

func TestRunNoParseableReferences(t *testing.T) {
	a := New(Config{})
	_, err := a.Run(context.Background(), "References\n[1] x\n[2] y\n")
	if !errors.Is(err, ErrNoReferences) {
		t.Fatalf("err = %v, want ErrNoReferences", err)
	}
}

func TestRunCancelledBetweenReferences(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := "References\n[1] Smith, J. (2020). Some Work. https://example.invalid/x\n"
	a := New(Config{ValidateURLs: true})
	res, err := a.Run(ctx, doc)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(res.References) != 1 {
		t.Fatalf("partial result missing references: %+v", res)
	}
	last := res.Events[len(res.Events)-1]
	if last.Stage != progress.StageFailed {
		t.Fatalf("last stage = %s, want %s", last.Stage, progress.StageFailed)
	}
}

func TestRunProgressStages(t *testing.T) {
	var seen []progress.Stage
	a := New(Config{
		ValidateURLs: false,
		Notify:       func(e progress.Event) { seen = append(seen, e.Stage) },
	})
	doc := "References\n[1] Smith, J. (2020). Observed Work.\n"
	if _, err := a.Run(context.Background(), doc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []progress.Stage{
		progress.StageCreated,
		progress.StageSegmenting,
		progress.StageParsing,
		progress.StageComplete,
	}
	idx := 0
	for _, s := range seen {
		if idx < len(want) && s == want[idx] {
			idx++
		}
	}
	if idx != len(want) {
		t.Fatalf("stage order %v does not contain %v in order", seen, want)
	}
}
