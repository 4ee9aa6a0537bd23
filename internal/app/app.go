// Package app wires segmentation, parsing, URL checking, content matching
// and the search fallback into one sequential pipeline and records its
// progress as it goes.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/refcheck/internal/fallback"
	"github.com/hyperifyio/refcheck/internal/match"
	"github.com/hyperifyio/refcheck/internal/progress"
	"github.com/hyperifyio/refcheck/internal/refparse"
	"github.com/hyperifyio/refcheck/internal/resolve"
	"github.com/hyperifyio/refcheck/internal/search"
	"github.com/hyperifyio/refcheck/internal/segment"
)

// ErrNoReferences is returned when the references section yields no
// parseable entries.
var ErrNoReferences = errors.New("no references could be parsed")

// Fraction of the document used when heading detection fails and the
// caller opted into the trailing-text fallback.
const tailFraction = 0.2

// App runs the reference validation pipeline over one document at a time.
type App struct {
	cfg      Config
	resolver *resolve.Client
	searcher *fallback.Searcher
}

// New builds a pipeline from cfg. Timeout and MaxSearchResults fall back
// to DefaultConfig's values when unset; Delay is taken as given, since a
// zero delay is a valid choice for offline and test runs.
func New(cfg Config) *App {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = def.MaxSearchResults
	}
	resolver := &resolve.Client{
		Timeout:    cfg.Timeout,
		UserAgents: cfg.UserAgents,
	}
	a := &App{cfg: cfg, resolver: resolver}
	if cfg.EnableSearch {
		a.searcher = &fallback.Searcher{
			Provider:   provider(cfg),
			Resolver:   resolver,
			MaxResults: cfg.MaxSearchResults,
			Delay:      cfg.Delay,
		}
	}
	return a
}

// provider picks the search backend: a local results file when configured,
// then a SearxNG instance, else the DuckDuckGo HTML endpoint which needs
// no API key.
func provider(cfg Config) search.Provider {
	switch {
	case cfg.SearchFile != "":
		return &search.FileProvider{Path: cfg.SearchFile}
	case cfg.SearxURL != "":
		return &search.SearxNG{BaseURL: cfg.SearxURL, APIKey: cfg.SearxKey, UserAgent: cfg.SearxUA}
	default:
		return &search.DuckDuckGo{UserAgent: cfg.SearxUA}
	}
}

// Run executes the pipeline over the document text and returns every
// parsed reference with its validation outcome. The returned JobResult is
// non-nil even on error so callers can still report partial progress.
func (a *App) Run(ctx context.Context, text string) (*JobResult, error) {
	plog := &progress.Log{Notify: a.cfg.Notify}
	plog.Append(progress.StageCreated, "job created (%d characters of input)", len(text))

	seg, err := a.segmentText(plog, text)
	if err != nil {
		plog.Append(progress.StageFailed, "references section not found")
		return &JobResult{Events: plog.Events()}, err
	}

	plog.Append(progress.StageParsing, "parsing reference entries")
	refs := refparse.Parse(seg)
	if len(refs) == 0 {
		plog.Append(progress.StageFailed, "no references could be parsed from the section")
		return &JobResult{Events: plog.Events()}, ErrNoReferences
	}
	log.Info().Int("references", len(refs)).Msg("parsed references section")
	for _, r := range refs {
		plog.Append(progress.StageParsing, "parsed reference %d: %s", r.Number, describe(r))
	}

	out := make([]ValidatedReference, 0, len(refs))
	for _, r := range refs {
		out = append(out, ValidatedReference{Reference: r})
	}
	result := &JobResult{References: out}

	if !a.cfg.ValidateURLs {
		plog.Append(progress.StageComplete, "parsed %d references; URL validation disabled", len(out))
		result.Events = plog.Events()
		return result, nil
	}

	requested := 0
	for i := range out {
		if err := ctx.Err(); err != nil {
			return a.abandon(plog, result, err)
		}
		plog.Append(progress.StageValidating, "validating reference %d/%d", i+1, len(out))
		vr := &ValidationResult{}
		for _, u := range out[i].URLs {
			if err := a.pace(ctx, requested); err != nil {
				out[i].Validation = vr
				return a.abandon(plog, result, err)
			}
			requested++
			a.checkURL(ctx, plog, out[i].Reference, u, vr)
		}
		out[i].Validation = vr
	}

	if a.searcher != nil {
		for i := range out {
			if len(out[i].URLs) != 0 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return a.abandon(plog, result, err)
			}
			// Search requests share the job's rate policy with URL fetches.
			if err := a.pace(ctx, requested); err != nil {
				return a.abandon(plog, result, err)
			}
			requested++
			a.searchFor(ctx, plog, &out[i])
		}
	}

	plog.Append(progress.StageComplete, "checked %d references", len(out))
	result.Events = plog.Events()
	return result, nil
}

// segmentText locates the references section, optionally falling back to
// the tail of the document.
func (a *App) segmentText(plog *progress.Log, text string) (string, error) {
	plog.Append(progress.StageSegmenting, "locating references section")
	seg, err := segment.Find(text)
	if err != nil {
		if !errors.Is(err, segment.ErrNotFound) || !a.cfg.SegmentFallback {
			return "", err
		}
		log.Warn().Msg("no references heading found; using trailing text")
		plog.Append(progress.StageSegmenting, "no heading found; scanning trailing %d%% of document", int(tailFraction*100))
		seg = segment.Tail(text, tailFraction)
	}
	plog.Append(progress.StageSegmenting, "references section located (%d characters)", len(seg))
	return seg, nil
}

// pace inserts the configured delay before every HTTP request except the
// first one of the job.
func (a *App) pace(ctx context.Context, requested int) error {
	if requested == 0 || a.cfg.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.cfg.Delay):
		return nil
	}
}

// checkURL fetches one URL and files it under accessible or inaccessible,
// scoring page content against the reference when the fetch succeeds.
func (a *App) checkURL(ctx context.Context, plog *progress.Log, ref refparse.Reference, u string, vr *ValidationResult) {
	plog.Append(progress.StageValidating, "checking %s", u)
	out := a.resolver.Resolve(ctx, u)
	if !out.Accessible() {
		vr.InaccessibleURLs = append(vr.InaccessibleURLs, InaccessibleURL{
			URL:        u,
			StatusCode: out.StatusCode,
			Reason:     out.Reason,
		})
		log.Debug().Str("url", u).Str("reason", out.Reason).Msg("url not accessible")
		plog.Append(progress.StageValidating, "%s not accessible: %s", u, out.Reason)
		return
	}
	vr.AccessibleURLs = append(vr.AccessibleURLs, u)
	res := match.Evaluate(ref, match.ParsePage(out.Body))
	res.URL = u
	res.FinalURL = out.FinalURL
	res.StatusCode = out.StatusCode
	vr.MatchResults = append(vr.MatchResults, res)
	plog.Append(progress.StageValidating, "%s accessible (status %d, title match %d)", u, out.StatusCode, res.TitleMatch)
}

// searchFor runs the web-search fallback for a reference without URLs.
// Provider failures are recorded but never abort the job.
func (a *App) searchFor(ctx context.Context, plog *progress.Log, vref *ValidatedReference) {
	plog.Append(progress.StageSearching, "searching online for reference %d", vref.Number)
	if vref.Validation == nil {
		vref.Validation = &ValidationResult{}
	}
	vref.Validation.SearchPerformed = true
	results, err := a.searcher.Run(ctx, vref.Reference)
	if err != nil {
		log.Warn().Err(err).Int("reference", vref.Number).Msg("search fallback failed")
		plog.Append(progress.StageSearching, "search unavailable for reference %d: %v", vref.Number, err)
		return
	}
	vref.Validation.SearchResults = results
	plog.Append(progress.StageSearching, "found %d candidates for reference %d", len(results), vref.Number)
}

// abandon records cancellation and returns whatever was produced so far.
func (a *App) abandon(plog *progress.Log, result *JobResult, err error) (*JobResult, error) {
	plog.Append(progress.StageFailed, "job abandoned: %v", err)
	result.Events = plog.Events()
	return result, err
}

// describe summarizes a reference for progress messages.
func describe(r refparse.Reference) string {
	if r.Title != "" {
		return fmt.Sprintf("%q", truncate(r.Title, 60))
	}
	return fmt.Sprintf("%q", truncate(r.RawText, 60))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
