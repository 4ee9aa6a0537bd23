package app

import (
	"github.com/hyperifyio/refcheck/internal/match"
	"github.com/hyperifyio/refcheck/internal/progress"
	"github.com/hyperifyio/refcheck/internal/refparse"
)

// InaccessibleURL records why a URL attempt failed. StatusCode is zero
// when the request never produced a response.
type InaccessibleURL struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Reason     string `json:"reason"`
}

// ValidationResult holds the outcome of checking one reference. Every URL
// the reference carried lands in exactly one of AccessibleURLs or
// InaccessibleURLs.
type ValidationResult struct {
	AccessibleURLs   []string          `json:"accessible_urls,omitempty"`
	InaccessibleURLs []InaccessibleURL `json:"inaccessible_urls,omitempty"`
	MatchResults     []match.Result    `json:"match_results,omitempty"`
	SearchPerformed  bool              `json:"search_performed,omitempty"`
	SearchResults    []match.Result    `json:"search_results,omitempty"`
}

// ValidatedReference pairs a parsed reference with its validation
// outcome. Validation is nil when URL checking was skipped.
type ValidatedReference struct {
	refparse.Reference
	Validation *ValidationResult `json:"validation,omitempty"`
}

// JobResult is what a full pipeline run produces.
type JobResult struct {
	References []ValidatedReference `json:"references"`
	Events     []progress.Event     `json:"events,omitempty"`
}
