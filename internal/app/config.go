package app

import (
	"time"

	"github.com/hyperifyio/refcheck/internal/progress"
)

// Config carries everything the validation pipeline needs. Callers start
// from DefaultConfig and override fields from flags or a config file.
type Config struct {
	// Timeout bounds each individual HTTP request.
	Timeout time.Duration
	// Delay is the pause inserted between consecutive HTTP requests so a
	// run does not hammer publisher sites. Zero disables pacing; the CLI
	// default is one second.
	Delay time.Duration

	// ValidateURLs controls whether extracted URLs are fetched and scored.
	// When false the run stops after parsing.
	ValidateURLs bool
	// EnableSearch turns on the web-search fallback for references that
	// carry no URL at all.
	EnableSearch bool
	// MaxSearchResults caps how many search hits are scored per reference.
	MaxSearchResults int

	// SegmentFallback, when set, falls back to the trailing portion of the
	// document if no references heading can be located.
	SegmentFallback bool

	// SearxURL selects a SearxNG instance as the search provider. When
	// empty the DuckDuckGo HTML endpoint is used instead.
	SearxURL string
	SearxKey string
	SearxUA  string
	// SearchFile, when set, reads search results from a local JSON file
	// instead of the network. Takes precedence over SearxURL.
	SearchFile string

	// UserAgents overrides the rotating User-Agent pool used for fetches.
	UserAgents []string

	// Notify, when non-nil, receives each progress event as it is recorded.
	Notify func(progress.Event)
}

// DefaultConfig returns the settings a plain run uses before any flags
// or file values are applied.
func DefaultConfig() Config {
	return Config{
		Timeout:          10 * time.Second,
		Delay:            time.Second,
		ValidateURLs:     true,
		MaxSearchResults: 5,
	}
}
