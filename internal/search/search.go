// Package search defines the web-search capability used by the fallback
// path when a reference carries no URL. Providers are external
// collaborators; any provider failure is non-fatal to a validation job.
package search

import (
	"context"
	"errors"
)

// ErrUnavailable wraps provider failures (quota, network, bad status) so
// callers can classify them without inspecting provider internals.
var ErrUnavailable = errors.New("search unavailable")

// Result is a single search hit from any provider.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Source  string // provider name for observability
}

// Provider is the minimal interface a search backend implements.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}
