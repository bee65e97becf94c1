// Package search defines the web-search collaborator contract used by the
// conversation engine's web_search tool.
package search

import "context"

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Client is the search collaborator contract. Implementations own their own
// transport, timeouts, and retries; the engine only consumes the normalized
// outcome.
type Client interface {
	// Search returns up to maxResults hits for the query.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
