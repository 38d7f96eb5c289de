package domain

import "context"

// FetchParams is the per-source parameter bundle for one fetch operation.
// Every field is optional; adapters apply their own defaults for zero values.
type FetchParams struct {
	Keyword   string
	Subreddit string
	Limit     int
	// Credential is an opaque handle (token, bot key) resolved by the
	// adapter; the orchestrator never interprets it.
	Credential string
}

// SourceAdapter produces normalized messages for one platform.
// Implementations must return platform-prefixed unique IDs and must honor
// ctx cancellation; the orchestrator imposes a per-source timeout through it.
type SourceAdapter interface {
	Platform() Platform
	Fetch(ctx context.Context, params FetchParams) ([]Message, error)
}

// SourceError records one source's isolated failure. It is carried as a
// value alongside sibling successes, never raised past the orchestrator.
type SourceError struct {
	Platform Platform `json:"platform"`
	Reason   string   `json:"reason"`
}
