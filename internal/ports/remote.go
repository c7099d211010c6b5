package ports

import (
	"context"
	"encoding/json"
	"time"
)

// ListOptions are the pagination parameters for a remote listing call.
type ListOptions struct {
	Page    int
	PerPage int
	// After restricts the listing to records modified after the given
	// instant. Nil means a full, unfiltered listing.
	After *time.Time
}

// ListResult is one page of a remote listing. TotalPages is taken from
// the response headers and is the only reliable termination signal for
// the page loop.
type ListResult struct {
	Items      []json.RawMessage
	TotalPages int
}

// RemoteClient is the authenticated, paginated client for one tenant's
// remote store. Paths are relative resource paths such as "orders",
// "products" or "products/42/variations".
type RemoteClient interface {
	List(ctx context.Context, path string, opts ListOptions) (*ListResult, error)
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Update(ctx context.Context, path string, payload json.RawMessage) (json.RawMessage, error)
}
