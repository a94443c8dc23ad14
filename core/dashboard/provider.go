package dashboard

import (
	"context"
)

// Provider is the backing data source of a dashboard.
type Provider interface {
	FetchSnapshot(ctx context.Context) (Snapshot, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Snapshot, error)

func (f ProviderFunc) FetchSnapshot(ctx context.Context) (Snapshot, error) { return f(ctx) }

// ProviderFactory returns the Provider of the dashboard owned by ownerID.
type ProviderFactory func(ownerID string) Provider

// ProviderError reports a failed snapshot fetch. It is the only error an Aggregator records.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "fetching dashboard snapshot: " + e.Err.Error()
}

// Cause is used by github.com/pkg/errors.Cause.
func (e *ProviderError) Cause() error { return e.Err }

func (e *ProviderError) Unwrap() error { return e.Err }
