package ingestion

import (
	"context"
	"fmt"

	"github.com/mr1hm/hazardwatch/internal/models"
)

// Adapter fetches one external feed and normalizes it into observations.
// Per-record problems (bad geometry, unparseable timestamp, missing severity
// input) are logged and the record dropped; only adapter-fatal conditions
// (missing credential, auth failure, malformed request, network failure)
// surface as the returned error. An error aborts this adapter's run only.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]*models.Observation, error)
}

// FatalError marks a condition that makes the adapter unable to run at all,
// as opposed to a transient network or upstream hiccup.
type FatalError struct {
	Adapter string
	Err     error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Adapter, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func fatalf(adapter, format string, args ...any) error {
	return &FatalError{Adapter: adapter, Err: fmt.Errorf(format, args...)}
}
