package searchindex

import (
	"context"

	"github.com/arkivio/arkiv/internal/errs"
)

// Noop is the Index used when no search backend is configured. Mutations
// succeed silently so the catalog's write paths are unaffected; queries fail
// because there is nothing to search.
type Noop struct{}

func (Noop) Ping(context.Context) error { return nil }

func (Noop) Close() error { return nil }

func (Noop) Upsert(context.Context, *Projection) error { return nil }

func (Noop) Merge(context.Context, *Projection) error { return nil }

func (Noop) DeleteByID(context.Context, string) error { return nil }

func (Noop) Query(context.Context, string, []string, int) ([]Hit, error) {
	return nil, errs.New(errs.ErrKindSearchUnavailable, "search index is not configured")
}
