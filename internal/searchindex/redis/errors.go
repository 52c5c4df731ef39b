package redis

import (
	"github.com/arkivio/arkiv/internal/errs"
)

// mapError translates a Redis client error into a *errs.Error.
//
// Everything — including a deadline hit — is reported as the search backend
// being unavailable: the index is a secondary store, and callers only need
// to know the adapter call did not complete.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}
	return errs.Wrap(errs.ErrKindSearchUnavailable, msg, err)
}
