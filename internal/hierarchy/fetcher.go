// Package hierarchy implements the client-side work item tree cache: a
// process-wide store keyed by project id, a fetch coordinator with a
// freshness window, pure query/mutation primitives over cached trees, and
// view bindings that let independent views share one snapshot without
// repeated network calls.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/types"
)

// Fetcher is the single network boundary the cache consumes. One call
// returns the complete hierarchy snapshot for a project: epics as roots,
// children fully nested.
type Fetcher interface {
	FetchHierarchy(ctx context.Context, projectID types.ItemID) ([]*types.WorkItem, error)
}

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// FetchError is the normalized failure recorded on a cache key. It wraps the
// transport error and preserves the HTTP status when one was available.
type FetchError struct {
	ProjectID types.ItemID
	Status    int
	Err       error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch hierarchy %s: HTTP %d: %v", e.ProjectID, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch hierarchy %s: %v", e.ProjectID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by the underlying transport
// error, or 0 when none was available.
func (e *FetchError) StatusCode() int { return e.Status }

// ErrorStatus extracts the HTTP status from err, or 0.
func ErrorStatus(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// IsAuthError reports whether err is a 401/403 failure. Auth failures
// suppress automatic refetch for the key until a forced refresh, since the
// session is presumed invalid and retrying would only hammer the backend.
func IsAuthError(err error) bool {
	s := ErrorStatus(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}
