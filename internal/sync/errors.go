// sync/errors.go
package sync

import (
	"fmt"
)

// MismatchError reports invoice arithmetic that does not add up: a line
// amount diverging from quantity × unit price, or a total diverging from
// the sum of lines. The sync is aborted before any remote object is
// created; amounts are never silently corrected.
type MismatchError struct {
	InvoiceNumber string
	Detail        string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("sync: invoice %s amount mismatch: %s", e.InvoiceNumber, e.Detail)
}

// ResolutionError indicates vendor or account resolution failed even
// after the duplicate-name re-query fallback.
type ResolutionError struct {
	Kind string // "vendor" or "account"
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("sync: failed to resolve %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
