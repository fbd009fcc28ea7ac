package domain

import (
	"errors"
	"fmt"
)

// ErrNoSuitableFormat is returned when no variant label matches any term
// of the configured format priority. Terminal for the target; never
// retried and no network call is attempted.
var ErrNoSuitableFormat = errors.New("No suitable link")

// FetchError is a transport or HTTP failure that survived every retry
// attempt. Err holds the final attempt's error verbatim.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError indicates a corrupt or unreadable archive. Terminal for
// the target; retrying the same bytes would not help.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
