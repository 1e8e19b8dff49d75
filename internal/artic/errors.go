package artic

import (
	"fmt"
	"net/http"
)

// NetworkError reports a request that never produced a usable response:
// transport failures, rate limiter waits that were cancelled, and HTTP
// statuses >= 400.
type NetworkError struct {
	URL        string
	StatusCode int
	Snippet    string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("artic API error: %d %s (%s)", e.StatusCode, http.StatusText(e.StatusCode), e.Snippet)
	}
	return fmt.Sprintf("artic request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a response body that is not JSON or lacks the data key.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode artic response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidQueryError is returned for descriptors that cannot be turned into a URL.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid artic query: " + e.Reason
}
