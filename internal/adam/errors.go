package adam

import "fmt"

// RequestError reports a single failed HTTP call against the controller.
// Status is the HTTP status code for a non-200 response, or zero when the
// request failed at the transport layer (cause carries the reason).
type RequestError struct {
	Endpoint string
	Status   int
	cause    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("adam: %s returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("adam: %s failed: %v", e.Endpoint, e.cause)
}

func (e *RequestError) Unwrap() error {
	return e.cause
}

func statusError(endpoint string, status int) *RequestError {
	return &RequestError{Endpoint: endpoint, Status: status}
}

func transportError(endpoint string, cause error) *RequestError {
	return &RequestError{Endpoint: endpoint, cause: cause}
}
