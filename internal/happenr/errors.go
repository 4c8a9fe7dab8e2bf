package happenr

import "fmt"

// ValidationError reports search options that were rejected before a request was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Message)
}

// TransportError reports a request that failed without an HTTP response:
// connection failures, DNS errors and timeouts.
type TransportError struct {
	Message string
	Code    int // OS error number when one is available, else 0
	Err     error
}

func (e *TransportError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("transport error (%d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError reports a response with a status other than 200.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("invalid status code (%d)", e.Code)
}

// ParseError reports a response body that is not a valid XML document.
// Body holds the raw response.
type ParseError struct {
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid XML response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an event detail lookup that returned no event.
type NotFoundError struct {
	EventID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no event found: %s", e.EventID)
}
