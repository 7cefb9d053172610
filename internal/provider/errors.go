package provider

import "fmt"

// RequestError is returned when a vendor call fails at the transport level or
// the vendor answers with a non-2xx status.
type RequestError struct {
	Vendor     string
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s request failed: %v", e.Vendor, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Vendor, e.Operation, e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ResponseShapeError is returned when a vendor answered successfully but the
// payload lacks the fields the client depends on. It is transient.
type ResponseShapeError struct {
	Vendor    string
	Operation string
	Detail    string
}

func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("%s %s returned an unexpected payload: %s", e.Vendor, e.Operation, e.Detail)
}

func NewResponseShapeError(vendor, operation, format string, args ...any) *ResponseShapeError {
	return &ResponseShapeError{Vendor: vendor, Operation: operation, Detail: fmt.Sprintf(format, args...)}
}
