package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrService indicates the remote service answered with an HTTP status of
// 400 or above.
type ErrService struct {
	Status int
	Body   string
	Err    error
}

func (e *ErrService) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("service error %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("service error %d", e.Status)
}

func (e *ErrService) Unwrap() error { return e.Err }

// ErrTransport indicates the request never produced an HTTP response:
// connection refused, DNS failure, timeout and the like.
type ErrTransport struct {
	Err error
}

func (e *ErrTransport) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	return "transport error"
}

func (e *ErrTransport) Unwrap() error { return e.Err }

// ErrMalformedResult indicates a success response whose body did not have
// the expected JSON shape. Content holds whatever was received so callers
// can still show it.
type ErrMalformedResult struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrMalformedResult) Error() string {
	return fmt.Sprintf("malformed result: %v", e.Err)
}

func (e *ErrMalformedResult) Unwrap() error { return e.Err }

// IsRemoteFailure reports whether err is a service or transport failure,
// the two kinds a caller may recover from by switching to another call.
func IsRemoteFailure(err error) bool {
	var svc *ErrService
	if errors.As(err, &svc) {
		return true
	}
	var tr *ErrTransport
	return errors.As(err, &tr)
}
