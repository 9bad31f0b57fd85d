package cms

import "fmt"

// TransportError reports a network failure, timeout, or non-2xx response.
type TransportError struct {
	Status int
	Cause  error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("content service returned status %d", e.Status)
	}
	return fmt.Sprintf("content service unreachable: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// DecodeError reports a response that was not well-formed structured data.
// It records the payload size, never the payload itself.
type DecodeError struct {
	Size  int
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response (%d bytes): %v", e.Size, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }
