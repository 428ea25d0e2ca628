package routing

import "fmt"

// NetworkError is a transport failure or a non-2xx answer from the routing service.
type NetworkError struct {
	Err    error
	Status int
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("routing: service returned status %d", e.Status)
	}
	return fmt.Sprintf("routing: request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError is a response body that is not a non-empty waypoint array.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("routing: malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
