package relay

import "fmt"

// ConnectError reports that creating or connecting an upstream handle
// failed. It is always returned as a value, never panicked, and surfaces to
// consumers as a disconnected message (push) or an error message field
// (pull). Nothing is cached on failure, so the next access retries from
// scratch.
type ConnectError struct {
	StreamerID string
	Err        error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect upstream for %q: %v", e.StreamerID, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }
