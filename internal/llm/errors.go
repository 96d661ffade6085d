package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyReply is returned when the collaborator answered without any text
var ErrEmptyReply = errors.New("collaborator returned an empty reply")

// TransportError wraps network, auth and API failures talking to a provider
type TransportError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
