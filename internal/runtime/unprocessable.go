package runtime

import (
	"errors"
	"fmt"

	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
)

// UnprocessableEventError marks a brokered request the boundary could not
// answer at all. The poison queue middleware routes these messages to the
// poison topic instead of retrying them. Request bytes are never included.
type UnprocessableEventError struct {
	RequestID string
	Reason    string
	err       error
}

// NewUnprocessableEventError wraps cause for the request and sentinel reason.
func NewUnprocessableEventError(requestID, reason string, cause error) *UnprocessableEventError {
	return &UnprocessableEventError{RequestID: requestID, Reason: reason, err: cause}
}

func (e *UnprocessableEventError) Error() string {
	msg := fmt.Sprintf("%s (reason: %s", errspkg.ErrNullSentinel, e.Reason)
	if e.RequestID != "" {
		msg += ", request_id: " + e.RequestID
	}
	msg += ")"
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

func (e *UnprocessableEventError) Unwrap() []error {
	if e.err == nil {
		return []error{errspkg.ErrNullSentinel}
	}
	return []error{errspkg.ErrNullSentinel, e.err}
}

// IsUnprocessable reports whether err carries an UnprocessableEventError.
func IsUnprocessable(err error) bool {
	var target *UnprocessableEventError
	return errors.As(err, &target)
}
