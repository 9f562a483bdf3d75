package codec

import "errors"

var (
	ErrEmptyOneofMessage = errors.New("codec: payload variant is nil")
	ErrRequestTooLarge   = errors.New("codec: request too large")
	ErrUnsupportedFormat = errors.New("codec: unsupported format")
)

// DecodeError reports bytes that do not form a valid envelope.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return "decode error: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError reports an envelope that could not be serialised.
type EncodeError struct {
	Reason string
	Err    error
}

func (e *EncodeError) Error() string {
	return "encode error: " + e.Reason
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func decodeFailure(err error) *DecodeError {
	return &DecodeError{Reason: err.Error(), Err: err}
}

func encodeFailure(err error) *EncodeError {
	return &EncodeError{Reason: err.Error(), Err: err}
}
