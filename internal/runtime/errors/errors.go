package errors

import sterrors "errors"

var (
	ErrEngineRequired       = sterrors.New("protoenclave: boundary engine is required")
	ErrServiceRequired      = sterrors.New("protoenclave: service is required")
	ErrHandlerRequired      = sterrors.New("protoenclave: handler function is required")
	ErrHandlerNameRequired  = sterrors.New("protoenclave: handler name is required")
	ErrConsumeQueueRequired = sterrors.New("protoenclave: consume queue is required")
	ErrPublisherRequired    = sterrors.New("protoenclave: publisher is required")
	ErrEncoderRequired      = sterrors.New("protoenclave: request encoder is required")
	ErrTopicRequired        = sterrors.New("protoenclave: topic is required")
	ErrConfigRequired       = sterrors.New("protoenclave: config is required")
	ErrLoggerRequired       = sterrors.New("protoenclave: logger is required")
	ErrRouterRequired       = sterrors.New("protoenclave: router is not initialised")
	ErrNullSentinel         = sterrors.New("protoenclave: boundary returned the null sentinel")
)

// ConfigValidationError wraps every problem found while validating a Config.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "protoenclave: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError returns nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
