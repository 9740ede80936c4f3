package scope

import "errors"

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("scope configuration error")

// ConfigurationError reports that no scoping primitive is available where
// one is required. It is fatal: callers should refuse to start rather than
// serve requests without scoping.
type ConfigurationError struct {
	Message string
}

// NewConfigurationError returns a ConfigurationError with msg.
func NewConfigurationError(msg string) *ConfigurationError {
	return &ConfigurationError{Message: msg}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return ErrConfiguration.Error() + ": " + e.Message
}

// Is allows the error to be compared with ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
