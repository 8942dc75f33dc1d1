// Package apperrors provides sentinel and custom error types for the application.
package apperrors

// ErrConfig represents a configuration error.
// Use when a required setting is missing or invalid at startup.
var ErrConfig = &ConfigError{}

// ConfigError is a sentinel error for missing or invalid configuration.
type ConfigError struct {
	Setting string
	Message string
}

// NewConfigError creates a new ConfigError with a custom message.
func NewConfigError(setting, message string) *ConfigError {
	return &ConfigError{
		Setting: setting,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Setting != "" {
		return "configuration missing: " + e.Setting
	}

	return "configuration error"
}

// Is implements the error interface for error comparison.
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)

	return ok
}
