package domain

import "fmt"

// ValidationError indicates a malformed or incomplete observation record.
// It is raised by parsing and feature normalization and aborts the request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: field %q: %s", e.Field, e.Reason)
}

// VariantInferenceError records a single model variant failure. It is
// recovered at the ensemble boundary and never aborts an assessment on
// its own.
type VariantInferenceError struct {
	Variant string
	Err     error
}

func (e *VariantInferenceError) Error() string {
	return fmt.Sprintf("variant %q inference failed: %v", e.Variant, e.Err)
}

func (e *VariantInferenceError) Unwrap() error { return e.Err }

// EnsembleExhaustedError indicates that every variant of a profile failed,
// leaving nothing to aggregate. Fatal for the request.
type EnsembleExhaustedError struct {
	Profile  string
	Attempts int
}

func (e *EnsembleExhaustedError) Error() string {
	return fmt.Sprintf("ensemble exhausted for profile %q: all %d variants failed", e.Profile, e.Attempts)
}

// ConfigurationError indicates a malformed weight table, severity band
// layout, or variant definition. Raised at load time only, never during
// request processing.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// Configf builds a ConfigurationError from a format string.
func Configf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
