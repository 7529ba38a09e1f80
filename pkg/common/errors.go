package common

import "fmt"

// SourceError reports a photo whose bytes could not be loaded
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("Source Error: %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// TranscodeError reports a container that could not be converted to a display format
type TranscodeError struct {
	Source string
	Format string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("Transcode Error: %s (%s): %v", e.Source, e.Format, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid or incomplete configuration
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration Error: %s", e.Message)
}

// NewSourceError wraps err as a *SourceError for the named photo
func NewSourceError(source string, err error) error {
	return &SourceError{Source: source, Err: err}
}

// NewTranscodeError wraps err as a *TranscodeError for the named photo and its declared format
func NewTranscodeError(source, format string, err error) error {
	return &TranscodeError{Source: source, Format: format, Err: err}
}

// NewConfigError returns a *ConfigError carrying message
func NewConfigError(message string) error {
	return &ConfigError{Message: message}
}
