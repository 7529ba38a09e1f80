package common

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSourceError(t *testing.T) {
	err := NewSourceError("a.jpg", io.ErrUnexpectedEOF)

	var sourceErr *SourceError
	require.True(t, errors.As(err, &sourceErr))
	assert.Equal(t, "a.jpg", sourceErr.Source)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "Source Error: a.jpg: unexpected EOF", err.Error())
}

func TestNewTranscodeError(t *testing.T) {
	err := NewTranscodeError("b.heic", "image/heic", io.ErrUnexpectedEOF)

	var transcodeErr *TranscodeError
	require.True(t, errors.As(err, &transcodeErr))
	assert.Equal(t, "image/heic", transcodeErr.Format)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "Transcode Error: b.heic (image/heic): unexpected EOF", err.Error())
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("workers must be positive")

	var configErr *ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "Configuration Error: workers must be positive", err.Error())
}
