package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondavita/engine/internal/config"
	"github.com/secondavita/engine/internal/observability"
)

func TestNewLogger_ValidConfigs(t *testing.T) {
	tests := []struct {
		level  string
		format string
	}{
		{"debug", "json"},
		{"info", "console"},
		{"warn", "json"},
		{"error", "console"},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := observability.NewLogger(config.LoggingConfig{Level: tt.level, Format: tt.format})
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestSessionLogger_AddsField(t *testing.T) {
	logger, err := observability.NewLogger(config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, observability.SessionLogger(logger, "abc"))
}
