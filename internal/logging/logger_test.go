package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"trace", zerolog.TraceLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevel(tt.input)
			assert.Equal(t, tt.expected, zerolog.GlobalLevel())
		})
	}
}

func TestPionLoggerForwardsScope(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	factory := pionLoggerFactory{base: &base}

	factory.NewLogger("ice").Warnf("candidate %d failed", 3)

	assert.Contains(t, buf.String(), `"scope":"ice"`)
	assert.Contains(t, buf.String(), `"component":"pion"`)
	assert.Contains(t, buf.String(), "candidate 3 failed")
}
