package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"sk-1234567890abcd", "sk-…abcd"},
		{"gsk_abcdefghijkl", "gsk…ijkl"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Redact(tc.in))
		})
	}
}

func TestComponentTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	Init(Config{Level: "debug", Format: FormatJSON, Output: &buf})
	l := Component("adapter")
	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"adapter"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}
