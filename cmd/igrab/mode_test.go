package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/igrab/internal/api"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  api.Mode
	}{
		{"profile", api.ModeProfile},
		{"Profile", api.ModeProfile},
		{"post", api.ModePost},
		{"auto", api.ModeAuto},
		{"AUTO", api.ModeAuto},
	}
	for _, tt := range tests {
		got, err := parseMode(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseMode_Suggestion(t *testing.T) {
	_, err := parseMode("profle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "profile"`)
}

func TestParseMode_Unknown(t *testing.T) {
	_, err := parseMode("carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want profile, post, or auto")
}
