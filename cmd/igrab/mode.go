package main

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/vmunix/igrab/internal/api"
)

var modeNames = []string{"profile", "post", "auto"}

// parseMode maps a --mode value to an api.Mode. For a near-miss it suggests
// the closest valid mode.
func parseMode(s string) (api.Mode, error) {
	switch strings.ToLower(s) {
	case "profile":
		return api.ModeProfile, nil
	case "post":
		return api.ModePost, nil
	case "auto":
		return api.ModeAuto, nil
	}

	if suggestion, err := edlib.FuzzySearchThreshold(strings.ToLower(s), modeNames, 0.7, edlib.Levenshtein); err == nil && suggestion != "" {
		return "", fmt.Errorf("unknown mode %q (did you mean %q?)", s, suggestion)
	}
	return "", fmt.Errorf("unknown mode %q (want profile, post, or auto)", s)
}
