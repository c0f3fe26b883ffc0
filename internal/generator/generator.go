// Package generator talks to the language model that invents weapons.
package generator

import (
	"context"
	"errors"
	"strings"
)

// Generator turns a prompt into free-form text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

var ErrEmptyResponse = errors.New("empty response from generation service")

// FallbackName is used when the model cannot produce a name.
func FallbackName(base string) string {
	return base + "'s Weapon"
}

// GenerateName asks g for a weapon name built from base. On failure it
// returns FallbackName(base) together with the error so the caller can
// decide whether to log it and carry on.
func GenerateName(ctx context.Context, g Generator, base string) (string, error) {
	text, err := g.Generate(ctx, NamePrompt(base))
	if err != nil {
		return FallbackName(base), err
	}
	name := cleanName(text)
	if name == "" {
		return FallbackName(base), ErrEmptyResponse
	}
	return name, nil
}

// cleanName keeps the first non-empty line and drops quotes and markdown
// emphasis the model tends to wrap names in.
func cleanName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "*_\"'`")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
