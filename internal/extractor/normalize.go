package extractor

import (
	"regexp"
	"strings"
)

var (
	markdownMarkers = strings.NewReplacer("**", "", "__", "", "#", "")
	// bullet or numbered list prefixes at the start of a line
	listMarker     = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+•]|\d+[.)])[ \t]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

func stripMarkdown(s string) string {
	s = markdownMarkers.Replace(s)
	return listMarker.ReplaceAllString(s, "")
}

// collapse joins all lines into one and squeezes whitespace runs to a single space.
func collapse(s string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}

// splitLines behaves like a line splitter that accepts \n and \r\n endings.
func splitLines(s string) []string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// cleanValue trims surrounding whitespace and periods.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, ".")
	return strings.TrimSpace(v)
}
