package patch

import (
	"strings"
)

// LineKind classifies a single patch line by its leading marker.
type LineKind int

const (
	LineContext LineKind = iota
	LineRemoval
	LineAddition
	LineHeader
)

// Line is one line of a patch document with its marker stripped.
// Header lines (---, +++, @@) carry no semantic weight and are skipped
// by both apply paths.
type Line struct {
	Kind LineKind
	Text string
}

// ParseLines splits a patch into tagged lines. Lines with no recognized
// marker are treated as context so that a malformed patch still yields a
// usable document.
func ParseLines(patchText string) []Line {
	patchText = normalizeLineEndings(patchText)

	var doc []Line
	for _, raw := range strings.Split(patchText, "\n") {
		switch {
		case strings.HasPrefix(raw, "---"), strings.HasPrefix(raw, "+++"), strings.HasPrefix(raw, "@@"):
			doc = append(doc, Line{Kind: LineHeader, Text: raw})
		case strings.HasPrefix(raw, "-"):
			doc = append(doc, Line{Kind: LineRemoval, Text: strings.TrimPrefix(raw, "-")})
		case strings.HasPrefix(raw, "+"):
			doc = append(doc, Line{Kind: LineAddition, Text: strings.TrimPrefix(raw, "+")})
		case strings.HasPrefix(raw, " "):
			doc = append(doc, Line{Kind: LineContext, Text: strings.TrimPrefix(raw, " ")})
		default:
			doc = append(doc, Line{Kind: LineContext, Text: raw})
		}
	}

	return doc
}

func normalizeLineEndings(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}
