package patch

import (
	"strings"
)

// ApplyByContent applies a patch in two independent passes: every
// removal deletes the first line of the working buffer whose trimmed
// text matches, then every addition is inserted after the first line
// matching the most recent context line seen in the patch stream.
// Removals with no match are skipped; additions with no anchor are
// appended to the end of the buffer.
//
// Like Apply, matching is first-trimmed-match, so duplicated lines can
// be hit out of position. The caller gets a preview either way.
func ApplyByContent(original string, patchText string) (result string) {
	result = original
	defer func() {
		if r := recover(); r != nil {
			result = original
		}
	}()

	doc := ParseLines(strings.TrimSpace(patchText))
	lines := strings.Split(original, "\n")

	for _, pl := range doc {
		if pl.Kind != LineRemoval {
			continue
		}
		for i, line := range lines {
			if strings.TrimSpace(line) == strings.TrimSpace(pl.Text) {
				lines = append(lines[:i], lines[i+1:]...)
				break
			}
		}
	}

	var anchor string
	haveAnchor := false
	for _, pl := range doc {
		switch pl.Kind {
		case LineContext:
			anchor = pl.Text
			haveAnchor = true
		case LineAddition:
			lines = insertAfterAnchor(lines, pl.Text, anchor, haveAnchor)
		}
	}

	return strings.Join(lines, "\n")
}

func insertAfterAnchor(lines []string, newLine, anchor string, haveAnchor bool) []string {
	if haveAnchor {
		for i, line := range lines {
			if strings.TrimSpace(line) == strings.TrimSpace(anchor) {
				out := make([]string, 0, len(lines)+1)
				out = append(out, lines[:i+1]...)
				out = append(out, newLine)
				out = append(out, lines[i+1:]...)
				return out
			}
		}
	}

	return append(lines, newLine)
}
