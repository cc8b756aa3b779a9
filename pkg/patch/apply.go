package patch

import (
	"regexp"
	"strings"
)

// Apply applies a unified-diff-style patch to original and returns the
// best approximation of the modified content. It never fails: the patch
// only drives a preview, and a wrong preview beats a crashed caller.
// Unresolvable patches return original unchanged.
//
// Strategies are tried in order; the first one that produces a result
// wins. Matching is content-based (first exact trimmed-line match), so a
// patch that targets the nth occurrence of a duplicated line can hit the
// wrong physical line. That is a known limitation of the format we
// accept, not something to correct here.
func Apply(original string, patchText string) (result string) {
	result = original
	defer func() {
		if r := recover(); r != nil {
			result = original
		}
	}()

	patchText = strings.TrimSpace(normalizeLineEndings(patchText))
	if patchText == "" {
		return original
	}

	for _, s := range applyStrategies {
		if out, ok := s.tryApply(original, patchText); ok {
			return out
		}
	}

	return original
}

type applyStrategy struct {
	name     string
	tryApply func(original, patchText string) (string, bool)
}

var applyStrategies = []applyStrategy{
	{name: "new-file", tryApply: tryNewFile},
	{name: "key-value", tryApply: tryKeyValue},
	{name: "hunk", tryApply: tryHunk},
	{name: "single-line", tryApply: trySingleLine},
	{name: "paired-replace", tryApply: tryPairedReplace},
}

var zeroAnchoredHunkRe = regexp.MustCompile(`@@ -0,0 \+1,`)

// tryNewFile handles patches that create a file from nothing: either the
// original is empty or the hunk header is anchored at line 0. Every
// addition line, in order, becomes the whole file.
func tryNewFile(original, patchText string) (string, bool) {
	if original != "" && !zeroAnchoredHunkRe.MatchString(patchText) {
		return "", false
	}

	var added []string
	for _, line := range ParseLines(patchText) {
		if line.Kind == LineAddition {
			added = append(added, line.Text)
		}
	}

	if len(added) == 0 {
		return "", false
	}

	return strings.Join(added, "\n"), true
}

var keyValuePairRe = regexp.MustCompile(`(?m)^-([^\n:+]+):([^\n]*)\n\+([^\n:+]+):([^\n]*)$`)

// tryKeyValue is a fast path for the most common chart edit: one
// `key: value` line replaced by the same key with a new value. The
// removal line (marker stripped) must appear literally in the original.
func tryKeyValue(original, patchText string) (string, bool) {
	matches := keyValuePairRe.FindAllStringSubmatch(patchText, -1)
	if len(matches) != 1 {
		return "", false
	}

	m := matches[0]
	oldKey, oldVal := m[1], m[2]
	newKey, newVal := m[3], m[4]

	if strings.TrimSpace(oldKey) != strings.TrimSpace(newKey) {
		return "", false
	}
	if oldVal == newVal {
		return "", false
	}

	oldLine := oldKey + ":" + oldVal
	if !strings.Contains(original, oldLine) {
		return "", false
	}

	newLine := newKey + ":" + newVal
	return strings.Replace(original, oldLine, newLine, 1), true
}

var fullHunkRe = regexp.MustCompile(`(?s)(?:^|\n)--- [^\n]*\n\+\+\+ [^\n]*\n@@[^\n]*@@\n(.*)`)

// tryHunk renders the "after" side of a fully-formed patch: when the
// header-plus-hunk structure is present, removals are dropped and
// context and addition lines (markers stripped) become the entire
// result.
func tryHunk(original, patchText string) (string, bool) {
	m := fullHunkRe.FindStringSubmatch(patchText)
	if m == nil {
		return "", false
	}

	var kept []string
	for _, line := range ParseLines(m[1]) {
		switch line.Kind {
		case LineContext, LineAddition:
			kept = append(kept, line.Text)
		}
	}

	if len(kept) == 0 {
		return "", false
	}

	return strings.Join(kept, "\n"), true
}

// trySingleLine handles a patch whose only mutation is one removal
// immediately followed by one addition: the first line of the original
// whose trimmed text equals the trimmed removal is replaced in place.
func trySingleLine(original, patchText string) (string, bool) {
	doc := ParseLines(patchText)

	removalIdx := -1
	additionIdx := -1
	removals := 0
	additions := 0
	for i, line := range doc {
		switch line.Kind {
		case LineRemoval:
			removals++
			removalIdx = i
		case LineAddition:
			additions++
			additionIdx = i
		}
	}

	if removals != 1 || additions != 1 || additionIdx != removalIdx+1 {
		return "", false
	}

	oldLine := doc[removalIdx].Text
	newLine := doc[additionIdx].Text

	lines := strings.Split(original, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == strings.TrimSpace(oldLine) {
			lines[i] = newLine
			return strings.Join(lines, "\n"), true
		}
	}

	return "", false
}

// tryPairedReplace pairs each removal with the addition at the same
// position and performs a textual substring replacement per pair against
// the evolving content. Pairs that match nothing are no-ops.
func tryPairedReplace(original, patchText string) (string, bool) {
	var removals, additions []string
	for _, line := range ParseLines(patchText) {
		switch line.Kind {
		case LineRemoval:
			removals = append(removals, line.Text)
		case LineAddition:
			additions = append(additions, line.Text)
		}
	}

	if len(removals) == 0 || len(removals) != len(additions) {
		return "", false
	}

	content := original
	for i := range removals {
		content = strings.Replace(content, removals[i], additions[i], 1)
	}

	return content, true
}
