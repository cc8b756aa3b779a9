package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_EmptyPatch(t *testing.T) {
	tests := []struct {
		name     string
		original string
	}{
		{name: "empty original", original: ""},
		{name: "simple yaml", original: "name: nginx\nversion: 1.0.0\n"},
		{name: "crlf original", original: "name: nginx\r\nversion: 1.0.0\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.original, Apply(tt.original, ""))
			assert.Equal(t, tt.original, Apply(tt.original, "   \n  "))
		})
	}
}

func TestApply_NewFile(t *testing.T) {
	patchText := `--- /dev/null
+++ b/templates/service.yaml
@@ -0,0 +1,4 @@
+apiVersion: v1
+kind: Service
+metadata:
+  name: web`

	want := "apiVersion: v1\nkind: Service\nmetadata:\n  name: web"

	assert.Equal(t, want, Apply("", patchText))

	// the zero-anchored header wins even when the original is not empty
	assert.Equal(t, want, Apply("leftover: true\n", patchText))
}

func TestApply_KeyValueReplacement(t *testing.T) {
	original := `apiVersion: v2
name: ingress-nginx
version: 4.11.0
appVersion: 1.11.0
`

	patchText := `--- a/Chart.yaml
+++ b/Chart.yaml
@@ -1,4 +1,4 @@
 apiVersion: v2
 name: ingress-nginx
-version: 4.11.0
+version: 4.12.0
 appVersion: 1.11.0`

	got := Apply(original, patchText)
	assert.Contains(t, got, "version: 4.12.0")
	assert.NotContains(t, got, "version: 4.11.0\n")

	// unrelated lines survive untouched
	assert.Contains(t, got, "apiVersion: v2")
	assert.Contains(t, got, "appVersion: 1.11.0")
}

func TestApply_HunkRendersAfterSide(t *testing.T) {
	// two changed pairs defeat the key-value fast path, so the hunk
	// strategy renders the after side of the hunk body
	patchText := `--- a/values.yaml
+++ b/values.yaml
@@ -1,4 +1,4 @@
 replicaCount: 1
-image: nginx
-tag: stable
+image: nginx
+tag: mainline
 pullPolicy: IfNotPresent`

	got := Apply("replicaCount: 1\nimage: nginx\ntag: stable\npullPolicy: IfNotPresent\n", patchText)

	want := "replicaCount: 1\nimage: nginx\ntag: mainline\npullPolicy: IfNotPresent"
	assert.Equal(t, want, got)
}

func TestApply_SingleLineSubstitution(t *testing.T) {
	original := "# ingress config\nenable the controller\nkeep this line\n"

	patchText := "-enable the controller\n+disable the controller"

	got := Apply(original, patchText)
	assert.Equal(t, "# ingress config\ndisable the controller\nkeep this line\n", got)
}

func TestApply_SingleLineSubstitution_TrimmedMatch(t *testing.T) {
	original := "  indented value here\nother\n"

	// patch line has no indentation; match is on trimmed content and the
	// replacement lands verbatim
	patchText := "-indented value here\n+replaced value"

	got := Apply(original, patchText)
	assert.Equal(t, "replaced value\nother\n", got)
}

func TestApply_PairedReplace(t *testing.T) {
	original := "port: 8080\nhost: localhost\nscheme: http\n"

	patchText := "-port: 8080\n+port: 9090\n-scheme: http\n+scheme: https"

	got := Apply(original, patchText)
	assert.Equal(t, "port: 9090\nhost: localhost\nscheme: https\n", got)
}

func TestApply_PairedReplace_MissingPairIsNoop(t *testing.T) {
	original := "port: 8080\n"

	patchText := "-port: 8080\n+port: 9090\n-not here at all\n+never inserted"

	got := Apply(original, patchText)
	assert.Equal(t, "port: 9090\n", got)
	assert.NotContains(t, got, "never inserted")
}

func TestApply_UnresolvablePatchReturnsOriginal(t *testing.T) {
	original := "keep: me\n"

	tests := []struct {
		name      string
		patchText string
	}{
		{name: "prose", patchText: "this is not a diff at all"},
		{name: "header only", patchText: "--- a/file\n+++ b/file"},
		{name: "unmatched removal only", patchText: "-nothing like this"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, original, Apply(original, tt.patchText))
		})
	}
}

func TestApply_DuplicateLineHitsFirstOccurrence(t *testing.T) {
	// first-trimmed-match tie-break: the patch author may have meant the
	// second occurrence, but the first one is replaced
	original := "version: 4.12.0\nname: a\nversion: 4.12.0\n"

	patchText := "-version: 4.12.0\n+version: 5.0.0"

	got := Apply(original, patchText)
	assert.Equal(t, "version: 5.0.0\nname: a\nversion: 4.12.0\n", got)
}

func TestApply_NeverPanics(t *testing.T) {
	inputs := []string{
		"@@",
		"@@ -x,y +a,b @@",
		strings.Repeat("-", 10000),
		"\x00\xff",
		"+++ \n--- \n@@ @@",
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			Apply("some: content", in)
		})
	}
}

func TestParseLines(t *testing.T) {
	doc := ParseLines("--- a/f\n+++ b/f\n@@ -1,2 +1,2 @@\n ctx\n-rem\n+add\nbare")

	kinds := make([]LineKind, 0, len(doc))
	for _, l := range doc {
		kinds = append(kinds, l.Kind)
	}

	assert.Equal(t, []LineKind{LineHeader, LineHeader, LineHeader, LineContext, LineRemoval, LineAddition, LineContext}, kinds)
	assert.Equal(t, "ctx", doc[3].Text)
	assert.Equal(t, "rem", doc[4].Text)
	assert.Equal(t, "add", doc[5].Text)
	assert.Equal(t, "bare", doc[6].Text)
}
