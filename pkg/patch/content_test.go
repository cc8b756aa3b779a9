package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyByContent_RemovalByContent(t *testing.T) {
	original := `apiVersion: v2
dependencies:
  - name: ingress-nginx
    version: 4.11.0
maintainers:
  - name: ops
`

	patchText := "-  - name: ingress-nginx"

	got := ApplyByContent(original, patchText)

	assert.NotContains(t, got, "name: ingress-nginx")
	assert.Contains(t, got, "apiVersion: v2")
	assert.Contains(t, got, "    version: 4.11.0")
	assert.Contains(t, got, "  - name: ops")
}

func TestApplyByContent_ContextAnchoredInsertion(t *testing.T) {
	original := "metadata:\n  name: web\nspec:\n  replicas: 1"

	patchText := " spec:\n+  strategy: RollingUpdate"

	got := ApplyByContent(original, patchText)

	lines := strings.Split(got, "\n")
	specIdx := -1
	for i, l := range lines {
		if l == "spec:" {
			specIdx = i
			break
		}
	}
	assert.GreaterOrEqual(t, specIdx, 0)
	assert.Equal(t, "  strategy: RollingUpdate", lines[specIdx+1])
}

func TestApplyByContent_MixedAddRemove(t *testing.T) {
	original := `replicaCount: 1
image:
  repository: nginx
  tag: stable
service:
  port: 80
`

	// remove the tag, replace it with a new value and add a new field
	patchText := ` image:
   repository: nginx
-  tag: stable
+  tag: mainline
+  pullPolicy: Always
 service:`

	got := ApplyByContent(original, patchText)

	assert.NotContains(t, got, "tag: stable")
	assert.Contains(t, got, "  tag: mainline")
	assert.Contains(t, got, "  pullPolicy: Always")

	// lines untouched by the patch are bit-for-bit identical
	assert.Contains(t, got, "replicaCount: 1")
	assert.Contains(t, got, "  repository: nginx")
	assert.Contains(t, got, "service:\n  port: 80")
}

func TestApplyByContent_UnmatchedRemovalIsSkipped(t *testing.T) {
	original := "a\nb\nc"

	got := ApplyByContent(original, "-does not exist")
	assert.Equal(t, original, got)
}

func TestApplyByContent_AdditionWithoutContextAppends(t *testing.T) {
	original := "a\nb"

	got := ApplyByContent(original, "+c")
	assert.Equal(t, "a\nb\nc", got)
}

func TestApplyByContent_UnmatchedContextAppends(t *testing.T) {
	original := "a\nb"

	got := ApplyByContent(original, " no such anchor\n+c")
	assert.Equal(t, "a\nb\nc", got)
}

func TestApplyByContent_EmptyPatch(t *testing.T) {
	original := "a\nb\nc"
	assert.Equal(t, original, ApplyByContent(original, ""))
}

func TestApplyByContent_DuplicateLinesHitFirstOccurrence(t *testing.T) {
	// removing a duplicated line always deletes the first physical
	// occurrence, even when the hunk targeted a later one
	original := "version: 4.12.0\nname: a\nversion: 4.12.0"

	got := ApplyByContent(original, "-version: 4.12.0")
	assert.Equal(t, "name: a\nversion: 4.12.0", got)
}

func TestApplyByContent_HeadersAreIgnored(t *testing.T) {
	original := "a\nb"

	patchText := "--- a/f\n+++ b/f\n@@ -1,2 +1,3 @@\n a\n+between\n b"

	got := ApplyByContent(original, patchText)
	assert.Equal(t, "a\nbetween\nb", got)
}
