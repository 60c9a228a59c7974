package runtime

import (
	"bytes"
	"testing"
)

func TestPushPopContainerMarkerNoOpOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	// A plain bytes.Buffer has no underlying fd; pass an invalid fd so
	// term.IsTerminal reliably reports false regardless of the test runner's
	// own stdio.
	PushContainerMarker(&buf, ^uintptr(0), "karapace")
	PopContainerMarker(&buf, ^uintptr(0))
	if buf.Len() != 0 {
		t.Errorf("buf = %q, want empty output for a non-terminal fd", buf.String())
	}
}
