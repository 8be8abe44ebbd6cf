package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written in non-dev mode: %q", buf.String())
	}

	New(&buf, true).Debug("shown", "participant_id", "A")
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "participant_id") {
		t.Fatalf("missing debug output: %q", buf.String())
	}
}
