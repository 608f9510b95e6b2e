package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"template-storefront/internal/config"
)

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(config.Log{Level: "warn", Format: "json"}, &buf)
	logger.Info("dropped")
	logger.Warn("kept", "order_id", "o-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected json output: %v", err)
	}
	if rec["msg"] != "kept" || rec["order_id"] != "o-1" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNewTextAndBadLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(config.Log{Level: "loud", Format: "TEXT"}, &buf)
	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") {
		t.Fatalf("unexpected output %q", out)
	}
}
