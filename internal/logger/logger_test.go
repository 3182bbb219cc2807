package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Environment: "production", Output: &buf})

	log.Info("hello", "code", "Ds")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output in production, got %q", buf.String())
	}
	if record["msg"] != "hello" || record["code"] != "Ds" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Output: &buf})

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "text", Output: &buf})
	scoped := base.With("request_id", "abc")

	ctx := NewContext(context.Background(), scoped)
	FromContext(ctx, base).Info("scoped")

	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("expected request_id in output, got %q", buf.String())
	}

	if FromContext(context.Background(), base) != base {
		t.Error("expected fallback logger for empty context")
	}
}
