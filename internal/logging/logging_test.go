package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New("warn", "json", &buf), "cache")
	log.Info().Msg("dropped")
	log.Warn().Str("key", "k").Msg("kept")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "cache" || line["level"] != "warn" || line["message"] != "kept" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestNewUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("chatty", "json", &buf)
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Fatalf("expected info level fallback, got %q", buf.String())
	}
}
