package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "INFO", "json")

	log.Info("analysis complete", "url", "https://example.com")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if entry["msg"] != "analysis complete" {
		t.Errorf("msg = %v, want %q", entry["msg"], "analysis complete")
	}
	if _, ok := entry["source"]; !ok {
		t.Error("source location missing")
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "TEXT")

	log.Debug("fetch", "status", 200)

	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("output = %q, want text handler output", buf.String())
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		level    string
		wantInfo bool
	}{
		{level: "DEBUG", wantInfo: true},
		{level: "INFO", wantInfo: true},
		{level: "WARN", wantInfo: false},
		{level: "bogus", wantInfo: false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf, tt.level, "json").Info("hello")

			if got := buf.Len() > 0; got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}
