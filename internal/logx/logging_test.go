package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("boss", "moroes"))
	log.Info("phase changed", Int("phase", 2), Err(errors.New("boom")))

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if line["boss"] != "moroes" {
		t.Fatalf("expected boss field, got %v", line["boss"])
	}
	if line["phase"] != float64(2) {
		t.Fatalf("expected phase 2, got %v", line["phase"])
	}
	if line["err"] != "boom" {
		t.Fatalf("expected err field, got %v", line["err"])
	}
	caller, _ := line["caller"].(string)
	if !strings.HasPrefix(caller, "logging_test.go:") {
		t.Fatalf("expected short caller, got %q", caller)
	}
}

func TestLoggerLevelGate(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")
	log.Debug("hidden")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	if log.Enabled(LevelInfo) {
		t.Fatalf("expected info disabled")
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn line, got %q", buf.String())
	}
}

func TestZeroLoggerIsNop(t *testing.T) {
	var log Logger
	if !log.IsZero() {
		t.Fatalf("expected zero logger")
	}
	log.Error("nothing happens")
	Nop().Info("nothing happens either")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        LevelInfo,
		"debug":   LevelDebug,
		"WARNING": LevelWarn,
		"bogus":   LevelInfo,
		" error ": LevelError,
	}
	for in, want := range cases {
		if got := parseLevel(in, LevelInfo); got != want {
			t.Fatalf("parseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestServiceWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	log.Debug("hidden")
	log.Info("simulation finished", Bool("win", true), Any("deaths", map[string]int{"Moroes": 1}))
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line above the level gate, got %q", data)
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &line); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", lines[0], err)
	}
	if line["win"] != true {
		t.Fatalf("expected win=true, got %v", line["win"])
	}
	deaths, _ := line["deaths"].(map[string]any)
	if deaths["Moroes"] != float64(1) {
		t.Fatalf("expected deaths map, got %v", line["deaths"])
	}
}
