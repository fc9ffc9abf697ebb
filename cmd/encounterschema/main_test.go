package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSchemaCoversEncounterFields(t *testing.T) {
	t.Parallel()
	schema := buildSchema("encounter")
	if schema == nil {
		t.Fatalf("expected encounter schema")
	}
	data, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"spawns"`, `"max_hp"`, `"on_spell_hit"`, `"max_casts"`, `"script_file"`} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("expected %s in schema", field)
		}
	}
	if buildSchema("nope") != nil {
		t.Fatalf("expected nil schema for unknown kind")
	}
}

func TestWriteSchemaCreatesFile(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "schemas", "spells.schema.json")
	if err := writeSchema(out, buildSchema("spells")); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected valid json, got %v", err)
	}
	if decoded["title"] != "raidscript Creature spells" {
		t.Fatalf("expected title, got %v", decoded["title"])
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone")
	}
}
