package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/invopop/jsonschema"

	"raidscript/internal/config"
)

// documents maps each config file kind to the type it decodes into.
var documents = map[string]struct {
	file  string
	title string
	v     any
}{
	"encounter": {"encounter.schema.json", "Encounter", new(config.EncounterConfig)},
	"heroes":    {"heroes.schema.json", "Party", new(config.HeroesConfig)},
	"skills":    {"skills.schema.json", "Hero skills", new(config.SkillsConfig)},
	"spells":    {"spells.schema.json", "Creature spells", new(config.SpellsConfig)},
}

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "", "directory to write the JSON schemas to")
	flag.Parse()

	if outDir == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	for _, kind := range kinds() {
		doc := documents[kind]
		if err := writeSchema(filepath.Join(outDir, doc.file), buildSchema(kind)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s schema: %v\n", kind, err)
			os.Exit(1)
		}
	}
}

func kinds() []string {
	out := make([]string, 0, len(documents))
	for k := range documents {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func buildSchema(kind string) *jsonschema.Schema {
	doc, ok := documents[kind]
	if !ok {
		return nil
	}
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(doc.v)
	schema.Title = "raidscript " + doc.title
	schema.Description = "Validates " + kind + " files under the config directory"
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
