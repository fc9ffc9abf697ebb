package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"raidscript/internal/config"
	"raidscript/internal/logx"
	"raidscript/internal/storage"
)

func loadAssets(t *testing.T) *config.Bundle {
	t.Helper()
	b, err := config.LoadAll(filepath.Join("..", "..", "assets"))
	if err != nil {
		t.Fatalf("load assets: %v", err)
	}
	return b
}

func TestBatchSummaryIgnoresWorkerCount(t *testing.T) {
	t.Parallel()
	b := loadAssets(t)
	summarize := func(workers int) map[string]any {
		out := filepath.Join(t.TempDir(), "summary.json")
		o := options{encID: "opera_raj", seed: 3, n: 4, workers: workers, out: out}
		if err := batch(context.Background(), o, b, nil, logx.Nop()); err != nil {
			t.Fatalf("batch: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read summary: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode summary: %v", err)
		}
		return m
	}
	one, four := summarize(1), summarize(4)
	for _, key := range []string{"runs", "win_rate", "wipe_rate", "total_damage"} {
		if one[key] != four[key] {
			t.Fatalf("expected %s to match, got %v and %v", key, one[key], four[key])
		}
	}
	if one["runs"] != float64(4) {
		t.Fatalf("expected 4 runs, got %v", one["runs"])
	}
}

func TestSingleRecordsHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := loadAssets(t)
	dir := t.TempDir()
	store, err := storage.Open(storage.Config{Driver: "sqlite", Path: filepath.Join(dir, "h.sqlite")}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	o := options{encID: "moroes", seed: 9, out: filepath.Join(dir, "out.json")}
	if err := single(ctx, o, b, store, logx.Nop()); err != nil {
		t.Fatalf("single: %v", err)
	}
	attempts, err := store.Attempts(ctx, "moroes", 5)
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].Seed != 9 || attempts[0].State == "" {
		t.Fatalf("expected one finished attempt, got %+v", attempts)
	}
	trs, err := store.Transitions(ctx, attempts[0].ID)
	if err != nil {
		t.Fatalf("transitions: %v", err)
	}
	if len(trs) == 0 || trs[0].State != "in_progress" {
		t.Fatalf("expected the pull to be recorded first, got %+v", trs)
	}
}

func TestSingleUnknownEncounter(t *testing.T) {
	t.Parallel()
	o := options{encID: "nobody", out: filepath.Join(t.TempDir(), "x.json")}
	if err := single(context.Background(), o, loadAssets(t), nil, logx.Nop()); err == nil {
		t.Fatalf("expected unknown encounter error")
	}
}
