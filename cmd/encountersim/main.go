package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"raidscript/internal/combat"
	"raidscript/internal/config"
	"raidscript/internal/encounter"
	"raidscript/internal/logx"
	"raidscript/internal/scripts"
	"raidscript/internal/storage"
	"raidscript/internal/util"
)

type options struct {
	cfgDir  string
	out     string
	encID   string
	seed    int64
	n       int
	workers int
	saveLog bool
	db      string
	watch   bool
	level   string
	list    bool
	history int
	logFile string
}

func main() {
	var o options
	flag.StringVar(&o.cfgDir, "config", "assets", "config dir")
	flag.StringVar(&o.out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.StringVar(&o.encID, "encounter", "moroes", "encounter id")
	flag.Int64Var(&o.seed, "seed", 12345, "seed")
	flag.IntVar(&o.n, "n", 1, "number of simulations")
	flag.IntVar(&o.workers, "workers", 8, "batch workers")
	flag.BoolVar(&o.saveLog, "log", true, "save full event log when n==1")
	flag.StringVar(&o.db, "db", "", "sqlite file for attempt history; empty disables")
	flag.BoolVar(&o.watch, "watch", false, "rerun a single simulation whenever the config changes")
	flag.StringVar(&o.level, "level", "info", "log level")
	flag.BoolVar(&o.list, "list", false, "list encounters and exit")
	flag.IntVar(&o.history, "history", 0, "print the last N recorded attempts and exit")
	flag.StringVar(&o.logFile, "log-file", "", "also write JSON logs to this file")
	flag.Parse()

	os.Exit(start(o))
}

func start(o options) int {
	svc, log := logx.New(logx.Config{
		Level:   o.level,
		Console: true,
		File:    logx.FileConfig{Enabled: o.logFile != "", Path: o.logFile},
	})
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("encountersim failed", logx.Err(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, o options, log logx.Logger) error {
	store, err := storage.Open(storage.Config{Driver: driverFor(o.db), Path: o.db, BusyTimeout: 5 * time.Second}, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	if o.history > 0 {
		return printHistory(ctx, store, o.encID, o.history)
	}

	b, err := config.LoadAll(o.cfgDir)
	if err != nil {
		return err
	}
	if o.list {
		for _, id := range b.EncounterIDs() {
			ec, _ := b.Encounter(id)
			fmt.Printf("%-12s %s\n", id, ec.Name)
		}
		return nil
	}
	if o.watch {
		return watch(ctx, o, store, log)
	}
	if o.n <= 1 {
		return single(ctx, o, b, store, log)
	}
	return batch(ctx, o, b, store, log)
}

func driverFor(path string) string {
	if path == "" {
		return "none"
	}
	return "sqlite"
}

// simulate runs one seeded attempt, recording it when store is set.
func simulate(ctx context.Context, b *config.Bundle, ec *config.EncounterConfig, seed int64, record bool, store storage.Store, log logx.Logger) (combat.SimResult, error) {
	env := &combat.Env{Rng: util.New(seed)}
	var inst encounter.Instance = encounter.NewMemoryInstance(ec.Instance)

	var attempt int64
	if store != nil {
		id, err := store.BeginAttempt(ctx, storage.Attempt{Encounter: ec.ID, Seed: seed})
		if err != nil {
			log.Warn("attempt not recorded", logx.Err(err))
		} else {
			attempt = id
			inst = storage.NewTracker(ctx, inst, store, id, func() time.Duration { return env.Time }, log)
		}
	}

	res, err := combat.RunEncounter(env, combat.RunOptions{
		Bundle:    b,
		Encounter: ec,
		Registry:  scripts.NewRegistry(),
		Instance:  inst,
		Log:       log.With(logx.String("encounter", ec.ID), logx.Int64("seed", seed)),
		Seed:      seed,
		Record:    record,
	})
	if err != nil {
		return res, err
	}
	if attempt != 0 {
		err := store.FinishAttempt(ctx, storage.Attempt{
			ID:       attempt,
			Duration: time.Duration(res.Duration * float64(time.Second)),
			Win:      res.Win,
			Wipe:     res.Wipe,
			State:    res.State,
			DPS:      res.DPS,
		})
		if err != nil {
			log.Warn("attempt result not recorded", logx.Int64("attempt", attempt), logx.Err(err))
		}
	}
	return res, nil
}

func single(ctx context.Context, o options, b *config.Bundle, store storage.Store, log logx.Logger) error {
	ec, err := b.Encounter(o.encID)
	if err != nil {
		return err
	}
	res, err := simulate(ctx, b, ec, o.seed, o.saveLog, store, log)
	if err != nil {
		return err
	}
	if err := os.WriteFile(o.out, combat.MarshalPretty(res), 0o644); err != nil {
		return err
	}
	log.Info("simulation finished",
		logx.String("encounter", ec.ID),
		logx.Bool("win", res.Win),
		logx.Float64("duration", res.Duration),
		logx.Any("deaths", res.Deaths),
	)
	fmt.Printf("Single %s finished. Win=%v, State=%s, T=%.2fs, DPS=%.1f -> %s\n",
		ec.ID, res.Win, res.State, res.Duration, res.DPS, filepath.Base(o.out))
	return nil
}

func printHistory(ctx context.Context, store storage.Store, encID string, limit int) error {
	if store == nil {
		return fmt.Errorf("-history needs -db: %w", storage.ErrDisabled)
	}
	attempts, err := store.Attempts(ctx, encID, limit)
	if err != nil {
		return err
	}
	for _, a := range attempts {
		fmt.Printf("#%-5d %-12s seed=%-8d win=%-5v state=%-12s t=%-8s dps=%.1f\n",
			a.ID, a.Encounter, a.Seed, a.Win, a.State, a.Duration, a.DPS)
		trs, err := store.Transitions(ctx, a.ID)
		if err != nil {
			return err
		}
		for _, t := range trs {
			fmt.Printf("        %8s %s -> %s\n", t.At, t.Boss, t.State)
		}
	}
	return nil
}
