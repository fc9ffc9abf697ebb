package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"raidscript/internal/combat"
	"raidscript/internal/config"
	"raidscript/internal/logx"
	"raidscript/internal/storage"
)

type stat struct {
	Runs    int
	Win     int
	Wipe    int
	Failed  int
	SumT    float64
	SumDPS  float64
	States  map[string]int
	BySkill map[string]float64
	ByHero  map[string]float64
}

func (st *stat) add(res combat.SimResult) {
	st.Runs++
	if res.Win {
		st.Win++
	}
	if res.Wipe {
		st.Wipe++
	}
	st.SumT += res.Duration
	st.SumDPS += res.DPS
	st.States[res.State]++
	for k, v := range res.DamageBySkill {
		st.BySkill[k] += v
	}
	for k, v := range res.DamageByHero {
		st.ByHero[k] += v
	}
}

// batch runs n attempts on a worker pool. Attempt i always uses seed+i,
// so the summary does not depend on the worker count.
func batch(ctx context.Context, o options, b *config.Bundle, store storage.Store, log logx.Logger) error {
	ec, err := b.Encounter(o.encID)
	if err != nil {
		return err
	}
	st := stat{
		States:  map[string]int{},
		BySkill: map[string]float64{},
		ByHero:  map[string]float64{},
	}
	var mu sync.Mutex
	wg := sync.WaitGroup{}
	workers := max(o.workers, 1)
	jobs := make(chan int64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range jobs {
				res, err := simulate(ctx, b, ec, seed, false, store, log)

				mu.Lock()
				if err != nil {
					st.Failed++
					log.Warn("simulation failed", logx.Int64("seed", seed), logx.Err(err))
				} else {
					st.add(res)
				}
				mu.Unlock()
			}
		}()
	}
feed:
	for i := 0; i < o.n; i++ {
		select {
		case jobs <- o.seed + int64(i):
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if st.Runs == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("no simulation of %s completed", ec.ID)
	}

	totalDmg := 0.0
	for _, v := range st.BySkill {
		totalDmg += v
	}
	percent := func(m map[string]float64) map[string]any {
		out := map[string]any{}
		for k, v := range m {
			share := 0.0
			if totalDmg > 0 {
				share = v / totalDmg
			}
			out[k] = map[string]any{"total": v, "ratio": share}
		}
		return out
	}
	runs := float64(st.Runs)
	summary := map[string]any{
		"encounter":    ec.ID,
		"runs":         st.Runs,
		"failed":       st.Failed,
		"win_rate":     float64(st.Win) / runs,
		"wipe_rate":    float64(st.Wipe) / runs,
		"states":       st.States,
		"avg_time":     st.SumT / runs,
		"avg_dps":      st.SumDPS / runs,
		"total_damage": totalDmg,
		"by_skill":     percent(st.BySkill),
		"by_hero":      percent(st.ByHero),
	}
	if err := os.WriteFile(o.out, combat.MarshalPretty(summary), 0o644); err != nil {
		return err
	}
	fmt.Printf("Batch %d of %s done, win rate %.1f%% -> %s\n", st.Runs, ec.ID, 100*float64(st.Win)/runs, filepath.Base(o.out))
	return nil
}
