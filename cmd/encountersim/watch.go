package main

import (
	"context"
	"path/filepath"

	"raidscript/internal/config"
	"raidscript/internal/logx"
	"raidscript/internal/storage"
)

// watch reloads the config directory and reruns a single simulation each
// time an encounter, data or script file changes.
func watch(ctx context.Context, o options, store storage.Store, log logx.Logger) error {
	w, err := config.NewWatcher(o.cfgDir, filepath.Join(o.cfgDir, "encounters"), filepath.Join(o.cfgDir, "scripts"))
	if err != nil {
		return err
	}
	defer w.Close()

	rerun := func() {
		b, err := config.LoadAll(o.cfgDir)
		if err != nil {
			log.Error("reload failed", logx.Err(err))
			return
		}
		if err := single(ctx, o, b, store, log); err != nil {
			log.Error("simulation failed", logx.Err(err))
		}
	}
	rerun()
	log.Info("watching for changes", logx.String("dir", o.cfgDir))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}
			log.Info("config changed", logx.String("file", filepath.Base(name)))
			rerun()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", logx.Err(err))
		}
	}
}
