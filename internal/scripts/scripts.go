// Package scripts assembles the registry of every hand-written encounter
// script next to the generic ones the encounter package provides.
package scripts

import (
	"raidscript/internal/encounter"
	"raidscript/internal/scripts/karazhan"
	"raidscript/internal/scripts/theeye"
)

func NewRegistry() *encounter.Registry {
	reg := encounter.NewRegistry()
	karazhan.Register(reg)
	theeye.Register(reg)
	return reg
}
