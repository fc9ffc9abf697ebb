// Package karazhan holds the Karazhan encounter scripts: Moroes and the
// Opera event's Oz and Romulo and Julianne acts. The Big Bad Wolf act is
// a tengo script shipped with the assets.
package karazhan

import "raidscript/internal/encounter"

const (
	ScriptMoroes    = "moroes"
	ScriptOzMember  = "oz_member"
	ScriptOzTito    = "oz_tito"
	ScriptOzCrone   = "oz_crone"
	ScriptOzCyclone = "oz_cyclone"
	ScriptJulianne  = "julianne"
	ScriptRomulo    = "romulo"
)

func Register(reg *encounter.Registry) {
	reg.Register(ScriptMoroes, encounter.Simple(NewMoroes))
	reg.Register(ScriptOzMember, encounter.Simple(NewOzMember))
	reg.Register(ScriptOzTito, encounter.Simple(NewTito))
	reg.Register(ScriptOzCrone, encounter.Simple(NewCrone))
	reg.Register(ScriptOzCyclone, encounter.Simple(NewCyclone))
	reg.Register(ScriptJulianne, encounter.Simple(NewJulianne))
	reg.Register(ScriptRomulo, encounter.Simple(NewRomulo))
}
