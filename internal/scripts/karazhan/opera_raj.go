package karazhan

import (
	"time"

	"raidscript/internal/encounter"
	"raidscript/internal/logx"
	"raidscript/internal/schedule"
	"raidscript/internal/util"
)

const (
	EntryJulianne encounter.Entry = 17534
	EntryRomulo   encounter.Entry = 17533
)

const (
	SpellBlindingPassion    encounter.SpellID = 30890
	SpellDevotion           encounter.SpellID = 30887
	SpellEternalAffection   encounter.SpellID = 30878
	SpellPowerfulAttraction encounter.SpellID = 30889
	SpellDrinkPoison        encounter.SpellID = 30907
	SpellBackwardLunge      encounter.SpellID = 30815
	SpellDaring             encounter.SpellID = 30841
	SpellDeadlySwathe       encounter.SpellID = 30817
	SpellPoisonThrust       encounter.SpellID = 30822
	SpellResVisual          encounter.SpellID = 24171
)

const (
	julianneSayAggro     = 0
	julianneSayEnter     = 1
	julianneSayDeath01   = 2
	julianneSayDeath02   = 3
	julianneSayResurrect = 4
	julianneSaySlay      = 5

	romuloSayAggro     = 0
	romuloSayDeath     = 1
	romuloSayResurrect = 3
	romuloSaySlay      = 4
)

const (
	taskResurrectPartner schedule.TaskID = 10
	taskResurrectSelf    schedule.TaskID = 11
	taskDrinkPoison      schedule.TaskID = 12
	taskSummonRomulo     schedule.TaskID = 13
)

const resurrectDelay = 10 * time.Second

var romuloPosition = encounter.Position{X: -10900, Y: -1758}

// RajPhase tracks who of the two lovers is on stage.
type RajPhase uint8

const (
	RajJulianne RajPhase = iota
	RajRomulo
	RajBoth
)

// lover is the part Julianne and Romulo share: pretending to die and
// being brought back by the partner.
type lover struct {
	*encounter.BossAI

	// stage runs regardless of combat or pretend death.
	stage  *schedule.Scheduler
	phase  RajPhase
	faking bool
}

func newLover(env encounter.Env, me encounter.ActorID) lover {
	return lover{BossAI: encounter.NewBossAI(env, me, env.BossKey), stage: schedule.New(env.Rng)}
}

func (l *lover) Stage() *schedule.Scheduler { return l.stage }
func (l *lover) RajPhase() RajPhase         { return l.phase }
func (l *lover) FakingDeath() bool          { return l.faking }

func (l *lover) ready() bool { return !l.faking && l.NotCasting() }

func (l *lover) pretendToDie() {
	l.faking = true
	l.World.Interrupt(l.Me())
	u, ok := l.Self()
	if !ok {
		return
	}
	u.SetHealth(0)
	u.SetFlag(encounter.FlagNotSelectable)
	u.SetFlag(encounter.FlagFakingDeath)
}

func (l *lover) resurrect() {
	l.faking = false
	u, ok := l.Self()
	if !ok {
		return
	}
	u.RemoveFlag(encounter.FlagNotSelectable)
	u.RemoveFlag(encounter.FlagFakingDeath)
	u.SetHealth(u.MaxHealth())
	l.World.Cast(l.Me(), l.Me(), SpellResVisual, true)
	if v, ok := u.Victim(); ok {
		l.World.AttackStart(l.Me(), v)
	}
}

// finish stops both schedulers without touching summons: the partner has
// to stay around to die for real.
func (l *lover) finish() {
	l.Scheduler().CancelAll()
	l.stage.CancelAll()
	l.SetBossState(encounter.Done)
}

func (l *lover) runStage(diff time.Duration) {
	if err := l.stage.Update(diff); err != nil {
		l.Log.Warn("stage task failed", logx.Err(err))
	}
}

// Julianne opens the act. Struck down the first time she drinks poison
// and brings out Romulo; after that each lover revives the other until
// both are down at once.
type Julianne struct {
	lover

	romulo         encounter.Ref
	summonedRomulo bool
	romuloDead     bool
}

func NewJulianne(env encounter.Env, me encounter.ActorID) *Julianne {
	j := &Julianne{lover: newLover(env, me)}
	j.Scheduler().SetValidator(j.ready)
	return j
}

func (j *Julianne) Reset() {
	j.BossAI.Reset()
	j.stage.CancelAll()
	if j.faking {
		j.resurrect()
	}
	j.phase = RajJulianne
	j.romulo.Clear()
	j.summonedRomulo = false
	j.romuloDead = false

	j.SetAttackable(false)
	j.stage.Schedule(time.Second, func(*schedule.Context) {
		j.Talk(julianneSayEnter)
	})
	j.stage.Schedule(10*time.Second, func(*schedule.Context) {
		j.Talk(julianneSayAggro)
		j.SetAttackable(true)
		j.World.ZoneInCombat(j.Me())
	})
}

func (j *Julianne) AttackStart(victim encounter.ActorID) {
	if u, ok := j.Self(); ok && u.HasFlag(encounter.FlagNonAttackable) {
		return
	}
	j.BossAI.AttackStart(victim)
}

func (j *Julianne) JustEngagedWith(who encounter.ActorID) {
	j.BossAI.JustEngagedWith(who)
	j.Scheduler().
		Schedule(30*time.Second, func(*schedule.Context) {
			j.DoCastRandom(SpellBlindingPassion, 100, false)
		}, schedule.RepeatBetween(30*time.Second, 45*time.Second)).
		Schedule(15*time.Second, func(*schedule.Context) {
			j.DoCastSelf(SpellDevotion)
		}, schedule.RepeatBetween(15*time.Second, 45*time.Second)).
		Schedule(5*time.Second, func(*schedule.Context) {
			j.DoCastRandom(SpellPowerfulAttraction, 0, false)
		}, schedule.RepeatBetween(5*time.Second, 30*time.Second)).
		Schedule(25*time.Second, func(*schedule.Context) {
			if j.summonedRomulo && !j.romuloDead && util.Chance(j.Rng, 50) {
				if r, ok := j.romulo.Alive(j.World); ok {
					j.DoCast(r.ID(), SpellEternalAffection)
					return
				}
			}
			j.DoCastSelf(SpellEternalAffection)
		}, schedule.RepeatBetween(45*time.Second, 60*time.Second))
}

func (j *Julianne) SpellHit(_ encounter.ActorID, spell encounter.SpellID) {
	if spell != SpellDrinkPoison {
		return
	}
	j.Talk(julianneSayDeath01)
	j.stage.Schedule(2500*time.Millisecond, func(c *schedule.Context) {
		j.pretendToDie()
		j.phase = RajRomulo
		c.Schedule(10*time.Second, func(*schedule.Context) { j.summonRomulo() }, schedule.Unique(taskSummonRomulo))
	}, schedule.Unique(taskDrinkPoison))
}

func (j *Julianne) summonRomulo() {
	if j.summonedRomulo {
		return
	}
	j.summonedRomulo = true
	pos := romuloPosition
	if u, ok := j.Self(); ok {
		pos.Z = u.Position().Z
	}
	id, ok := j.Summon(EntryRomulo, pos, encounter.Despawn{Kind: encounter.DespawnManual})
	if !ok {
		return
	}
	j.romulo.Set(id)
	if r, ok := encounter.ScriptOf[*Romulo](j.World, id); ok {
		r.julianne.Set(j.Me())
		r.phase = RajRomulo
	}
	j.World.ZoneInCombat(id)
}

// DamageTaken only intervenes on killing blows.
func (j *Julianne) DamageTaken(attacker encounter.ActorID, damage int) int {
	u, ok := j.Self()
	if !ok || damage < u.Health() {
		return j.BossAI.DamageTaken(attacker, damage)
	}
	switch j.phase {
	case RajJulianne:
		if j.faking {
			return 0
		}
		j.World.Interrupt(j.Me())
		j.World.Cast(j.Me(), j.Me(), SpellDrinkPoison, true)
		j.faking = true
		return 0
	case RajRomulo:
		return 0
	}
	if j.romuloDead {
		// both down: Romulo goes for real and so does she
		j.World.Kill(attacker, j.romulo.ID())
		return damage
	}
	r, ok := encounter.ScriptOf[*Romulo](j.World, j.romulo.ID())
	if !ok {
		return damage
	}
	j.pretendToDie()
	r.julianneDead = true
	r.Scheduler().Schedule(resurrectDelay, func(*schedule.Context) { r.resurrectJulianne() }, schedule.Unique(taskResurrectPartner))
	return 0
}

// resurrectSelf runs on Julianne's stage after Romulo first falls.
func (j *Julianne) resurrectSelf() {
	j.resurrect()
	j.phase = RajBoth
	j.Scheduler().Schedule(time.Second, func(*schedule.Context) { j.resurrectRomulo() }, schedule.Unique(taskResurrectPartner))
}

func (j *Julianne) resurrectRomulo() {
	r, ok := encounter.ScriptOf[*Romulo](j.World, j.romulo.ID())
	if !ok || !r.faking {
		return
	}
	j.Talk(julianneSayResurrect)
	r.resurrect()
	j.romuloDead = false
}

func (j *Julianne) KilledUnit(encounter.ActorID) { j.Talk(julianneSaySlay) }

func (j *Julianne) JustDied(encounter.ActorID) {
	j.Talk(julianneSayDeath02)
	j.finish()
}

func (j *Julianne) JustReachedHome() { j.World.Despawn(j.Me(), 0) }

func (j *Julianne) UpdateAI(diff time.Duration) {
	if u, ok := j.Self(); !ok || !u.IsAlive() {
		return
	}
	j.runStage(diff)
	if j.faking || !j.UpdateVictim() {
		return
	}
	j.RunScheduler(diff)
}

// Romulo joins ten seconds after Julianne's first death.
type Romulo struct {
	lover

	julianne     encounter.Ref
	julianneDead bool
}

func NewRomulo(env encounter.Env, me encounter.ActorID) *Romulo {
	r := &Romulo{lover: newLover(env, me)}
	r.phase = RajRomulo
	r.Scheduler().SetValidator(r.ready)
	return r
}

func (r *Romulo) Reset() {
	r.BossAI.Reset()
	r.stage.CancelAll()
	r.faking = false
	r.julianneDead = false
	if u, ok := r.Self(); ok {
		if owner, ok := u.Summoner(); ok {
			r.julianne.Set(owner)
		}
	}
}

func (r *Romulo) JustEngagedWith(who encounter.ActorID) {
	r.BossAI.JustEngagedWith(who)
	r.Talk(romuloSayAggro)
	if j, ok := r.julianne.Alive(r.World); ok {
		if v, ok := j.Victim(); ok {
			r.World.AddThreat(r.Me(), v, 1)
			r.AttackStart(v)
		}
	}
	r.Scheduler().
		Schedule(15*time.Second, func(*schedule.Context) {
			if t, ok := r.SelectTarget(encounter.TargetQuery{Method: encounter.TargetRandom, Offset: 1, MaxDist: 100, PlayersOnly: true, ExcludeVictim: true}); ok {
				r.DoCast(t, SpellBackwardLunge)
			}
		}, schedule.RepeatBetween(15*time.Second, 30*time.Second)).
		Schedule(20*time.Second, func(*schedule.Context) {
			r.DoCastSelf(SpellDaring)
		}, schedule.RepeatBetween(20*time.Second, 40*time.Second)).
		Schedule(25*time.Second, func(*schedule.Context) {
			r.DoCastRandom(SpellDeadlySwathe, 100, false)
		}, schedule.RepeatBetween(15*time.Second, 25*time.Second)).
		Schedule(10*time.Second, func(*schedule.Context) {
			r.DoCastVictim(SpellPoisonThrust)
		}, schedule.RepeatBetween(10*time.Second, 20*time.Second))
}

func (r *Romulo) DamageTaken(attacker encounter.ActorID, damage int) int {
	u, ok := r.Self()
	if !ok || damage < u.Health() {
		return r.BossAI.DamageTaken(attacker, damage)
	}
	if r.phase == RajRomulo {
		r.Talk(romuloSayDeath)
		r.pretendToDie()
		r.phase = RajBoth
		if j, ok := encounter.ScriptOf[*Julianne](r.World, r.julianne.ID()); ok {
			j.romuloDead = true
			j.stage.Schedule(resurrectDelay, func(*schedule.Context) { j.resurrectSelf() }, schedule.Unique(taskResurrectSelf))
		}
		return 0
	}
	if r.julianneDead {
		r.World.Kill(attacker, r.julianne.ID())
		return damage
	}
	j, ok := encounter.ScriptOf[*Julianne](r.World, r.julianne.ID())
	if !ok {
		return damage
	}
	r.pretendToDie()
	j.romuloDead = true
	j.Scheduler().Schedule(resurrectDelay, func(*schedule.Context) { j.resurrectRomulo() }, schedule.Unique(taskResurrectPartner))
	return 0
}

func (r *Romulo) resurrectJulianne() {
	j, ok := encounter.ScriptOf[*Julianne](r.World, r.julianne.ID())
	if !ok || !j.faking {
		return
	}
	r.Talk(romuloSayResurrect)
	j.resurrect()
	r.julianneDead = false
}

func (r *Romulo) KilledUnit(encounter.ActorID) { r.Talk(romuloSaySlay) }

func (r *Romulo) JustDied(encounter.ActorID) {
	r.Talk(romuloSayDeath)
	r.finish()
}

func (r *Romulo) JustReachedHome() { r.World.Despawn(r.Me(), 0) }

func (r *Romulo) UpdateAI(diff time.Duration) {
	if u, ok := r.Self(); !ok || !u.IsAlive() {
		return
	}
	r.runStage(diff)
	if r.faking || !r.UpdateVictim() {
		return
	}
	r.RunScheduler(diff)
}
