// Package theeye holds the Tempest Keep: The Eye encounter scripts.
package theeye

import (
	"time"

	"raidscript/internal/encounter"
	"raidscript/internal/logx"
	"raidscript/internal/schedule"
	"raidscript/internal/util"
)

const ScriptKaelthas = "kaelthas"

func Register(reg *encounter.Registry) {
	reg.Register(ScriptKaelthas, encounter.Simple(NewKaelthas))
}

const (
	EntryKaelthas    encounter.Entry = 19622
	EntryThaladred   encounter.Entry = 20064
	EntrySanguinar   encounter.Entry = 20060
	EntryCapernian   encounter.Entry = 20062
	EntryTelonicus   encounter.Entry = 20063
	EntryNetherVapor encounter.Entry = 21002
	EntryWorldTrig   encounter.Entry = 19871
	EntryPhoenix     encounter.Entry = 21362
)

// Weapons are the seven legendary weapons summoned in the second phase.
var Weapons = [7]encounter.Entry{21268, 21269, 21270, 21271, 21272, 21273, 21274}

var advisors = [4]encounter.Entry{EntryThaladred, EntrySanguinar, EntryCapernian, EntryTelonicus}

const (
	sayIntro          = 0
	sayIntroCapernian = 1
	sayIntroTelonicus = 2
	sayIntroThaladred = 3
	sayIntroSanguinar = 4
	sayPhase2Weapon   = 5
	sayPhase3Advance  = 6
	sayPhase4Intro2   = 7
	sayPhase5Nuts     = 8
	saySlay           = 9
	sayMindControl    = 10
	sayGravityLapse   = 11
	saySummonPhoenix  = 12
	sayDeath          = 13

	sayAdvisorAggro = 0
)

const (
	SpellSummonWeapons     encounter.SpellID = 36976
	SpellResurrection      encounter.SpellID = 36450
	SpellFireball          encounter.SpellID = 36805
	SpellArcaneDisruption  encounter.SpellID = 36834
	SpellPhoenix           encounter.SpellID = 36723
	SpellMindControl       encounter.SpellID = 36797
	SpellShockBarrier      encounter.SpellID = 36815
	SpellPyroblast         encounter.SpellID = 36819
	SpellFlameStrike       encounter.SpellID = 36735
	SpellNetherbeam1       encounter.SpellID = 36089
	SpellGainingPower      encounter.SpellID = 36091
	SpellExplodes1         encounter.SpellID = 36376
	SpellExplodes2         encounter.SpellID = 36375
	SpellExplodes3         encounter.SpellID = 36373
	SpellExplodes4         encounter.SpellID = 36354
	SpellExplodes5         encounter.SpellID = 36092
	SpellGrow              encounter.SpellID = 36184
	SpellFullPower         encounter.SpellID = 36187
	SpellFloatingDrowned   encounter.SpellID = 36550
	SpellNetherbeamAura1   encounter.SpellID = 36364
	SpellNetherbeamAura2   encounter.SpellID = 36370
	SpellNetherbeamAura3   encounter.SpellID = 36371
	SpellPureNetherBeam4   encounter.SpellID = 36201
	SpellDarkBanished      encounter.SpellID = 52241
	SpellPhaseTwo          encounter.SpellID = 36709
	SpellGravityLapse      encounter.SpellID = 35941
	SpellSummonNetherVapor encounter.SpellID = 35865
	SpellNetherBeam        encounter.SpellID = 35869
)

// KaelPhase is the fight's progression, separate from the event-map phase.
type KaelPhase uint8

const (
	KaelNone KaelPhase = iota
	KaelSingleAdvisor
	KaelWeapons
	KaelAllAdvisors
	KaelFinal
)

// prefight events on the secondary event map
const (
	evAdvance schedule.EventID = iota + 1
	evResurrect
	evReleaseAdvisors
	evFinal
)

const (
	taskIntroThaladred schedule.TaskID = iota + 1
	taskReleaseThaladred
	taskIntroSanguinar
	taskReleaseSanguinar
	taskIntroCapernian
	taskReleaseCapernian
	taskIntroTelonicus
	taskReleaseTelonicus
	taskWeapons
	taskReleaseWeapons
	taskFinal
	taskMindControl
	taskArcaneDisruption
	taskPyroblast
	taskPyroblastEnd
	taskGravityLapseEnd
	taskShockBarrier
	taskNetherBeam
	taskScene
)

const (
	pointMiddle = iota + 1
	pointAir
	pointStartLastPhase
)

var triggerPositions = [6]encounter.Position{
	{X: 799.11, Y: -38.95, Z: 85.0},
	{X: 800.16, Y: 37.65, Z: 85.0},
	{X: 847.64, Y: -16.19, Z: 64.05},
	{X: 847.53, Y: 15.01, Z: 63.69},
	{X: 843.44, Y: -7.87, Z: 67.14},
	{X: 843.35, Y: 6.35, Z: 67.14},
}

// Kaelthas runs the four advisors one at a time, arms the raid's
// opponents with his weapons, raises the advisors together, and finally
// fights himself, lifting into the air at half health before the gravity
// lapse cycle.
type Kaelthas struct {
	*encounter.BossAI

	kphase   KaelPhase
	prefight *schedule.EventMap
	rp       *schedule.Scheduler
}

func NewKaelthas(env encounter.Env, me encounter.ActorID) *Kaelthas {
	k := &Kaelthas{
		BossAI:   encounter.NewBossAI(env, me, env.BossKey),
		prefight: schedule.NewEventMap(env.Rng),
		rp:       schedule.New(env.Rng),
	}
	k.Scheduler().SetValidator(k.NotCasting)
	return k
}

func (k *Kaelthas) KaelPhase() KaelPhase        { return k.kphase }
func (k *Kaelthas) Prefight() *schedule.EventMap { return k.prefight }

func (k *Kaelthas) Reset() {
	k.BossAI.Reset()
	k.rp.CancelAll()
	k.prefight.Reset()
	k.kphase = KaelNone
	k.rp.Schedule(time.Second, func(*schedule.Context) { k.prepareAdvisors() })

	if u, ok := k.Self(); ok {
		u.RemoveFlag(encounter.FlagNotSelectable)
		u.SetFlag(encounter.FlagNonAttackable)
		u.SetFlag(encounter.FlagPassive)
	}
	k.ScheduleHealthCheck(50, func() {
		k.Scheduler().CancelAll()
		u, ok := k.Self()
		if !ok {
			return
		}
		u.SetFlag(encounter.FlagNonAttackable)
		u.SetFlag(encounter.FlagPassive)
		k.World.MovePoint(k.Me(), pointMiddle, u.Home())
	})
}

func (k *Kaelthas) prepareAdvisors() {
	u, ok := k.Self()
	if !ok {
		return
	}
	home := u.Home()
	for i, entry := range advisors {
		pos := home
		pos.X += float64(i*4 - 6)
		pos.Y -= 10
		id, ok := k.Summon(entry, pos, encounter.Despawn{Kind: encounter.DespawnManual})
		if !ok {
			continue
		}
		if a, ok := k.World.Unit(id); ok {
			a.SetFlag(encounter.FlagNonAttackable)
			a.SetFlag(encounter.FlagPassive)
		}
	}
}

// AttackStart is refused until the final phase and while gravity lapse runs.
func (k *Kaelthas) AttackStart(victim encounter.ActorID) {
	if k.kphase != KaelFinal {
		return
	}
	if _, pending := k.Scheduler().NextDue(taskGravityLapseEnd); pending {
		return
	}
	k.BossAI.AttackStart(victim)
}

func (k *Kaelthas) MoveInLineOfSight(who encounter.ActorID) {
	if k.kphase != KaelNone {
		return
	}
	u, ok := k.World.Unit(who)
	if !ok || !u.IsPlayer() || !u.IsAlive() {
		return
	}
	k.kphase = KaelSingleAdvisor
	k.World.ZoneInCombat(k.Me())
	k.Talk(sayIntro)
	k.ScheduleUniqueTimedEvent(23*time.Second, func() { k.Talk(sayIntroThaladred) }, taskIntroThaladred)
	k.ScheduleUniqueTimedEvent(30*time.Second, func() { k.releaseAdvisor(EntryThaladred) }, taskReleaseThaladred)
}

func (k *Kaelthas) releaseAdvisor(entry encounter.Entry) {
	a, ok := k.Summons.WithEntry(k.World, entry)
	if !ok || !a.IsAlive() {
		return
	}
	k.release(a)
	k.World.Talk(a.ID(), sayAdvisorAggro, 0)
}

func (k *Kaelthas) release(a encounter.Unit) {
	a.RemoveFlag(encounter.FlagNonAttackable)
	a.RemoveFlag(encounter.FlagNotSelectable)
	a.RemoveFlag(encounter.FlagPassive)
	k.World.ZoneInCombat(a.ID())
	t, ok := k.SelectTarget(encounter.TargetQuery{Method: encounter.TargetRandom})
	if !ok {
		return
	}
	if s, ok := a.Script(); ok {
		s.AttackStart(t)
		return
	}
	k.World.AttackStart(a.ID(), t)
}

func isAdvisor(e encounter.Entry) bool {
	for _, a := range advisors {
		if a == e {
			return true
		}
	}
	return false
}

func (k *Kaelthas) JustSummoned(summon encounter.ActorID) {
	k.BossAI.JustSummoned(summon)
	if u, ok := k.World.Unit(summon); ok && u.Entry() == EntryNetherVapor {
		k.World.MoveRandom(summon, 20)
	}
}

func (k *Kaelthas) KilledUnit(victim encounter.ActorID) {
	if u, ok := k.World.Unit(victim); ok && u.IsPlayer() {
		k.Talk(saySlay)
	}
}

func (k *Kaelthas) SummonedCreatureDies(summon, _ encounter.ActorID) {
	if k.kphase == KaelFinal {
		return
	}
	u, ok := k.World.Unit(summon)
	if !ok {
		return
	}
	entry := u.Entry()
	if k.kphase == KaelAllAdvisors && isAdvisor(entry) {
		for _, a := range advisors {
			if k.Summons.AliveWithEntry(k.World, a) > 0 {
				return
			}
		}
		k.ScheduleUniqueTimedEvent(2*time.Second, k.enterFinal, taskFinal)
		return
	}

	switch entry {
	case EntryThaladred:
		k.ScheduleUniqueTimedEvent(2*time.Second, func() { k.Talk(sayIntroSanguinar) }, taskIntroSanguinar)
		k.ScheduleUniqueTimedEvent(14500*time.Millisecond, func() { k.releaseAdvisor(EntrySanguinar) }, taskReleaseSanguinar)
	case EntrySanguinar:
		k.ScheduleUniqueTimedEvent(2*time.Second, func() { k.Talk(sayIntroCapernian) }, taskIntroCapernian)
		k.ScheduleUniqueTimedEvent(9*time.Second, func() { k.releaseAdvisor(EntryCapernian) }, taskReleaseCapernian)
	case EntryCapernian:
		k.ScheduleUniqueTimedEvent(2*time.Second, func() { k.Talk(sayIntroTelonicus) }, taskIntroTelonicus)
		k.ScheduleUniqueTimedEvent(10400*time.Millisecond, func() { k.releaseAdvisor(EntryTelonicus) }, taskReleaseTelonicus)
	case EntryTelonicus:
		k.ScheduleUniqueTimedEvent(3*time.Second, k.summonWeapons, taskWeapons)
		k.ScheduleUniqueTimedEvent(9*time.Second, k.releaseWeapons, taskReleaseWeapons)
	}
}

func (k *Kaelthas) summonWeapons() {
	k.Talk(sayPhase2Weapon)
	k.World.Cast(k.Me(), k.Me(), SpellSummonWeapons, true)
	k.kphase = KaelWeapons
	u, ok := k.Self()
	if !ok {
		return
	}
	home := u.Home()
	for i, entry := range Weapons {
		pos := home
		pos.X += float64(i*3 - 9)
		pos.Y += 8
		id, ok := k.Summon(entry, pos, encounter.Despawn{Kind: encounter.DespawnOnDeath})
		if !ok {
			continue
		}
		if w, ok := k.World.Unit(id); ok {
			w.SetFlag(encounter.FlagNonAttackable)
			w.SetFlag(encounter.FlagNotSelectable)
			w.SetFlag(encounter.FlagPassive)
		}
	}
}

func (k *Kaelthas) releaseWeapons() {
	k.Summons.Each(k.World, func(u encounter.Unit) {
		if u.IsAlive() && !isAdvisor(u.Entry()) {
			k.release(u)
		}
	})
	k.prefight.ScheduleEvent(evAdvance, 2*time.Minute)
	k.prefight.ScheduleEvent(evResurrect, 2*time.Minute+6*time.Second)
	k.prefight.ScheduleEvent(evReleaseAdvisors, 2*time.Minute+12*time.Second)
}

func (k *Kaelthas) runPrefight(id schedule.EventID) {
	switch id {
	case evAdvance:
		k.kphase = KaelAllAdvisors
		k.Talk(sayPhase3Advance)
	case evResurrect:
		k.World.Cast(k.Me(), k.Me(), SpellResurrection, true)
		for _, entry := range advisors {
			a, ok := k.Summons.WithEntry(k.World, entry)
			if !ok {
				continue
			}
			k.World.Resurrect(a.ID())
			a.SetFlag(encounter.FlagPassive)
			a.SetFlag(encounter.FlagNotSelectable)
		}
	case evReleaseAdvisors:
		for _, entry := range advisors {
			if a, ok := k.Summons.WithEntry(k.World, entry); ok && a.IsAlive() {
				k.release(a)
			}
		}
		k.prefight.ScheduleEvent(evFinal, 3*time.Minute)
	case evFinal:
		k.enterFinal()
	}
}

func (k *Kaelthas) enterFinal() {
	if k.kphase == KaelFinal {
		return
	}
	k.Talk(sayPhase4Intro2)
	k.kphase = KaelFinal
	k.prefight.Reset()
	k.World.ResetThreat(k.Me())
	if u, ok := k.Self(); ok {
		u.RemoveFlag(encounter.FlagNonAttackable)
		u.RemoveFlag(encounter.FlagPassive)
	}
	if t, ok := k.SelectTarget(encounter.TargetQuery{Method: encounter.TargetRandom}); ok {
		k.AttackStart(t)
	}

	k.Scheduler().CancelAll()
	k.ScheduleTimedEvent(time.Second, func() { k.DoCastVictim(SpellFireball) }, 2*time.Second, 3200*time.Millisecond, 0)
	k.ScheduleTimedEvent(15*time.Second, func() { k.DoCastRandom(SpellFlameStrike, 100, false) }, 20*time.Second, 20*time.Second, 0)
	k.ScheduleTimedEvent(30*time.Second, func() {
		k.Talk(saySummonPhoenix)
		k.summonPhoenix()
	}, 40*time.Second, 40*time.Second, 0)
	k.ScheduleTimedEvent(20*time.Second, func() {
		k.mindControl()
		k.ScheduleUniqueTimedEvent(3*time.Second, func() { k.DoCastSelf(SpellArcaneDisruption) }, taskArcaneDisruption)
	}, 50*time.Second, 50*time.Second, 0)
	k.ScheduleTimedEvent(40*time.Second, func() {
		k.ScheduleUniqueTimedEvent(3*time.Second, k.mindControl, taskMindControl)
		k.ScheduleUniqueTimedEvent(6*time.Second, func() { k.DoCastSelf(SpellArcaneDisruption) }, taskArcaneDisruption)
	}, 50*time.Second, 50*time.Second, 0)
	k.ScheduleTimedEvent(60*time.Second, k.pyroblastBurst, 50*time.Second, 50*time.Second, 0)
}

func (k *Kaelthas) mindControl() {
	if util.Chance(k.Rng, 50) {
		k.Talk(sayMindControl)
	}
	k.DoCastRandom(SpellMindControl, 0, true)
}

func (k *Kaelthas) summonPhoenix() {
	u, ok := k.Self()
	if !ok {
		return
	}
	if k.World.Cast(k.Me(), k.Me(), SpellPhoenix, true) {
		k.Summon(EntryPhoenix, u.Position(), encounter.Despawn{Kind: encounter.DespawnOnDeath})
	}
}

// pyroblastBurst shields, pushes everything else back ten seconds and
// fires pyroblasts every four seconds until the burst ends.
func (k *Kaelthas) pyroblastBurst() {
	k.World.Cast(k.Me(), k.Me(), SpellShockBarrier, true)
	k.Scheduler().DelayAll(10 * time.Second)
	k.ScheduleTimedEvent(0, func() { k.DoCastVictim(SpellPyroblast) }, 4*time.Second, 4*time.Second, taskPyroblast)
	k.ScheduleUniqueTimedEvent(9500*time.Millisecond, func() { k.Scheduler().CancelID(taskPyroblast) }, taskPyroblastEnd)
}

func (k *Kaelthas) MovementInform(point int) {
	switch point {
	case pointMiddle:
		k.playScene()
	case pointStartLastPhase:
		k.startLastPhase()
	}
}

func (k *Kaelthas) castSelf(spells ...encounter.SpellID) {
	for _, s := range spells {
		k.World.Cast(k.Me(), k.Me(), s, true)
	}
}

func (k *Kaelthas) summonTriggers(from, n int) {
	for i := range n {
		id, ok := k.Summon(EntryWorldTrig, triggerPositions[from+i], encounter.Despawn{Kind: encounter.DespawnTimed, After: time.Minute})
		if ok {
			k.World.Cast(id, k.Me(), SpellNetherbeam1+encounter.SpellID(i), true)
		}
	}
}

// playScene is the half-health interlude: Kael rises, absorbs the nether
// beams and returns to the floor for the last phase.
func (k *Kaelthas) playScene() {
	scene := []struct {
		at time.Duration
		fn func()
	}{
		{0, func() { k.Talk(sayPhase5Nuts) }},
		{2500 * time.Millisecond, func() { k.castSelf(SpellExplodes1, SpellGainingPower) }},
		{4 * time.Second, func() {
			k.summonTriggers(0, 2)
			if u, ok := k.Self(); ok {
				pos := u.Position()
				pos.Z = 76
				k.World.MovePoint(k.Me(), pointAir, pos)
			}
			k.castSelf(SpellGrow)
		}},
		{7 * time.Second, func() {
			k.castSelf(SpellGrow, SpellExplodes2, SpellNetherbeamAura1)
			k.summonTriggers(2, 2)
		}},
		{10 * time.Second, func() {
			k.castSelf(SpellGrow, SpellExplodes3, SpellNetherbeamAura2)
			k.summonTriggers(4, 2)
		}},
		{14 * time.Second, func() { k.castSelf(SpellGrow, SpellExplodes4, SpellNetherbeamAura3) }},
		{19 * time.Second, func() {
			k.Summons.DespawnEntry(k.World, EntryWorldTrig)
			for _, a := range []encounter.SpellID{SpellNetherbeamAura1, SpellNetherbeamAura2, SpellNetherbeamAura3} {
				k.World.RemoveAura(k.Me(), a)
			}
			k.castSelf(SpellExplodes5, SpellFloatingDrowned)
		}},
		{22 * time.Second, func() { k.castSelf(SpellDarkBanished) }},
		{32 * time.Second, func() {
			k.World.RemoveAura(k.Me(), SpellFloatingDrowned)
			k.castSelf(SpellFullPower, SpellPhaseTwo, SpellPureNetherBeam4)
		}},
		{36 * time.Second, func() {
			k.Summons.DespawnEntry(k.World, EntryWorldTrig)
			k.World.RemoveAura(k.Me(), SpellDarkBanished)
			if u, ok := k.Self(); ok {
				k.World.MovePoint(k.Me(), pointStartLastPhase, u.Home())
			}
		}},
	}
	k.Log.Debug("scene started", logx.Int("steps", len(scene)))
	for _, step := range scene {
		k.Scheduler().Schedule(step.at, func(*schedule.Context) { step.fn() }, schedule.InGroup(1), schedule.WithID(taskScene))
	}
}

func (k *Kaelthas) startLastPhase() {
	k.World.RemoveAura(k.Me(), SpellFullPower)
	if u, ok := k.Self(); ok {
		u.RemoveFlag(encounter.FlagNotSelectable)
		u.RemoveFlag(encounter.FlagNonAttackable)
		u.RemoveFlag(encounter.FlagPassive)
	}
	k.Scheduler().DelayAll(60 * time.Second)
	k.ScheduleTimedEvent(0, func() { k.DoCastVictim(SpellFireball) }, 2*time.Second, 3200*time.Millisecond, 0)
	k.ScheduleTimedEvent(10*time.Second, func() { k.DoCastRandom(SpellFlameStrike, 100, false) }, 20*time.Second, 20*time.Second, 0)
	k.ScheduleTimedEvent(20*time.Second, func() {
		k.Talk(saySummonPhoenix)
		k.summonPhoenix()
	}, 40*time.Second, 40*time.Second, 0)
	k.ScheduleTimedEvent(5*time.Second, k.gravityLapse, 90*time.Second, 90*time.Second, 0)
	if v, ok := k.SelectTarget(encounter.TargetQuery{Method: encounter.TargetMaxThreat}); ok {
		k.AttackStart(v)
	}
}

// gravityLapse holds every other ability for thirty seconds while the raid
// floats, beams and vapors doing the damage.
func (k *Kaelthas) gravityLapse() {
	s := k.Scheduler()
	s.DelayAll(30 * time.Second)
	k.ScheduleUniqueTimedEvent(32*time.Second, k.endGravityLapse, taskGravityLapseEnd)
	s.CancelID(taskShockBarrier)
	s.CancelID(taskNetherBeam)
	k.ScheduleTimedEvent(10*time.Second, func() { k.DoCastSelf(SpellShockBarrier) }, 10*time.Second, 10*time.Second, taskShockBarrier)
	k.ScheduleTimedEvent(4*time.Second, func() { k.DoCastSelf(SpellNetherBeam) }, 4*time.Second, 4*time.Second, taskNetherBeam)

	if u, ok := k.Self(); ok {
		if k.World.Cast(k.Me(), k.Me(), SpellSummonNetherVapor, true) {
			k.Summon(EntryNetherVapor, u.Position(), encounter.Despawn{Kind: encounter.DespawnTimed, After: 35 * time.Second})
		}
		u.SetFlag(encounter.FlagPassive)
	}
	k.castSelf(SpellShockBarrier, SpellGravityLapse)
	k.Talk(sayGravityLapse)
}

func (k *Kaelthas) endGravityLapse() {
	k.Summons.DespawnEntry(k.World, EntryNetherVapor)
	k.Scheduler().CancelID(taskNetherBeam)
	k.Scheduler().CancelID(taskShockBarrier)
	u, ok := k.Self()
	if !ok {
		return
	}
	u.RemoveFlag(encounter.FlagPassive)
	if v, ok := k.SelectTarget(encounter.TargetQuery{Method: encounter.TargetMaxThreat}); ok {
		k.AttackStart(v)
	}
}

func (k *Kaelthas) JustDied(killer encounter.ActorID) {
	if u, ok := k.Self(); ok {
		u.RemoveFlag(encounter.FlagNonAttackable)
		u.RemoveFlag(encounter.FlagNotSelectable)
	}
	k.Talk(sayDeath)
	k.BossAI.JustDied(killer)
}

// UpdateAI drives the roleplay and prefight clocks unconditionally. Kael
// has no victim before the final phase, so his own scheduler runs as long
// as he is in combat.
func (k *Kaelthas) UpdateAI(diff time.Duration) {
	u, ok := k.Self()
	if !ok || !u.IsAlive() {
		return
	}
	if err := k.rp.Update(diff); err != nil {
		k.Log.Warn("roleplay task failed", logx.Err(err))
	}
	if !u.IsInCombat() {
		return
	}
	k.prefight.Update(diff)
	for id := k.prefight.ExecuteEvent(); id != schedule.NoEvent; id = k.prefight.ExecuteEvent() {
		k.runPrefight(id)
	}
	k.RunScheduler(diff)
}
