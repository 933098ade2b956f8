package effect

import "github.com/seergo/server/internal/battle"

// mainStatus applies one of the mutually exclusive main statuses to the
// defender. Each status has its own default chance and duration; a default
// duration of battle.TurnsUntilEnd lasts until the battle ends.
// args: chance, turns
type mainStatus struct {
	base
	status        battle.Status
	defaultChance int
	defaultTurns  int
}

func newStatusEffect(eid int, s battle.Status, chance, turns int) func() Effect {
	return func() Effect {
		return &mainStatus{
			base:          base{eid, s.String(), AfterDamageApply},
			status:        s,
			defaultChance: chance,
			defaultTurns:  turns,
		}
	}
}

func (e *mainStatus) Execute(ctx *Context) []Result {
	chance, turns := ctx.Arg(0, e.defaultChance), ctx.Arg(1, e.defaultTurns)
	if turns <= 0 {
		turns = battle.TurnsUntilEnd
	}
	if !battle.Chance(ctx.Rand, chance) {
		return e.probabilityFailed(TargetDefender, chance)
	}
	if !ctx.Defender.SetStatus(e.status, turns) {
		r := e.result("status_failed", TargetDefender, false, 0, "目標已有異常狀態")
		r.Data = map[string]int{"current": int(ctx.Defender.Status)}
		return []Result{r}
	}
	r := e.result("status", TargetDefender, true, int(e.status), "陷入"+e.status.String())
	r.Data = map[string]int{"turns": turns}
	return []Result{r}
}

// bound traps the defender; it loses HP at the end of each round.
// args: chance (100), turns (4)
type bound struct{ base }

func newBound() Effect {
	return &bound{base{EidBound, "bound", AfterDamageApply}}
}

func (e *bound) Execute(ctx *Context) []Result {
	chance, turns := ctx.Arg(0, 100), ctx.Arg(1, 4)
	if !battle.Chance(ctx.Rand, chance) {
		return e.probabilityFailed(TargetDefender, chance)
	}
	if ctx.Defender.Bound {
		return e.fail("bound_failed", TargetDefender, "目標已被束縛")
	}
	ctx.Defender.Bound = true
	ctx.Defender.BoundTurns = turns
	return []Result{e.result("bound", TargetDefender, true, turns, "束縛")}
}

// fatigue leaves the attacker unable to act for the next turns.
// args: turns (1)
type fatigue struct{ base }

func newFatigue() Effect {
	return &fatigue{base{EidFatigue, "fatigue", AfterDamageApply}}
}

func (e *fatigue) Execute(ctx *Context) []Result {
	turns := ctx.Arg(0, 1)
	if turns <= 0 {
		return e.fail("fatigue_failed", TargetAttacker, "無效的回合數")
	}
	ctx.Attacker.Fatigue = true
	ctx.Attacker.FatigueTurns = turns
	return []Result{e.result("fatigue", TargetAttacker, true, turns, "疲憊")}
}

// flinch makes the defender lose its action if it has not acted yet this
// round. The flag clears at the end of the round.
// args: chance (30)
type flinch struct{ base }

func newFlinch() Effect {
	return &flinch{base{EidFlinch, "flinch", AfterDamageApply}}
}

func (e *flinch) Execute(ctx *Context) []Result {
	chance := ctx.Arg(0, 30)
	if !battle.Chance(ctx.Rand, chance) {
		return e.probabilityFailed(TargetDefender, chance)
	}
	ctx.Defender.Flinched = true
	return []Result{e.result("flinch", TargetDefender, true, 1, "畏縮")}
}

// encore forces the defender to repeat its last move.
// args: turns (3)
type encore struct{ base }

func newEncore() Effect {
	return &encore{base{EidEncore, "encore", AfterDamageApply}}
}

func (e *encore) Execute(ctx *Context) []Result {
	turns := ctx.Arg(0, 3)
	if ctx.Defender.LastMove == 0 {
		return e.fail("encore_failed", TargetDefender, "目標尚未使用技能")
	}
	if ctx.Defender.Encore {
		return e.fail("encore_failed", TargetDefender, "目標已被再來一次")
	}
	ctx.Defender.Encore = true
	ctx.Defender.EncoreTurns = turns
	r := e.result("encore", TargetDefender, true, turns, "再來一次")
	r.Data = map[string]int{"skill": ctx.Defender.LastMove}
	return []Result{r}
}
