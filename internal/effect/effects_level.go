package effect

import "github.com/seergo/server/internal/battle"

// statChange shifts one battle level of the defender (down) or the
// attacker (up) after a chance roll.
// args: stat (0), stages (1), chance (100)
type statChange struct {
	base
	sign int
}

func newStatDown() Effect {
	return &statChange{base: base{EidStatDown, "stat_down", AfterDamageApply}, sign: -1}
}

func newStatUp() Effect {
	return &statChange{base: base{EidStatUp, "stat_up", AfterDamageApply}, sign: 1}
}

func (e *statChange) Execute(ctx *Context) []Result {
	stat, stages, chance := ctx.Arg(0, 0), ctx.Arg(1, 1), ctx.Arg(2, 100)

	target, who := ctx.Defender, TargetDefender
	if e.sign > 0 {
		target, who = ctx.Attacker, TargetAttacker
	}
	if !battle.ValidLevel(stat) {
		return e.fail(e.name, who, "無效的能力索引")
	}
	if !battle.Chance(ctx.Rand, chance) {
		return e.probabilityFailed(who, chance)
	}

	level := target.AddLevel(stat, e.sign*stages)
	r := e.result(e.name, who, true, level, "能力等級變化")
	r.Data = map[string]int{"stat": stat, "stages": stages, "level": level}
	return []Result{r}
}

// clearLevels resets every battle level of both participants.
type clearLevels struct{ base }

func newClearLevels() Effect {
	return &clearLevels{base{EidClearLevels, "clear_levels", AfterDamageApply}}
}

func (e *clearLevels) Execute(ctx *Context) []Result {
	changed := ctx.Attacker.Levels != [battle.LevelCount]int{} ||
		ctx.Defender.Levels != [battle.LevelCount]int{}
	ctx.Attacker.ResetLevels()
	ctx.Defender.ResetLevels()
	return []Result{e.result("clear_levels", TargetBoth, changed, 0, "雙方能力等級重置")}
}

// punishment adds power for every positive level the defender holds.
// args: perStage (20), cap (200)
type punishment struct{ base }

func newPunishment() Effect {
	return &punishment{base{EidPunishment, "punishment", BeforeDamageCalc}}
}

func (e *punishment) Execute(ctx *Context) []Result {
	perStage, limit := ctx.Arg(0, 20), ctx.Arg(1, 200)
	stages := 0
	for _, lv := range ctx.Defender.Levels {
		if lv > 0 {
			stages += lv
		}
	}
	bonus := min(limit, perStage*stages)
	if bonus < 0 {
		bonus = 0
	}
	r := e.result("punishment", TargetDefender, bonus > 0, bonus, "懲罰加成")
	r.Data = map[string]int{"stages": stages}
	return []Result{r}
}
