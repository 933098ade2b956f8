package effect

// absorb: the attacker heals a percentage of the damage it dealt.
// args: healPercent (50)
type absorb struct{ base }

func newAbsorb() Effect {
	return &absorb{base{EidAbsorb, "absorb", AfterDamageApply}}
}

func (e *absorb) Execute(ctx *Context) []Result {
	pct := ctx.Arg(0, 50)
	if ctx.Damage <= 0 {
		return e.fail("absorb_failed", TargetAttacker, "沒有造成傷害")
	}
	if ctx.Attacker.FullHP() {
		return e.fail("absorb_failed", TargetAttacker, "體力已滿")
	}
	healed := ctx.Attacker.Heal(percentOf(ctx.Damage, pct))
	r := e.result("absorb", TargetAttacker, healed > 0, healed, "吸取體力")
	r.Data = map[string]int{"healPercent": pct, "hp": ctx.Attacker.HP}
	return []Result{r}
}

// recoil: the attacker loses a percentage of the damage it dealt.
// args: percent (25)
type recoil struct{ base }

func newRecoil() Effect {
	return &recoil{base{EidRecoil, "recoil", AfterDamageApply}}
}

func (e *recoil) Execute(ctx *Context) []Result {
	pct := ctx.Arg(0, 25)
	lost := ctx.Attacker.Damage(percentOf(ctx.Damage, pct))
	r := e.result("recoil", TargetAttacker, lost > 0, lost, "受到反作用力傷害")
	r.Data = map[string]int{"percent": pct, "hp": ctx.Attacker.HP}
	return []Result{r}
}

// heal: the attacker restores a percentage of its max HP.
// args: percent (50)
type heal struct{ base }

func newHeal() Effect {
	return &heal{base{EidHeal, "heal", AfterDamageApply}}
}

func (e *heal) Execute(ctx *Context) []Result {
	pct := ctx.Arg(0, 50)
	if ctx.Attacker.FullHP() {
		return e.fail("heal_failed", TargetAttacker, "體力已滿")
	}
	healed := ctx.Attacker.Heal(percentOf(ctx.Attacker.MaxHP, pct))
	r := e.result("heal", TargetAttacker, healed > 0, healed, "恢復體力")
	r.Data = map[string]int{"percent": pct, "hp": ctx.Attacker.HP}
	return []Result{r}
}

// mercy: a hit that would knock the defender out leaves it at 1 HP.
// It produces nothing unless the defender is at 0 HP.
type mercy struct{ base }

func newMercy() Effect {
	return &mercy{base{EidMercy, "mercy", AfterDamageApply}}
}

func (e *mercy) Execute(ctx *Context) []Result {
	if ctx.Defender.HP > 0 {
		return nil
	}
	ctx.Defender.HP = 1
	return []Result{e.result("mercy", TargetDefender, true, 1, "手下留情")}
}

// reflect: the defender takes a percentage of the HP the attacker is missing.
// args: percent (50)
type reflectHit struct{ base }

func newReflect() Effect {
	return &reflectHit{base{EidReflect, "reflect", AfterDamageApply}}
}

func (e *reflectHit) Execute(ctx *Context) []Result {
	pct := ctx.Arg(0, 50)
	missing := ctx.Attacker.MaxHP - ctx.Attacker.HP
	dealt := ctx.Defender.Damage(percentOf(missing, pct))
	r := e.result("reflect", TargetDefender, dealt > 0, dealt, "反彈傷害")
	r.Data = map[string]int{"percent": pct, "hp": ctx.Defender.HP}
	return []Result{r}
}

// shield: the attacker gains a damage-absorbing shield.
// args: percent of max HP (25), turns (3)
type shield struct{ base }

func newShield() Effect {
	return &shield{base{EidShield, "shield", AfterDamageApply}}
}

func (e *shield) Execute(ctx *Context) []Result {
	pct, turns := ctx.Arg(0, 25), ctx.Arg(1, 3)
	amount := percentOf(ctx.Attacker.MaxHP, pct)
	if amount <= 0 || turns <= 0 {
		return e.fail("shield_failed", TargetAttacker, "護盾無效")
	}
	ctx.Attacker.Shield = amount
	ctx.Attacker.ShieldTurns = turns
	r := e.result("shield", TargetAttacker, true, amount, "獲得護盾")
	r.Data = map[string]int{"turns": turns}
	return []Result{r}
}
