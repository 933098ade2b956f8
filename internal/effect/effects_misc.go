package effect

// multiHit decides how many times the skill hits, drawing once from the
// inclusive range [minHits, maxHits].
// args: minHits (2), maxHits (5)
type multiHit struct{ base }

func newMultiHit() Effect {
	return &multiHit{base{EidMultiHit, "multi_hit", BeforeDamageCalc}}
}

func (e *multiHit) Execute(ctx *Context) []Result {
	lo, hi := ctx.Arg(0, 2), ctx.Arg(1, 5)
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	hits := lo + ctx.Rand.IntN(hi-lo+1)
	r := e.result("multi_hit", TargetDefender, true, hits, "連續攻擊")
	r.Data = map[string]int{"min": lo, "max": hi}
	return []Result{r}
}

// ppDrain removes PP from the defender's last used move.
// args: amount (4)
type ppDrain struct{ base }

func newPPDrain() Effect {
	return &ppDrain{base{EidPPDrain, "pp_drain", AfterDamageApply}}
}

func (e *ppDrain) Execute(ctx *Context) []Result {
	amount := ctx.Arg(0, 4)
	move := ctx.Defender.LastMove
	if move == 0 || ctx.Defender.PP(move) == 0 {
		return e.fail("pp_failed", TargetDefender, "PP 已耗盡")
	}
	drained := ctx.Defender.DrainPP(move, amount)
	r := e.result("pp_drain", TargetDefender, drained > 0, drained, "減少 PP")
	r.Data = map[string]int{"skill": move, "pp": ctx.Defender.PP(move)}
	return []Result{r}
}
