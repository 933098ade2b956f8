package effect

// base carries the identity shared by every effect implementation.
type base struct {
	id     int
	name   string
	timing Timing
}

func (b base) ID() int         { return b.id }
func (b base) Name() string    { return b.name }
func (b base) Timings() Timing { return b.timing }

func (b base) result(typ string, target Target, success bool, value int, msg string) Result {
	return Result{
		EffectID: b.id,
		Name:     b.name,
		Type:     typ,
		Target:   target,
		Success:  success,
		Value:    value,
		Message:  msg,
	}
}

func (b base) fail(typ string, target Target, msg string) []Result {
	return []Result{b.result(typ, target, false, 0, msg)}
}

// probabilityFailed is the single result of a failed chance gate.
func (b base) probabilityFailed(target Target, chance int) []Result {
	r := b.result("probability_failed", target, false, 0, "機率判定失敗")
	r.Data = map[string]int{"chance": chance}
	return []Result{r}
}

// percentOf returns floor(v*pct/100) for non-negative inputs.
func percentOf(v, pct int) int {
	if v <= 0 || pct <= 0 {
		return 0
	}
	return v * pct / 100
}
