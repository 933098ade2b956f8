package battle

// Rand is the random source a battle draws from. *math/rand/v2.Rand
// satisfies it; battles own their source so no locking is needed.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Chance reports whether a percentage gate passes: uniform()*100 < chance.
// 0 never passes and 100 always passes without drawing.
func Chance(r Rand, chance int) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 100 {
		return true
	}
	return r.Float64()*100 < float64(chance)
}

// SkipReason explains why a participant could not act this round.
type SkipReason uint8

const (
	SkipNone     SkipReason = iota
	SkipFainted
	SkipFlinched
	SkipFatigued
	SkipStatus              // sleep / freeze / paralysis / fear
	SkipConfused            // confusion roll failed
)

// 混亂時行動失敗的機率（百分比）
const confusionFailChance = 50

// BeginAction decides whether the participant may act and consumes the
// countdown of whatever blocks it.
func (p *Participant) BeginAction(r Rand) SkipReason {
	if p.Fainted() {
		return SkipFainted
	}
	if p.Flinched {
		return SkipFlinched
	}
	if p.Fatigue {
		p.FatigueTurns--
		if p.FatigueTurns <= 0 {
			p.Fatigue = false
			p.FatigueTurns = 0
		}
		return SkipFatigued
	}
	switch p.Status {
	case StatusSleep, StatusFreeze, StatusParalysis, StatusFear:
		p.countDownStatus()
		return SkipStatus
	case StatusConfusion:
		p.countDownStatus()
		if Chance(r, confusionFailChance) {
			return SkipConfused
		}
	}
	return SkipNone
}

func (p *Participant) countDownStatus() {
	if p.StatusTurns == TurnsUntilEnd {
		return
	}
	p.StatusTurns--
	if p.StatusTurns <= 0 {
		p.ClearStatus()
	}
}

// ForcedMove returns the move an encored participant must repeat, consuming
// one encore turn. ok is false when no encore is active.
func (p *Participant) ForcedMove() (skillID int, ok bool) {
	if !p.Encore || p.LastMove == 0 {
		return 0, false
	}
	p.EncoreTurns--
	if p.EncoreTurns <= 0 {
		p.Encore = false
		p.EncoreTurns = 0
	}
	return p.LastMove, true
}

// EndRound applies end-of-round upkeep and returns the HP lost to it.
// Poison and burn drain 1/8 max HP, a bind drains 1/16.
func (p *Participant) EndRound() int {
	p.Flinched = false
	if p.Fainted() {
		return 0
	}

	lost := 0
	switch p.Status {
	case StatusPoison, StatusBurn:
		lost += p.Damage(max(1, p.MaxHP/8))
		p.countDownStatus()
	}
	if p.Bound {
		lost += p.Damage(max(1, p.MaxHP/16))
		p.BoundTurns--
		if p.BoundTurns <= 0 {
			p.Bound = false
			p.BoundTurns = 0
		}
	}
	if p.ShieldTurns > 0 {
		p.ShieldTurns--
		if p.ShieldTurns == 0 {
			p.Shield = 0
		}
	}
	return lost
}
