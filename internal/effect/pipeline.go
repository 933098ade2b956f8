package effect

import (
	"github.com/seergo/server/internal/battle"
	"go.uber.org/zap"
)

// Slot is one effect attached to a skill, as declared in game data.
type Slot struct {
	EffectID int
	Args     string
}

// Use is the input of one skill use.
type Use struct {
	SkillID  int
	Slots    []Slot
	Attacker *battle.Participant
	Defender *battle.Participant
	Rand     battle.Rand
}

// Pipeline runs the timing-gated effect chain of a skill use.
// It is synchronous and performs no I/O.
type Pipeline struct {
	reg *Registry
	log *zap.Logger
}

func NewPipeline(reg *Registry, log *zap.Logger) *Pipeline {
	return &Pipeline{reg: reg, log: log}
}

// Registry returns the registry the pipeline resolves effects from.
func (p *Pipeline) Registry() *Registry {
	return p.reg
}

// Run executes, in the skill's declaration order, every slot whose effect
// declares phase. damage is the damage already dealt this exchange.
// Slots with unknown Eids are skipped with a warning. There is no rollback:
// each effect's mutations stand even if a later one fails.
func (p *Pipeline) Run(phase Timing, use Use, damage int) []Result {
	var results []Result
	for i, slot := range use.Slots {
		e, err := p.reg.Lookup(slot.EffectID)
		if err != nil {
			p.log.Warn("技能效果未實作，略過",
				zap.Int("skill", use.SkillID),
				zap.Int("slot", i),
				zap.Int("eid", slot.EffectID),
			)
			continue
		}
		if !e.Timings().Has(phase) {
			continue
		}
		ctx := &Context{
			SkillID:  use.SkillID,
			Attacker: use.Attacker,
			Defender: use.Defender,
			Damage:   damage,
			Args:     ParseArgs(slot.Args),
			Rand:     use.Rand,
		}
		out := e.Execute(ctx)
		p.log.Debug("技能效果執行",
			zap.Int("skill", use.SkillID),
			zap.Int("eid", slot.EffectID),
			zap.Stringer("phase", phase),
			zap.Int("results", len(out)),
		)
		results = append(results, out...)
	}
	return results
}

// Before runs the BEFORE_DAMAGE_CALC phase.
func (p *Pipeline) Before(use Use) []Result {
	return p.Run(BeforeDamageCalc, use, 0)
}

// After runs the AFTER_DAMAGE_APPLY phase with the damage just dealt.
func (p *Pipeline) After(use Use, damage int) []Result {
	return p.Run(AfterDamageApply, use, damage)
}
