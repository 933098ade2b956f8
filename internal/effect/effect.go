// Package effect resolves skill effects: a registry of effect
// implementations keyed by Eid, and the pipeline that runs the effects
// attached to one skill use in declaration order.
package effect

import (
	"github.com/seergo/server/internal/battle"
)

// Timing is the point in skill resolution at which an effect runs.
// A single effect may declare several timings.
type Timing uint8

const (
	BeforeDamageCalc Timing = 1 << iota
	AfterDamageApply
)

func (t Timing) Has(phase Timing) bool {
	return t&phase != 0
}

func (t Timing) String() string {
	switch t {
	case BeforeDamageCalc:
		return "BEFORE_DAMAGE_CALC"
	case AfterDamageApply:
		return "AFTER_DAMAGE_APPLY"
	case BeforeDamageCalc | AfterDamageApply:
		return "BEFORE_DAMAGE_CALC|AFTER_DAMAGE_APPLY"
	default:
		return "NONE"
	}
}

// Target says whose state a result describes.
type Target uint8

const (
	TargetAttacker Target = iota
	TargetDefender
	TargetBoth
)

func (t Target) String() string {
	switch t {
	case TargetAttacker:
		return "attacker"
	case TargetDefender:
		return "defender"
	default:
		return "both"
	}
}

// Result is one record produced by an effect execution. Results are
// appended in execution order and never modified afterwards.
type Result struct {
	EffectID int
	Name     string
	Type     string
	Target   Target
	Success  bool
	Value    int
	Message  string
	Data     map[string]int
}

// Context is the per-invocation input of an effect.
type Context struct {
	SkillID  int
	Attacker *battle.Participant
	Defender *battle.Participant
	Damage   int // damage already dealt this exchange (0 before damage calc)
	Args     []int
	Rand     battle.Rand
}

// Arg returns argument i, or def when the skill did not supply it.
func (c *Context) Arg(i, def int) int {
	if i < 0 || i >= len(c.Args) {
		return def
	}
	return c.Args[i]
}

// Effect is one executable skill effect.
type Effect interface {
	ID() int
	Name() string
	Timings() Timing
	// Execute mutates the participants and reports what happened. Expected
	// domain outcomes (failed roll, status already present, full HP) are
	// returned as unsuccessful results, never as panics.
	Execute(ctx *Context) []Result
}

// Descriptor identifies an effect without executing it.
type Descriptor struct {
	ID      int
	Name    string
	Timings Timing
}

// Describe returns the descriptor of e.
func Describe(e Effect) Descriptor {
	return Descriptor{ID: e.ID(), Name: e.Name(), Timings: e.Timings()}
}
