package effect

import (
	"math/rand/v2"
	"testing"

	"github.com/seergo/server/internal/battle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixedRand returns the same draw every time.
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

func newPet(hp, maxHP int) *battle.Participant {
	return &battle.Participant{
		HP:      hp,
		MaxHP:   maxHP,
		Skills:  []int{10001, 10002},
		SkillPP: []int{20, 10},
	}
}

func run(t *testing.T, eid int, ctx *Context) []Result {
	t.Helper()
	reg, err := RegisterAll()
	require.NoError(t, err)
	e, err := reg.Lookup(eid)
	require.NoError(t, err)
	if ctx.Rand == nil {
		ctx.Rand = fixedRand{f: 0.5}
	}
	return e.Execute(ctx)
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []int{1, -2, 30}, ParseArgs("1 -2 30"))
	assert.Equal(t, []int{1, 2, 3}, ParseArgs("1,2, 3"))
	assert.Equal(t, []int{5, 7}, ParseArgs(" 5\tx 7 "))
	assert.Nil(t, ParseArgs(""))
	assert.Nil(t, ParseArgs(" , "))
}

func TestContextArgDefaults(t *testing.T) {
	ctx := &Context{Args: []int{3}}
	assert.Equal(t, 3, ctx.Arg(0, 9))
	assert.Equal(t, 9, ctx.Arg(1, 9))
	assert.Equal(t, 9, ctx.Arg(-1, 9))
}

func TestAbsorbScenario(t *testing.T) {
	atk, def := newPet(50, 200), newPet(100, 100)
	out := run(t, EidAbsorb, &Context{Attacker: atk, Defender: def, Damage: 100, Args: []int{50}})

	require.Len(t, out, 1)
	assert.Equal(t, "absorb", out[0].Type)
	assert.True(t, out[0].Success)
	assert.Equal(t, 50, out[0].Value)
	assert.Equal(t, 100, atk.HP)
	assert.Equal(t, TargetAttacker, out[0].Target)
}

func TestAbsorbFailsAtFullHP(t *testing.T) {
	atk := newPet(200, 200)
	out := run(t, EidAbsorb, &Context{Attacker: atk, Defender: newPet(10, 10), Damage: 100})
	require.Len(t, out, 1)
	assert.False(t, out[0].Success)
	assert.Equal(t, "absorb_failed", out[0].Type)
	assert.Equal(t, 200, atk.HP)
}

func TestStatDownClampScenario(t *testing.T) {
	def := newPet(100, 100)
	def.Levels[battle.LevelDef] = -5
	var got []int
	for i := 0; i < 3; i++ {
		out := run(t, EidStatDown, &Context{Attacker: newPet(1, 1), Defender: def, Args: []int{1, 1}})
		require.Len(t, out, 1)
		assert.True(t, out[0].Success)
		got = append(got, out[0].Value)
	}
	assert.Equal(t, []int{-6, -6, -6}, got)
	assert.Equal(t, -6, def.Levels[battle.LevelDef])
}

func TestLevelsStayClamped(t *testing.T) {
	for _, delta := range []int{-100, -13, -7, -1, 0, 1, 7, 13, 100} {
		for stat := 0; stat < battle.LevelCount; stat++ {
			atk, def := newPet(1, 1), newPet(1, 1)
			run(t, EidStatUp, &Context{Attacker: atk, Defender: def, Args: []int{stat, delta}})
			run(t, EidStatDown, &Context{Attacker: atk, Defender: def, Args: []int{stat, delta}})
			for i := 0; i < battle.LevelCount; i++ {
				assert.GreaterOrEqual(t, atk.Levels[i], battle.MinLevel)
				assert.LessOrEqual(t, atk.Levels[i], battle.MaxLevel)
				assert.GreaterOrEqual(t, def.Levels[i], battle.MinLevel)
				assert.LessOrEqual(t, def.Levels[i], battle.MaxLevel)
			}
		}
	}
}

func TestStatChangeInvalidIndex(t *testing.T) {
	def := newPet(1, 1)
	out := run(t, EidStatDown, &Context{Attacker: newPet(1, 1), Defender: def, Args: []int{6, 1}})
	require.Len(t, out, 1)
	assert.False(t, out[0].Success)
	assert.Equal(t, [battle.LevelCount]int{}, def.Levels)
}

func TestProbabilityBoundaries(t *testing.T) {
	// Draws at both ends of [0,1) must not matter for 0 and 100.
	for _, f := range []float64{0, 0.5, 0.999999} {
		def := newPet(100, 100)
		out := run(t, EidParalysis, &Context{Attacker: newPet(1, 1), Defender: def, Args: []int{100, 2}, Rand: fixedRand{f: f}})
		require.Len(t, out, 1)
		assert.True(t, out[0].Success, "chance 100 draw %v", f)
		assert.Equal(t, battle.StatusParalysis, def.Status)

		def = newPet(100, 100)
		out = run(t, EidParalysis, &Context{Attacker: newPet(1, 1), Defender: def, Args: []int{0, 2}, Rand: fixedRand{f: f}})
		require.Len(t, out, 1)
		assert.Equal(t, "probability_failed", out[0].Type)
		assert.False(t, out[0].Success)
		assert.Equal(t, battle.StatusNone, def.Status)
	}
}

func TestProbabilityGate(t *testing.T) {
	def := newPet(100, 100)
	out := run(t, EidFlinch, &Context{Attacker: newPet(1, 1), Defender: def, Args: []int{30}, Rand: fixedRand{f: 0.3}})
	assert.Equal(t, "probability_failed", out[0].Type)
	assert.False(t, def.Flinched)

	out = run(t, EidFlinch, &Context{Attacker: newPet(1, 1), Defender: def, Args: []int{30}, Rand: fixedRand{f: 0.29}})
	assert.True(t, out[0].Success)
	assert.True(t, def.Flinched)
}

func TestMainStatusExclusive(t *testing.T) {
	def := newPet(100, 100)
	out := run(t, EidPoison, &Context{Attacker: newPet(1, 1), Defender: def, Args: []int{100}})
	require.True(t, out[0].Success)
	assert.Equal(t, battle.StatusPoison, def.Status)
	assert.Equal(t, battle.TurnsUntilEnd, def.StatusTurns)

	for _, eid := range []int{EidParalysis, EidBurn, EidFreeze, EidSleep, EidFear, EidConfusion, EidPoison} {
		out := run(t, eid, &Context{Attacker: newPet(1, 1), Defender: def, Args: []int{100, 5}})
		require.Len(t, out, 1)
		assert.False(t, out[0].Success)
		assert.Equal(t, "status_failed", out[0].Type)
		assert.Equal(t, battle.StatusPoison, def.Status)
		assert.Equal(t, battle.TurnsUntilEnd, def.StatusTurns)
	}
}

func TestVolatileFlagsCoexist(t *testing.T) {
	atk, def := newPet(100, 100), newPet(100, 100)
	def.LastMove = 10001
	run(t, EidSleep, &Context{Attacker: atk, Defender: def})
	run(t, EidBound, &Context{Attacker: atk, Defender: def})
	run(t, EidFlinch, &Context{Attacker: atk, Defender: def, Args: []int{100}})
	run(t, EidEncore, &Context{Attacker: atk, Defender: def})

	assert.Equal(t, battle.StatusSleep, def.Status)
	assert.True(t, def.Bound)
	assert.Equal(t, 4, def.BoundTurns)
	assert.True(t, def.Flinched)
	assert.True(t, def.Encore)
	assert.Equal(t, 3, def.EncoreTurns)

	out := run(t, EidFatigue, &Context{Attacker: atk, Defender: def})
	assert.True(t, out[0].Success)
	assert.True(t, atk.Fatigue)
}

func TestEncoreNeedsLastMove(t *testing.T) {
	def := newPet(100, 100)
	out := run(t, EidEncore, &Context{Attacker: newPet(1, 1), Defender: def})
	assert.Equal(t, "encore_failed", out[0].Type)
	assert.False(t, def.Encore)
}

func TestHPStaysInRange(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	atk, def := newPet(30, 120), newPet(80, 90)
	hpEffects := []int{EidAbsorb, EidRecoil, EidHeal, EidMercy, EidReflect}
	for i := 0; i < 2000; i++ {
		eid := hpEffects[r.IntN(len(hpEffects))]
		dmg := r.IntN(1000) - 100
		pct := r.IntN(400) - 50
		run(t, eid, &Context{Attacker: atk, Defender: def, Damage: dmg, Args: []int{pct}, Rand: r})
		if r.IntN(10) == 0 {
			def.Damage(r.IntN(200))
		}
		require.GreaterOrEqual(t, atk.HP, 0)
		require.LessOrEqual(t, atk.HP, atk.MaxHP)
		require.GreaterOrEqual(t, def.HP, 0)
		require.LessOrEqual(t, def.HP, def.MaxHP)
	}
}

func TestRecoilFloors(t *testing.T) {
	atk := newPet(100, 100)
	out := run(t, EidRecoil, &Context{Attacker: atk, Defender: newPet(1, 1), Damage: 99, Args: []int{25}})
	assert.Equal(t, 24, out[0].Value)
	assert.Equal(t, 76, atk.HP)
}

func TestHealFailsAtFullHP(t *testing.T) {
	atk := newPet(100, 100)
	out := run(t, EidHeal, &Context{Attacker: atk, Defender: newPet(1, 1)})
	assert.Equal(t, "heal_failed", out[0].Type)

	atk.HP = 10
	out = run(t, EidHeal, &Context{Attacker: atk, Defender: newPet(1, 1), Args: []int{33}})
	assert.True(t, out[0].Success)
	assert.Equal(t, 33, out[0].Value)
	assert.Equal(t, 43, atk.HP)
}

func TestMercy(t *testing.T) {
	def := newPet(0, 100)
	out := run(t, EidMercy, &Context{Attacker: newPet(1, 1), Defender: def})
	require.Len(t, out, 1)
	assert.Equal(t, "mercy", out[0].Type)
	assert.True(t, out[0].Success)
	assert.Equal(t, 1, def.HP)

	for _, hp := range []int{1, 2, 50, 100} {
		def := newPet(hp, 100)
		out := run(t, EidMercy, &Context{Attacker: newPet(1, 1), Defender: def})
		assert.Empty(t, out)
		assert.Equal(t, hp, def.HP)
	}
}

func TestReflect(t *testing.T) {
	atk, def := newPet(60, 100), newPet(100, 100)
	out := run(t, EidReflect, &Context{Attacker: atk, Defender: def})
	assert.Equal(t, 20, out[0].Value)
	assert.Equal(t, 80, def.HP)
}

func TestShield(t *testing.T) {
	atk := newPet(100, 200)
	out := run(t, EidShield, &Context{Attacker: atk, Defender: newPet(1, 1)})
	assert.True(t, out[0].Success)
	assert.Equal(t, 50, atk.Shield)
	assert.Equal(t, 3, atk.ShieldTurns)
}

func TestMultiHitRange(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	seen := map[int]int{}
	for i := 0; i < 1000; i++ {
		out := run(t, EidMultiHit, &Context{Attacker: newPet(1, 1), Defender: newPet(1, 1), Args: []int{2, 5}, Rand: r})
		require.Len(t, out, 1)
		hits := out[0].Value
		require.GreaterOrEqual(t, hits, 2)
		require.LessOrEqual(t, hits, 5)
		seen[hits]++
	}
	for h := 2; h <= 5; h++ {
		assert.Positive(t, seen[h], "hits=%d never drawn", h)
	}
}

func TestPunishment(t *testing.T) {
	def := newPet(1, 1)
	def.Levels = [battle.LevelCount]int{2, -3, 1, 0, 0, 0}
	out := run(t, EidPunishment, &Context{Attacker: newPet(1, 1), Defender: def})
	assert.Equal(t, 60, out[0].Value)

	def.Levels = [battle.LevelCount]int{6, 6, 6, 6, 6, 6}
	out = run(t, EidPunishment, &Context{Attacker: newPet(1, 1), Defender: def, Args: []int{20, 200}})
	assert.Equal(t, 200, out[0].Value)
}

func TestPPDrain(t *testing.T) {
	def := newPet(1, 1)
	out := run(t, EidPPDrain, &Context{Attacker: newPet(1, 1), Defender: def})
	assert.Equal(t, "pp_failed", out[0].Type)

	def.LastMove = 10002
	def.SkillPP[1] = 3
	out = run(t, EidPPDrain, &Context{Attacker: newPet(1, 1), Defender: def})
	assert.True(t, out[0].Success)
	assert.Equal(t, 3, out[0].Value)
	assert.Equal(t, 0, def.PP(10002))

	out = run(t, EidPPDrain, &Context{Attacker: newPet(1, 1), Defender: def})
	assert.Equal(t, "pp_failed", out[0].Type)
}

func TestClearLevels(t *testing.T) {
	atk, def := newPet(1, 1), newPet(1, 1)
	atk.Levels[0], def.Levels[4] = 3, -2
	out := run(t, EidClearLevels, &Context{Attacker: atk, Defender: def})
	assert.True(t, out[0].Success)
	assert.Equal(t, TargetBoth, out[0].Target)
	assert.Equal(t, [battle.LevelCount]int{}, atk.Levels)
	assert.Equal(t, [battle.LevelCount]int{}, def.Levels)
}

func TestNewPipelineNopLogger(t *testing.T) {
	reg, err := RegisterAll()
	require.NoError(t, err)
	p := NewPipeline(reg, zap.NewNop())
	assert.Same(t, reg, p.Registry())
}
