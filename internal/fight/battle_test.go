package fight

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/seergo/server/internal/battle"
	"github.com/seergo/server/internal/data"
	"github.com/seergo/server/internal/effect"
	"github.com/seergo/server/internal/scripting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const playerUID = 5001

// stubRand fails every percentage gate below 100 unless f is lowered.
type stubRand struct{ f float64 }

func (r stubRand) Float64() float64 { return r.f }
func (r stubRand) IntN(int) int     { return 0 }

// fixedDamage returns the same per-hit damage for every call.
type fixedDamage struct {
	dmg   int
	miss  bool
	crit  bool
	calls []scripting.SkillDamageContext
}

func (f *fixedDamage) CalcSkillDamage(ctx scripting.SkillDamageContext) scripting.SkillDamageResult {
	f.calls = append(f.calls, ctx)
	if f.miss {
		return scripting.SkillDamageResult{}
	}
	d := f.dmg
	if ctx.Power <= 0 {
		d = 0
	}
	return scripting.SkillDamageResult{Hit: true, Crit: f.crit, Damage: d}
}

type brainFunc func(ctx scripting.NpcChoiceContext) (int, bool)

func (f brainFunc) ChooseNpcSkill(ctx scripting.NpcChoiceContext) (int, bool) { return f(ctx) }

func loadSkills(t *testing.T) *data.SkillStore {
	t.Helper()
	s, err := data.NewSkillStore(filepath.Join("..", "..", "data", "yaml", "skill_list.yaml"))
	require.NoError(t, err)
	return s
}

func newEnv(t *testing.T, dmg DamageCalculator) *Env {
	t.Helper()
	reg, err := effect.RegisterAll()
	require.NoError(t, err)
	return &Env{
		Pipeline: effect.NewPipeline(reg, zap.NewNop()),
		Skills:   loadSkills(t),
		Damage:   dmg,
		Log:      zap.NewNop(),
	}
}

func playerPet() *battle.Participant {
	return &battle.Participant{
		UserID:    playerUID,
		CatchTime: 77,
		PetID:     4,
		PetType:   2,
		Level:     10,
		HP:        100,
		MaxHP:     100,
		Atk:       20,
		Def:       20,
		SpAtk:     20,
		SpDef:     20,
		Speed:     50,
		Skills:    []int{10001, 10003, 10012, 10017},
		SkillPP:   []int{35, 20, 25, 30},
	}
}

func enemyPet() *battle.Participant {
	return &battle.Participant{
		PetID:   10,
		PetType: 5,
		Level:   5,
		HP:      100,
		MaxHP:   100,
		Atk:     10,
		Def:     10,
		SpAtk:   10,
		SpDef:   10,
		Speed:   10,
		Skills:  []int{10001, 10008},
		SkillPP: []int{35, 25},
	}
}

func TestRoundBasic(t *testing.T) {
	dmg := &fixedDamage{dmg: 10}
	b := New(newEnv(t, dmg), playerPet(), enemyPet(), 1, stubRand{f: 0.99})

	res, err := b.UseSkill(10001)
	require.NoError(t, err)

	assert.Equal(t, uint32(playerUID), res.First.UserID)
	assert.Equal(t, uint32(10001), res.First.SkillID)
	assert.Equal(t, uint32(1), res.First.AtkTimes)
	assert.Equal(t, uint32(10), res.First.LostHP)
	assert.Equal(t, int32(90), res.First.RemainHP)

	assert.Equal(t, uint32(0), res.Second.UserID)
	assert.Equal(t, uint32(10001), res.Second.SkillID)
	assert.Equal(t, uint32(10), res.Second.LostHP)
	assert.Equal(t, int32(90), res.Second.RemainHP)

	assert.False(t, res.Over)
	assert.Equal(t, 34, b.Player.PP(10001))
	assert.Equal(t, 10001, b.Player.LastMove)
	assert.Equal(t, 1, b.Round)
	require.Len(t, dmg.calls, 2)
	assert.Equal(t, 20, dmg.calls[0].Attack, "physical uses atk")
}

func TestRoundAbsorbFoldsGain(t *testing.T) {
	p := playerPet()
	p.HP = 50
	b := New(newEnv(t, &fixedDamage{dmg: 20}), p, enemyPet(), 1, stubRand{f: 0.99})

	res, err := b.UseSkill(10003)
	require.NoError(t, err)

	assert.Equal(t, uint32(20), res.First.LostHP)
	assert.Equal(t, int32(10), res.First.GainHP)
	// 50 + 10 吸取 - 20 敵方攻擊
	assert.Equal(t, int32(40), res.First.RemainHP)
	assert.Equal(t, int32(80), res.Second.RemainHP)
}

func TestRoundPriorityBeatsSpeed(t *testing.T) {
	p, e := playerPet(), enemyPet()
	p.Speed, e.Speed = 1, 100
	env := newEnv(t, &fixedDamage{dmg: 1})

	res, err := New(env, p.Clone(), e.Clone(), 1, stubRand{f: 0.99}).UseSkill(10001)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.First.UserID, "faster enemy first")

	res, err = New(env, p.Clone(), e.Clone(), 1, stubRand{f: 0.99}).UseSkill(10017)
	require.NoError(t, err)
	assert.Equal(t, uint32(playerUID), res.First.UserID, "priority move first")
}

func TestRoundEnemyFaints(t *testing.T) {
	e := enemyPet()
	e.HP = 5
	b := New(newEnv(t, &fixedDamage{dmg: 10}), playerPet(), e, 1, stubRand{f: 0.99})

	res, err := b.UseSkill(10001)
	require.NoError(t, err)

	assert.Equal(t, uint32(5), res.First.LostHP)
	assert.Equal(t, uint32(0), res.Second.SkillID, "fainted side does not act")
	assert.Equal(t, uint32(0), res.Second.AtkTimes)
	assert.Equal(t, StateFainted, res.Second.State)
	assert.True(t, res.Over)
	assert.Equal(t, uint32(playerUID), res.WinnerID)

	_, err = b.UseSkill(10001)
	assert.ErrorIs(t, err, ErrBattleOver)
}

func TestRoundPlayerFaints(t *testing.T) {
	p, e := playerPet(), enemyPet()
	p.HP, p.Speed = 5, 1
	b := New(newEnv(t, &fixedDamage{dmg: 10}), p, e, 1, stubRand{f: 0.99})

	res, err := b.UseSkill(10001)
	require.NoError(t, err)
	assert.True(t, res.Over)
	assert.Zero(t, res.WinnerID)
	over, winner, reason := b.Over()
	assert.True(t, over)
	assert.Zero(t, winner)
	assert.Equal(t, OverNormal, reason)
}

func TestRoundSkillNotOwned(t *testing.T) {
	b := New(newEnv(t, &fixedDamage{dmg: 10}), playerPet(), enemyPet(), 1, stubRand{f: 0.99})
	_, err := b.UseSkill(10011)
	assert.ErrorIs(t, err, ErrSkillNotOwned)
	assert.Zero(t, b.Round)
}

func TestRoundNoPPIsNormalPacket(t *testing.T) {
	p := playerPet()
	p.SkillPP[0] = 0
	b := New(newEnv(t, &fixedDamage{dmg: 10}), p, enemyPet(), 1, stubRand{f: 0.99})

	res, err := b.UseSkill(10001)
	require.NoError(t, err)
	assert.Equal(t, uint32(10001), res.First.SkillID)
	assert.Zero(t, res.First.AtkTimes)
	assert.Zero(t, res.First.LostHP)
	assert.Equal(t, 100, b.Enemy.HP)
}

func TestRoundMissSkipsAfterEffects(t *testing.T) {
	p := playerPet()
	p.HP = 50
	b := New(newEnv(t, &fixedDamage{miss: true}), p, enemyPet(), 1, stubRand{f: 0.99})

	res, err := b.UseSkill(10003)
	require.NoError(t, err)
	assert.Zero(t, res.First.AtkTimes)
	assert.Zero(t, res.First.GainHP)
	assert.Equal(t, 50, b.Player.HP)
	assert.Equal(t, 10003, b.Player.LastMove, "a missed move still counts as used")
}

func TestRoundFlinchShownThenCleared(t *testing.T) {
	b := New(newEnv(t, &fixedDamage{dmg: 10}), playerPet(), enemyPet(), 1, stubRand{f: 0})

	res, err := b.UseSkill(10012)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Second.SkillID, "flinched enemy skipped")
	assert.Equal(t, byte(1), res.Second.Status[slotFlinch])
	assert.False(t, b.Enemy.Flinched, "flinch clears at end of round")
}

func TestRoundEncoreForcesLastMove(t *testing.T) {
	p := playerPet()
	p.LastMove = 10001
	p.Encore, p.EncoreTurns = true, 2
	b := New(newEnv(t, &fixedDamage{dmg: 1}), p, enemyPet(), 1, stubRand{f: 0.99})

	res, err := b.UseSkill(10003)
	require.NoError(t, err)
	assert.Equal(t, uint32(10001), res.First.SkillID)
	assert.Equal(t, byte(1), res.First.Status[slotEncore])
	assert.Equal(t, 20, b.Player.PP(10003), "requested skill untouched")
}

func TestRoundUpkeepInSnapshot(t *testing.T) {
	e := enemyPet()
	e.MaxHP, e.HP = 80, 80
	e.Status, e.StatusTurns = battle.StatusPoison, battle.TurnsUntilEnd
	b := New(newEnv(t, &fixedDamage{dmg: 0}), playerPet(), e, 1, stubRand{f: 0.99})

	res, err := b.UseSkill(10001)
	require.NoError(t, err)
	assert.Equal(t, int32(70), res.Second.RemainHP)
	assert.Equal(t, byte(255), res.Second.Status[battle.StatusPoison])
}

func TestNpcBrainChoice(t *testing.T) {
	env := newEnv(t, &fixedDamage{dmg: 1})
	var seen scripting.NpcChoiceContext
	env.Brain = brainFunc(func(ctx scripting.NpcChoiceContext) (int, bool) {
		seen = ctx
		return 10008, true
	})
	b := New(env, playerPet(), enemyPet(), 1, stubRand{f: 0.99})

	res, err := b.UseSkill(10001)
	require.NoError(t, err)
	assert.Equal(t, uint32(10008), res.Second.SkillID)
	assert.Equal(t, 100, seen.FoeHP)

	// 腳本選到沒有 PP 的技能時退回預設
	b.Enemy.SkillPP[1] = 0
	res, err = b.UseSkill(10001)
	require.NoError(t, err)
	assert.Equal(t, uint32(10001), res.Second.SkillID)
}

func TestUseItemHealsThroughPipeline(t *testing.T) {
	p := playerPet()
	p.HP = 50
	b := New(newEnv(t, &fixedDamage{dmg: 5}), p, enemyPet(), 1, stubRand{f: 0.99})

	res, err := b.UseItem(300011, []data.EffectSlot{{EffectID: effect.EidHeal, Args: "20"}})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.First.SkillID)
	assert.Equal(t, int32(20), res.First.GainHP)
	assert.Equal(t, int32(65), res.First.RemainHP)
	assert.Equal(t, uint32(5), res.Second.LostHP)
}

func TestEscape(t *testing.T) {
	b := New(newEnv(t, &fixedDamage{dmg: 1}), playerPet(), enemyPet(), 1, nil)
	b.Escape()
	over, winner, reason := b.Over()
	assert.True(t, over)
	assert.Zero(t, winner)
	assert.Equal(t, OverEscape, reason)
}

func TestEffectiveSpeed(t *testing.T) {
	p := &battle.Participant{Speed: 100}
	assert.Equal(t, 100, EffectiveSpeed(p))
	p.Levels[battle.LevelSpeed] = 2
	assert.Equal(t, 200, EffectiveSpeed(p))
	p.Levels[battle.LevelSpeed] = -2
	assert.Equal(t, 50, EffectiveSpeed(p))
	p.Levels[battle.LevelSpeed] = 6
	assert.Equal(t, 400, EffectiveSpeed(p))
}

type savedPets struct {
	saved []*battle.Participant
}

func (s *savedPets) LoadParticipant(context.Context, uint32) (*battle.Participant, error) {
	return nil, nil
}

func (s *savedPets) SaveParticipant(_ context.Context, p *battle.Participant) error {
	s.saved = append(s.saved, p)
	return nil
}

func TestManagerFinishSaves(t *testing.T) {
	store := &savedPets{}
	m := NewManager(store)
	_, err := m.Finish(context.Background())
	assert.ErrorIs(t, err, ErrNoBattle)

	b := New(newEnv(t, &fixedDamage{}), playerPet(), enemyPet(), 1, nil)
	require.NoError(t, m.Start(b))
	done, err := m.Finish(context.Background())
	require.NoError(t, err)
	assert.Same(t, b, done)
	require.Len(t, store.saved, 1)
	assert.Same(t, b.Player, store.saved[0])
	assert.False(t, m.InBattle())
}

func TestManager(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Current()
	assert.ErrorIs(t, err, ErrNoBattle)

	b := New(newEnv(t, &fixedDamage{}), playerPet(), enemyPet(), 1, nil)
	require.NoError(t, m.Start(b))
	assert.ErrorIs(t, m.Start(b), ErrAlreadyInBattle)
	assert.True(t, m.InBattle())

	cur, err := m.Current()
	require.NoError(t, err)
	assert.Same(t, b, cur)

	assert.Same(t, b, m.End())
	assert.Nil(t, m.End())
	assert.False(t, m.InBattle())
}

func TestNewNpcParticipant(t *testing.T) {
	pets, err := data.LoadPetTable(filepath.Join("..", "..", "data", "yaml", "pet_list.yaml"))
	require.NoError(t, err)
	skills := loadSkills(t)

	p, err := NewNpcParticipant(pets.Npc(1), pets, skills)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), p.PetID)
	assert.Equal(t, 15, p.MaxHP)
	assert.Equal(t, p.MaxHP, p.HP)
	assert.Equal(t, []int{10017, 10004}, p.Skills)
	assert.Equal(t, []int{30, 10}, p.SkillPP)

	p, err = NewNpcParticipant(pets.Npc(2), pets, skills)
	require.NoError(t, err)
	assert.Equal(t, []int{10001, 10008, 10012, 10002}, p.Skills)
}
