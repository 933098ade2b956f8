// Package fight runs PvE battles: turn order, per-action resolution through
// the effect pipeline, end-of-round upkeep, and the packets describing each
// round.
package fight

import (
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/seergo/server/internal/battle"
	"github.com/seergo/server/internal/data"
	"github.com/seergo/server/internal/effect"
	"github.com/seergo/server/internal/scripting"
	"go.uber.org/zap"
)

var (
	ErrNoBattle        = errors.New("fight: not in battle")
	ErrAlreadyInBattle = errors.New("fight: already in battle")
	ErrBattleOver      = errors.New("fight: battle is over")
	ErrSkillNotOwned   = errors.New("fight: skill not owned")
)

// DamageCalculator computes the damage of one hit. *scripting.Engine
// implements it with the Lua calc_skill_damage formula.
type DamageCalculator interface {
	CalcSkillDamage(ctx scripting.SkillDamageContext) scripting.SkillDamageResult
}

// NpcBrain optionally picks the NPC's skill. *scripting.Engine implements
// it with the Lua choose_npc_skill hook.
type NpcBrain interface {
	ChooseNpcSkill(ctx scripting.NpcChoiceContext) (int, bool)
}

// Env holds the collaborators shared by every battle.
type Env struct {
	Pipeline *effect.Pipeline
	Skills   *data.SkillStore
	Damage   DamageCalculator
	Brain    NpcBrain  // may be nil
	Order    TurnOrder // nil = SpeedOrder
	Log      *zap.Logger
}

func (env *Env) order() TurnOrder {
	if env.Order == nil {
		return SpeedOrder{}
	}
	return env.Order
}

// RoundResult is everything one round produced, ready for encoding.
type RoundResult struct {
	First    AttackValue
	Second   AttackValue
	Over     bool
	WinnerID uint32
}

// Battle is one player-vs-NPC battle. It is owned by a single session and
// never touched concurrently.
type Battle struct {
	ID     uuid.UUID
	NpcID  int32
	Player *battle.Participant
	Enemy  *battle.Participant
	Round  int

	over   bool
	winner uint32
	reason uint32

	rng battle.Rand
	env *Env
	log *zap.Logger
}

// New starts a battle between player and enemy. r may be nil, in which case
// the battle gets its own randomly seeded source.
func New(env *Env, player, enemy *battle.Participant, npcID int32, r battle.Rand) *Battle {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	id := uuid.New()
	return &Battle{
		ID:     id,
		NpcID:  npcID,
		Player: player,
		Enemy:  enemy,
		rng:    r,
		env:    env,
		log: env.Log.With(
			zap.String("battle", id.String()),
			zap.Uint32("user", player.UserID),
		),
	}
}

// Over reports whether the battle has ended, the winner's user id (0 when the
// NPC won or the player escaped) and the reason.
func (b *Battle) Over() (over bool, winnerID, reason uint32) {
	return b.over, b.winner, b.reason
}

// Escape ends the battle in the NPC's favour.
func (b *Battle) Escape() {
	b.over = true
	b.winner = 0
	b.reason = OverEscape
	b.log.Info("玩家逃離戰鬥", zap.Int("round", b.Round))
}

// UseSkill resolves one full round in which the player uses skillID.
// If the player is under encore the repeated move replaces skillID.
func (b *Battle) UseSkill(skillID int) (*RoundResult, error) {
	if b.over {
		return nil, ErrBattleOver
	}
	if b.Player.SkillIndex(skillID) < 0 {
		return nil, ErrSkillNotOwned
	}
	b.Round++

	playerMove := Move{Who: b.Player, Skill: b.env.Skills.Get(int32(plannedMove(b.Player, skillID)))}
	enemyMove := Move{Who: b.Enemy, Skill: b.env.Skills.Get(int32(plannedMove(b.Enemy, b.npcSkill())))}

	var first, second *action
	if b.env.order().PlayerFirst(playerMove, enemyMove) {
		first = b.act(b.Player, b.Enemy, skillID)
		second = b.act(b.Enemy, b.Player, idOf(enemyMove.Skill))
	} else {
		first = b.act(b.Enemy, b.Player, idOf(enemyMove.Skill))
		second = b.act(b.Player, b.Enemy, skillID)
	}
	return b.finishRound(first, second), nil
}

// UseItem spends the player's turn on an item whose effects are resolved
// through the pipeline as skill 0, then the NPC acts.
func (b *Battle) UseItem(itemID int32, slots []data.EffectSlot) (*RoundResult, error) {
	if b.over {
		return nil, ErrBattleOver
	}
	b.Round++

	use := effect.Use{
		SkillID:  0,
		Slots:    toSlots(slots),
		Attacker: b.Player,
		Defender: b.Enemy,
		Rand:     b.rng,
	}
	first := &action{actor: b.Player}
	first.out.Results = append(b.env.Pipeline.Before(use), b.env.Pipeline.After(use, 0)...)
	b.log.Debug("戰鬥中使用道具", zap.Int32("item", itemID), zap.Int("results", len(first.out.Results)))

	enemySkill := b.npcSkill()
	second := b.act(b.Enemy, b.Player, enemySkill)
	return b.finishRound(first, second), nil
}

// action is one side's turn within a round.
type action struct {
	actor *battle.Participant
	skip  battle.SkipReason
	out   Outcome
}

func (b *Battle) act(actor, target *battle.Participant, requested int) *action {
	a := &action{actor: actor}
	if a.skip = actor.BeginAction(b.rng); a.skip != battle.SkipNone {
		b.log.Debug("無法行動", zap.Uint32("user", actor.UserID), zap.Uint8("reason", uint8(a.skip)))
		return a
	}

	skillID := requested
	if forced, ok := actor.ForcedMove(); ok {
		skillID = forced
	}
	skill := b.env.Skills.Get(int32(skillID))
	if skill == nil {
		if skillID != 0 {
			b.log.Warn("技能資料不存在", zap.Int("skill", skillID))
		}
		return a
	}
	a.out.SkillID = skillID
	if !actor.SpendPP(skillID) {
		// PP 用盡：照常回傳封包，攻擊次數為 0
		return a
	}

	use := effect.Use{
		SkillID:  skillID,
		Slots:    toSlots(skill.Effects),
		Attacker: actor,
		Defender: target,
		Rand:     b.rng,
	}
	before := b.env.Pipeline.Before(use)
	a.out.Results = append(a.out.Results, before...)

	hits, bonus := 1, 0
	for _, r := range before {
		if !r.Success {
			continue
		}
		switch r.Type {
		case "multi_hit":
			hits = r.Value
		case "punishment":
			bonus += r.Value
		}
	}

	dmg := b.env.Damage.CalcSkillDamage(b.damageContext(actor, target, skill, bonus))
	actor.LastMove = skillID
	if !dmg.Hit {
		b.log.Debug("技能未命中", zap.Int("skill", skillID))
		return a
	}
	a.out.Hits = hits
	a.out.Crit = dmg.Crit

	dealt := 0
	if skill.Category != data.CategoryStatus && skill.Power+bonus > 0 {
		_, dealt = target.TakeHit(dmg.Damage * hits)
	}
	a.out.Damage = dealt
	a.out.Results = append(a.out.Results, b.env.Pipeline.After(use, dealt)...)
	return a
}

func (b *Battle) damageContext(atk, def *battle.Participant, skill *data.SkillInfo, bonus int) scripting.SkillDamageContext {
	ctx := scripting.SkillDamageContext{
		SkillID:       int(skill.SkillID),
		Power:         skill.Power + bonus,
		Accuracy:      skill.Accuracy,
		CritRate:      skill.CritRate,
		SameType:      skill.Type != 0 && uint32(skill.Type) == atk.PetType,
		Category:      skill.Category,
		AttackerLevel: atk.Level,
		AccuracyLevel: atk.Levels[battle.LevelAccuracy],
		HitRoll:       b.rng.IntN(100),
		CritRoll:      b.rng.IntN(16),
		RandFactor:    217 + b.rng.IntN(39),
	}
	if skill.Category == data.CategoryStatus {
		ctx.Power = 0
	}
	if skill.Category == data.CategorySpecial {
		ctx.Attack, ctx.AttackLevel = atk.SpAtk, atk.Levels[battle.LevelSpAtk]
		ctx.Defense, ctx.DefenseLevel = def.SpDef, def.Levels[battle.LevelSpDef]
	} else {
		ctx.Attack, ctx.AttackLevel = atk.Atk, atk.Levels[battle.LevelAtk]
		ctx.Defense, ctx.DefenseLevel = def.Def, def.Levels[battle.LevelDef]
	}
	return ctx
}

// finishRound runs end-of-round upkeep and encodes both actions from the
// final snapshots.
func (b *Battle) finishRound(first, second *action) *RoundResult {
	// 畏縮在回合結束時清除，但本回合封包仍需顯示
	flinched := map[*battle.Participant]bool{
		b.Player: b.Player.Flinched,
		b.Enemy:  b.Enemy.Flinched,
	}
	if lost := b.Player.EndRound(); lost > 0 {
		b.log.Debug("回合結束扣血", zap.Uint32("user", b.Player.UserID), zap.Int("lost", lost))
	}
	if lost := b.Enemy.EndRound(); lost > 0 {
		b.log.Debug("回合結束扣血", zap.String("side", "npc"), zap.Int("lost", lost))
	}

	snap := func(p *battle.Participant) *battle.Participant {
		c := p.Clone()
		c.Flinched = flinched[p]
		return c
	}
	res := &RoundResult{
		First:  BuildAttackValue(snap(first.actor), first.out),
		Second: BuildAttackValue(snap(second.actor), second.out),
	}

	switch {
	case b.Player.Fainted():
		b.over, b.winner, b.reason = true, 0, OverNormal
	case b.Enemy.Fainted():
		b.over, b.winner, b.reason = true, b.Player.UserID, OverNormal
	}
	res.Over, res.WinnerID = b.over, b.winner
	if b.over {
		b.log.Info("戰鬥結束", zap.Int("round", b.Round), zap.Uint32("winner", b.winner))
	}
	return res
}

// npcSkill picks the NPC's move: the Lua hook if it names a usable skill,
// otherwise the first skill with PP left. 0 means nothing usable.
func (b *Battle) npcSkill() int {
	e := b.Enemy
	if b.env.Brain != nil {
		id, ok := b.env.Brain.ChooseNpcSkill(scripting.NpcChoiceContext{
			Skills:   e.Skills,
			PP:       e.SkillPP,
			LastMove: e.LastMove,
			HP:       e.HP,
			MaxHP:    e.MaxHP,
			FoeHP:    b.Player.HP,
			FoeMaxHP: b.Player.MaxHP,
			Round:    b.Round,
		})
		if ok && e.PP(id) > 0 {
			return id
		}
	}
	for i, id := range e.Skills {
		if i < len(e.SkillPP) && e.SkillPP[i] > 0 {
			return id
		}
	}
	return 0
}

// plannedMove is the skill p will actually use, looking through encore
// without consuming it.
func plannedMove(p *battle.Participant, requested int) int {
	if p.Encore && p.LastMove != 0 {
		return p.LastMove
	}
	return requested
}

func idOf(s *data.SkillInfo) int {
	if s == nil {
		return 0
	}
	return int(s.SkillID)
}

func toSlots(in []data.EffectSlot) []effect.Slot {
	out := make([]effect.Slot, len(in))
	for i, s := range in {
		out[i] = effect.Slot{EffectID: s.EffectID, Args: s.Args}
	}
	return out
}
