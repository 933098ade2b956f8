package handler

import (
	"context"
	"errors"

	"github.com/seergo/server/internal/fight"
	"github.com/seergo/server/internal/net/packet"
	"github.com/seergo/server/internal/persist"
	"github.com/seergo/server/internal/world"
	"go.uber.org/zap"
)

// fightNpcHandler processes CMD_FIGHT_NPC_MONSTER.
// Body: [npcId u32][catchTime u32]. Reply: [battleOk u32], then
// NOTE_START_FIGHT.
type fightNpcHandler struct {
	deps    *Deps
	pets    *world.PetRoster
	battles *fight.Manager
}

func (h *fightNpcHandler) Handle(conn packet.Conn, req packet.Header, r *packet.Reader) error {
	npcID := int32(r.ReadU32())
	catchTime := r.ReadU32()
	if r.Err() != nil {
		return packet.Fail(packet.ResultBadRequest, "malformed fight request")
	}
	if h.battles.InBattle() {
		return packet.Fail(packet.ResultAlreadyInBattle, "already in battle")
	}
	npc := h.deps.Pets.Npc(npcID)
	if npc == nil {
		return packet.Fail(packet.ResultBadRequest, "unknown npc %d", npcID)
	}

	ctx, cancel := h.deps.ctx()
	defer cancel()
	player, err := h.pets.LoadParticipant(ctx, catchTime)
	if errors.Is(err, world.ErrPetNotOwned) {
		return packet.Fail(packet.ResultPetNotFound, "pet %d not owned", catchTime)
	}
	if err != nil {
		return err
	}
	if player.Fainted() {
		return packet.Fail(packet.ResultPetFainted, "pet %d has no hp", catchTime)
	}
	enemy, err := fight.NewNpcParticipant(npc, h.deps.Pets, h.deps.Skills)
	if err != nil {
		return err
	}

	b := fight.New(h.deps.Fight, player, enemy, npcID, nil)
	if err := h.battles.Start(b); err != nil {
		return packet.Fail(packet.ResultAlreadyInBattle, "%v", err)
	}
	h.deps.Log.Info("開始戰鬥",
		zap.String("battle", b.ID.String()),
		zap.Uint32("user", conn.UserID()),
		zap.Int32("npc", npcID),
		zap.Uint32("pet", catchTime),
	)

	w := packet.NewWriter()
	w.WriteU32(1)
	packet.Reply(conn, req, w.Bytes())
	packet.Push(conn, req, packet.NOTE_START_FIGHT, fight.EncodeStartFight(fight.Summarize(player), fight.Summarize(enemy)))
	return nil
}

// useSkillHandler processes CMD_USE_SKILL.
// Body: [skillId u32]. Reply: empty ack, then NOTE_USE_SKILL and, when the
// round ended the battle, NOTE_FIGHT_OVER.
type useSkillHandler struct {
	deps    *Deps
	battles *fight.Manager
}

func (h *useSkillHandler) Handle(conn packet.Conn, req packet.Header, r *packet.Reader) error {
	skillID := r.ReadU32()
	if r.Err() != nil {
		return packet.Fail(packet.ResultBadRequest, "malformed use skill request")
	}
	b, err := h.battles.Current()
	if err != nil {
		return packet.Fail(packet.ResultNotInBattle, "not in battle")
	}
	res, err := b.UseSkill(int(skillID))
	switch {
	case errors.Is(err, fight.ErrSkillNotOwned):
		return packet.Fail(packet.ResultSkillNotOwned, "skill %d not owned", skillID)
	case errors.Is(err, fight.ErrBattleOver):
		return packet.Fail(packet.ResultNotInBattle, "battle over")
	case err != nil:
		return err
	}

	packet.Reply(conn, req, nil)
	h.deps.pushRound(conn, req, b, res, h.battles)
	return nil
}

// escapeHandler processes CMD_ESCAPE_FIGHT. Reply: empty ack, then
// NOTE_FIGHT_OVER.
type escapeHandler struct {
	deps    *Deps
	battles *fight.Manager
}

func (h *escapeHandler) Handle(conn packet.Conn, req packet.Header, _ *packet.Reader) error {
	b, err := h.battles.Current()
	if err != nil {
		return packet.Fail(packet.ResultNotInBattle, "not in battle")
	}
	b.Escape()
	packet.Reply(conn, req, nil)
	packet.Push(conn, req, packet.NOTE_FIGHT_OVER, fight.EncodeFightOver(fight.OverEscape, 0))

	ctx, cancel := h.deps.ctx()
	defer cancel()
	h.deps.finishBattle(ctx, b, h.battles)
	return nil
}

// pushRound sends the round packet and, if the battle is over, the fight-over
// packet, then closes the battle.
func (d *Deps) pushRound(conn packet.Conn, req packet.Header, b *fight.Battle, res *fight.RoundResult, m *fight.Manager) {
	packet.Push(conn, req, packet.NOTE_USE_SKILL, fight.EncodeNoteUseSkill(res.First, res.Second))
	if !res.Over {
		return
	}
	_, winner, reason := b.Over()
	packet.Push(conn, req, packet.NOTE_FIGHT_OVER, fight.EncodeFightOver(reason, winner))

	ctx, cancel := d.ctx()
	defer cancel()
	d.finishBattle(ctx, b, m)
}

// finishBattle saves the player's pet and records the result. Packets have
// already gone out, so failures are only logged.
func (d *Deps) finishBattle(ctx context.Context, b *fight.Battle, m *fight.Manager) {
	if _, err := m.Finish(ctx); err != nil {
		d.Log.Error("戰鬥結束存檔失敗", zap.String("battle", b.ID.String()), zap.Error(err))
	}
	if d.Records == nil {
		return
	}
	_, winner, reason := b.Over()
	rec := persist.BattleRecord{
		BattleID:  b.ID,
		UserID:    b.Player.UserID,
		CatchTime: b.Player.CatchTime,
		NpcID:     b.NpcID,
		WinnerID:  winner,
		Reason:    reason,
		Rounds:    b.Round,
	}
	if err := d.Records.Write(ctx, rec); err != nil {
		d.Log.Error("寫入戰鬥紀錄失敗", zap.String("battle", b.ID.String()), zap.Error(err))
	}
}
