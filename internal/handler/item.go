package handler

import (
	"errors"

	"github.com/seergo/server/internal/fight"
	"github.com/seergo/server/internal/net/packet"
	"github.com/seergo/server/internal/world"
	"go.uber.org/zap"
)

// itemListHandler processes CMD_GET_ITEM_LIST.
// Reply: [count u32] {[itemId u32][count u32]}.
type itemListHandler struct {
	items *world.Inventory
}

func (h *itemListHandler) Handle(conn packet.Conn, req packet.Header, _ *packet.Reader) error {
	list := h.items.List()
	w := packet.NewWriter()
	w.WriteU32(uint32(len(list)))
	for _, it := range list {
		w.WriteU32(uint32(it.ItemID))
		w.WriteU32(uint32(it.Count))
	}
	packet.Reply(conn, req, w.Bytes())
	return nil
}

// usePetItemHandler processes CMD_USE_PET_ITEM. Using an item spends the
// player's turn.
// Body: [itemId u32]. Reply: [itemId u32][remain u32], then NOTE_USE_SKILL
// and possibly NOTE_FIGHT_OVER.
type usePetItemHandler struct {
	deps    *Deps
	battles *fight.Manager
	items   *world.Inventory
}

func (h *usePetItemHandler) Handle(conn packet.Conn, req packet.Header, r *packet.Reader) error {
	itemID := int32(r.ReadU32())
	if r.Err() != nil {
		return packet.Fail(packet.ResultBadRequest, "malformed use item request")
	}
	b, err := h.battles.Current()
	if err != nil {
		return packet.Fail(packet.ResultNotInBattle, "not in battle")
	}
	info := h.deps.Items.Get(itemID)
	if info == nil || !info.InBattle {
		return packet.Fail(packet.ResultBadRequest, "item %d not usable in battle", itemID)
	}

	ctx, cancel := h.deps.ctx()
	defer cancel()
	remain, err := h.items.Consume(ctx, itemID)
	if errors.Is(err, world.ErrItemNotOwned) {
		return packet.Fail(packet.ResultItemNotOwned, "item %d not owned", itemID)
	}
	if err != nil {
		return err
	}

	res, err := b.UseItem(itemID, info.Effects)
	if errors.Is(err, fight.ErrBattleOver) {
		return packet.Fail(packet.ResultNotInBattle, "battle over")
	}
	if err != nil {
		return err
	}
	h.deps.Log.Debug("使用寵物道具",
		zap.Uint32("user", conn.UserID()),
		zap.Int32("item", itemID),
		zap.Int("remain", remain),
	)

	w := packet.NewWriter()
	w.WriteU32(uint32(itemID))
	w.WriteU32(uint32(remain))
	packet.Reply(conn, req, w.Bytes())
	h.deps.pushRound(conn, req, b, res, h.battles)
	return nil
}
