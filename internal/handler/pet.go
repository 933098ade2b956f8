package handler

import (
	"errors"

	"github.com/seergo/server/internal/net/packet"
	"github.com/seergo/server/internal/world"
)

// petInfoHandler processes CMD_GET_PET_INFO.
// Body: [catchTime u32]. Reply: one pet record.
type petInfoHandler struct {
	pets *world.PetRoster
}

func (h *petInfoHandler) Handle(conn packet.Conn, req packet.Header, r *packet.Reader) error {
	catchTime := r.ReadU32()
	if r.Err() != nil {
		return packet.Fail(packet.ResultBadRequest, "malformed pet info request")
	}
	v, err := h.pets.Get(catchTime)
	if errors.Is(err, world.ErrPetNotOwned) {
		return packet.Fail(packet.ResultPetNotFound, "pet %d not owned", catchTime)
	}
	if err != nil {
		return err
	}
	w := packet.NewWriter()
	writePet(w, v)
	packet.Reply(conn, req, w.Bytes())
	return nil
}

// petListHandler processes CMD_GET_PET_LIST.
// Reply: [count u32] then one pet record each.
type petListHandler struct {
	pets *world.PetRoster
}

func (h *petListHandler) Handle(conn packet.Conn, req packet.Header, _ *packet.Reader) error {
	list := h.pets.List()
	w := packet.NewWriter()
	w.WriteU32(uint32(len(list)))
	for _, v := range list {
		writePet(w, v)
	}
	packet.Reply(conn, req, w.Bytes())
	return nil
}

// writePet encodes
// [catchTime][petId][level][hp][maxHp][atk][def][spAtk][spDef][speed]
// [skillCount] {[skillId][pp]}, all u32.
func writePet(w *packet.Writer, v world.PetView) {
	w.WriteU32(v.CatchTime)
	w.WriteU32(uint32(v.PetID))
	w.WriteU32(uint32(max(v.Level, 0)))
	w.WriteU32(uint32(max(v.HP, 0)))
	w.WriteU32(uint32(v.Stats.MaxHP))
	w.WriteU32(uint32(v.Stats.Atk))
	w.WriteU32(uint32(v.Stats.Def))
	w.WriteU32(uint32(v.Stats.SpAtk))
	w.WriteU32(uint32(v.Stats.SpDef))
	w.WriteU32(uint32(v.Stats.Speed))
	w.WriteU32(uint32(len(v.Skills)))
	for i, id := range v.Skills {
		var pp int32
		if i < len(v.SkillPP) {
			pp = v.SkillPP[i]
		}
		w.WriteU32(uint32(id))
		w.WriteU32(uint32(max(pp, 0)))
	}
}
