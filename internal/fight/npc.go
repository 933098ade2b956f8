package fight

import (
	"fmt"

	"github.com/seergo/server/internal/battle"
	"github.com/seergo/server/internal/data"
)

// NewNpcParticipant builds the enemy side for an NPC monster at full HP.
func NewNpcParticipant(npc *data.NpcMonster, pets *data.PetTable, skills *data.SkillStore) (*battle.Participant, error) {
	species := pets.Get(npc.PetID)
	if species == nil {
		return nil, fmt.Errorf("npc %d: unknown pet %d", npc.NpcID, npc.PetID)
	}
	ids := npc.Skills
	if len(ids) == 0 {
		ids = species.SkillsAt(npc.Level)
	}

	st := species.StatsAt(npc.Level)
	p := &battle.Participant{
		PetID:   uint32(species.PetID),
		PetType: uint32(species.Type),
		Level:   npc.Level,
		HP:      st.MaxHP,
		MaxHP:   st.MaxHP,
		Atk:     st.Atk,
		Def:     st.Def,
		SpAtk:   st.SpAtk,
		SpDef:   st.SpDef,
		Speed:   st.Speed,
	}
	for _, id := range ids {
		s := skills.Get(id)
		if s == nil {
			continue
		}
		p.Skills = append(p.Skills, int(id))
		p.SkillPP = append(p.SkillPP, s.MaxPP)
	}
	if len(p.Skills) == 0 {
		return nil, fmt.Errorf("npc %d: no usable skills", npc.NpcID)
	}
	return p, nil
}
