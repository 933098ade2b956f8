package fight

import (
	"github.com/seergo/server/internal/battle"
	"github.com/seergo/server/internal/effect"
	"github.com/seergo/server/internal/net/packet"
)

// Status byte array layout.
const (
	StatusSlots = 20

	slotBound   = 8
	slotFatigue = 9
	slotFlinch  = 10
	slotEncore  = 11
)

// Alive / fainted values of AttackValue.State.
const (
	StateAlive   uint32 = 0
	StateFainted uint32 = 1
)

// Fight-over reasons.
const (
	OverNormal uint32 = 0
	OverEscape uint32 = 1
)

// SkillPP is one entry of the skill list carried in an AttackValue.
type SkillPP struct {
	SkillID uint32
	PP      uint32
}

// AttackValue is one side's record in the attack-result packet.
type AttackValue struct {
	UserID      uint32
	SkillID     uint32
	AtkTimes    uint32
	LostHP      uint32 // HP the opponent lost to this action
	GainHP      int32  // net HP change of the actor from its own effects
	RemainHP    int32
	MaxHP       uint32
	State       uint32
	Skills      []SkillPP
	IsCrit      uint32
	Status      [StatusSlots]byte
	Levels      [battle.LevelCount]int8
	ShieldHP    uint32
	ShieldTurns uint32
	PetType     uint32
}

// Outcome is what one action produced before encoding.
type Outcome struct {
	SkillID int // 0 when the side did not act
	Hits    int // 0 when no attack landed
	Damage  int // HP the defender lost to the hits themselves
	Crit    bool
	Results []effect.Result
}

// BuildAttackValue folds an action's ordered effect results and the actor's
// final snapshot into its wire record. It does not mutate its inputs.
func BuildAttackValue(snap *battle.Participant, out Outcome) AttackValue {
	av := AttackValue{
		UserID:      snap.UserID,
		SkillID:     uint32(max(out.SkillID, 0)),
		AtkTimes:    uint32(max(out.Hits, 0)),
		RemainHP:    int32(snap.HP),
		MaxHP:       uint32(max(snap.MaxHP, 0)),
		Status:      statusBytes(snap),
		ShieldHP:    uint32(max(snap.Shield, 0)),
		ShieldTurns: uint32(max(snap.ShieldTurns, 0)),
		PetType:     snap.PetType,
	}
	if snap.Fainted() {
		av.State = StateFainted
	}
	if out.Crit {
		av.IsCrit = 1
	}
	for i, lv := range snap.Levels {
		av.Levels[i] = int8(lv)
	}
	for i, id := range snap.Skills {
		pp := 0
		if i < len(snap.SkillPP) {
			pp = snap.SkillPP[i]
		}
		av.Skills = append(av.Skills, SkillPP{SkillID: uint32(id), PP: uint32(max(pp, 0))})
	}

	lost, gain := max(out.Damage, 0), 0
	for _, r := range out.Results {
		if !r.Success {
			continue
		}
		switch r.Type {
		case "absorb", "heal":
			gain += r.Value
		case "recoil":
			gain -= r.Value
		case "reflect":
			lost += r.Value
		case "mercy":
			lost = max(lost-r.Value, 0)
		case "multi_hit":
			if out.Hits > 0 {
				av.AtkTimes = uint32(r.Value)
			}
		}
	}
	av.LostHP = uint32(lost)
	av.GainHP = int32(gain)
	return av
}

// statusBytes encodes remaining turns per status slot, clamped to a byte.
func statusBytes(p *battle.Participant) [StatusSlots]byte {
	var b [StatusSlots]byte
	if p.Status != battle.StatusNone {
		b[p.Status] = turnsByte(p.StatusTurns)
	}
	if p.Bound {
		b[slotBound] = turnsByte(p.BoundTurns)
	}
	if p.Fatigue {
		b[slotFatigue] = turnsByte(p.FatigueTurns)
	}
	if p.Flinched {
		b[slotFlinch] = 1
	}
	if p.Encore {
		b[slotEncore] = turnsByte(p.EncoreTurns)
	}
	return b
}

func turnsByte(n int) byte {
	switch {
	case n <= 0:
		return 0
	case n > 255:
		return 255
	default:
		return byte(n)
	}
}

// Write appends the record to w.
func (av *AttackValue) Write(w *packet.Writer) {
	w.WriteU32(av.UserID)
	w.WriteU32(av.SkillID)
	w.WriteU32(av.AtkTimes)
	w.WriteU32(av.LostHP)
	w.WriteI32(av.GainHP)
	w.WriteI32(av.RemainHP)
	w.WriteU32(av.MaxHP)
	w.WriteU32(av.State)
	w.WriteU32(uint32(len(av.Skills)))
	for _, s := range av.Skills {
		w.WriteU32(s.SkillID)
		w.WriteU32(s.PP)
	}
	w.WriteU32(av.IsCrit)
	w.WriteBytes(av.Status[:])
	for _, lv := range av.Levels {
		w.WriteI8(lv)
	}
	w.WriteU32(av.ShieldHP)
	w.WriteU32(av.ShieldTurns)
	w.WriteU32(av.PetType)
}

// maxSkillEntries bounds the skill count accepted by ReadAttackValue.
const maxSkillEntries = 64

// ReadAttackValue decodes one record. Errors surface through r.Err().
func ReadAttackValue(r *packet.Reader) AttackValue {
	var av AttackValue
	av.UserID = r.ReadU32()
	av.SkillID = r.ReadU32()
	av.AtkTimes = r.ReadU32()
	av.LostHP = r.ReadU32()
	av.GainHP = r.ReadI32()
	av.RemainHP = r.ReadI32()
	av.MaxHP = r.ReadU32()
	av.State = r.ReadU32()
	n := r.ReadU32()
	for i := uint32(0); i < n && i < maxSkillEntries && r.Err() == nil; i++ {
		av.Skills = append(av.Skills, SkillPP{SkillID: r.ReadU32(), PP: r.ReadU32()})
	}
	av.IsCrit = r.ReadU32()
	copy(av.Status[:], r.ReadBytes(StatusSlots))
	for i := range av.Levels {
		av.Levels[i] = int8(r.ReadU8())
	}
	av.ShieldHP = r.ReadU32()
	av.ShieldTurns = r.ReadU32()
	av.PetType = r.ReadU32()
	return av
}

// EncodeNoteUseSkill builds the NOTE_USE_SKILL body: first actor, then second.
func EncodeNoteUseSkill(first, second AttackValue) []byte {
	w := packet.NewWriter()
	first.Write(w)
	second.Write(w)
	return w.Bytes()
}

// PetSummary is one side of NOTE_START_FIGHT.
type PetSummary struct {
	UserID    uint32
	PetID     uint32
	CatchTime uint32
	Level     uint32
	HP        uint32
	MaxHP     uint32
}

// Summarize returns the start-fight summary of p.
func Summarize(p *battle.Participant) PetSummary {
	return PetSummary{
		UserID:    p.UserID,
		PetID:     p.PetID,
		CatchTime: p.CatchTime,
		Level:     uint32(max(p.Level, 0)),
		HP:        uint32(max(p.HP, 0)),
		MaxHP:     uint32(max(p.MaxHP, 0)),
	}
}

// EncodeStartFight builds the NOTE_START_FIGHT body.
func EncodeStartFight(sides ...PetSummary) []byte {
	w := packet.NewWriter()
	w.WriteU32(uint32(len(sides)))
	for _, s := range sides {
		w.WriteU32(s.UserID)
		w.WriteU32(s.PetID)
		w.WriteU32(s.CatchTime)
		w.WriteU32(s.Level)
		w.WriteU32(s.HP)
		w.WriteU32(s.MaxHP)
	}
	return w.Bytes()
}

// EncodeFightOver builds the FIGHT_OVER body.
func EncodeFightOver(reason, winnerID uint32) []byte {
	w := packet.NewWriter()
	w.WriteU32(reason)
	w.WriteU32(winnerID)
	return w.Bytes()
}
