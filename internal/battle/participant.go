package battle

import "fmt"

// Status is the main (mutually exclusive) ailment of a participant.
type Status uint8

const (
	StatusNone Status = iota
	StatusParalysis
	StatusPoison
	StatusBurn
	StatusFreeze
	StatusSleep
	StatusFear
	StatusConfusion
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusParalysis:
		return "paralysis"
	case StatusPoison:
		return "poison"
	case StatusBurn:
		return "burn"
	case StatusFreeze:
		return "freeze"
	case StatusSleep:
		return "sleep"
	case StatusFear:
		return "fear"
	case StatusConfusion:
		return "confusion"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Battle level indexes.
const (
	LevelAtk = iota
	LevelDef
	LevelSpAtk
	LevelSpDef
	LevelSpeed
	LevelAccuracy
	LevelCount
)

const (
	MinLevel = -6
	MaxLevel = 6

	// TurnsUntilEnd marks a status that lasts until the battle ends.
	TurnsUntilEnd = 999
)

// Participant is one side of a battle. It is created from a stored pet when
// the battle starts, mutated in place while the battle runs, and written back
// when it ends. A participant belongs to exactly one battle.
type Participant struct {
	UserID    uint32 // 0 for NPC monsters
	CatchTime uint32 // unique pet instance id
	PetID     uint32 // species id
	PetType   uint32 // element type
	Level     int

	HP    int
	MaxHP int
	Atk   int
	Def   int
	SpAtk int
	SpDef int
	Speed int

	Levels [LevelCount]int

	Status      Status
	StatusTurns int

	// Volatile flags, independent of Status and of each other.
	Bound        bool
	BoundTurns   int
	Fatigue      bool
	FatigueTurns int
	Flinched     bool
	Encore       bool
	EncoreTurns  int

	LastMove int
	Skills   []int
	SkillPP  []int

	Shield      int
	ShieldTurns int
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ValidLevel reports whether i is a battle level index.
func ValidLevel(i int) bool {
	return i >= 0 && i < LevelCount
}

// AddLevel shifts battle level i by delta and returns the clamped result.
func (p *Participant) AddLevel(i, delta int) int {
	p.Levels[i] = clamp(p.Levels[i]+delta, MinLevel, MaxLevel)
	return p.Levels[i]
}

// ResetLevels sets every battle level back to 0.
func (p *Participant) ResetLevels() {
	p.Levels = [LevelCount]int{}
}

// Heal restores up to n HP and returns the amount actually restored.
func (p *Participant) Heal(n int) int {
	if n <= 0 {
		return 0
	}
	before := p.HP
	p.HP = clamp(p.HP+n, 0, p.MaxHP)
	return p.HP - before
}

// Damage removes up to n HP, bypassing shields, and returns the HP lost.
func (p *Participant) Damage(n int) int {
	if n <= 0 {
		return 0
	}
	before := p.HP
	p.HP = clamp(p.HP-n, 0, p.MaxHP)
	return before - p.HP
}

// TakeHit applies attack damage: the shield absorbs first, the rest is HP loss.
func (p *Participant) TakeHit(n int) (absorbed, lost int) {
	if n <= 0 {
		return 0, 0
	}
	if p.Shield > 0 {
		absorbed = min(p.Shield, n)
		p.Shield -= absorbed
		if p.Shield == 0 {
			p.ShieldTurns = 0
		}
		n -= absorbed
	}
	return absorbed, p.Damage(n)
}

// Fainted reports whether the participant has no HP left.
func (p *Participant) Fainted() bool {
	return p.HP <= 0
}

// FullHP reports whether the participant is at max HP.
func (p *Participant) FullHP() bool {
	return p.HP >= p.MaxHP
}

// SetStatus applies a main status if none is active. It returns false and
// changes nothing when another main status is already present.
func (p *Participant) SetStatus(s Status, turns int) bool {
	if s == StatusNone || p.Status != StatusNone {
		return false
	}
	p.Status = s
	p.StatusTurns = turns
	return true
}

// ClearStatus removes the main status.
func (p *Participant) ClearStatus() {
	p.Status = StatusNone
	p.StatusTurns = 0
}

// SkillIndex returns the slot of skillID, or -1.
func (p *Participant) SkillIndex(skillID int) int {
	for i, id := range p.Skills {
		if id == skillID {
			return i
		}
	}
	return -1
}

// PP returns the remaining PP of skillID (0 if not known).
func (p *Participant) PP(skillID int) int {
	i := p.SkillIndex(skillID)
	if i < 0 || i >= len(p.SkillPP) {
		return 0
	}
	return p.SkillPP[i]
}

// SpendPP consumes one PP of skillID. Returns false if none is left.
func (p *Participant) SpendPP(skillID int) bool {
	i := p.SkillIndex(skillID)
	if i < 0 || i >= len(p.SkillPP) || p.SkillPP[i] <= 0 {
		return false
	}
	p.SkillPP[i]--
	return true
}

// DrainPP removes up to n PP from skillID and returns the amount removed.
func (p *Participant) DrainPP(skillID, n int) int {
	i := p.SkillIndex(skillID)
	if i < 0 || i >= len(p.SkillPP) || n <= 0 {
		return 0
	}
	d := min(n, p.SkillPP[i])
	p.SkillPP[i] -= d
	return d
}

// Clone returns a deep copy.
func (p *Participant) Clone() *Participant {
	c := *p
	c.Skills = append([]int(nil), p.Skills...)
	c.SkillPP = append([]int(nil), p.SkillPP...)
	return &c
}
