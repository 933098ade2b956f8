package fight

import (
	"github.com/seergo/server/internal/battle"
	"github.com/seergo/server/internal/data"
)

// Move is what one side intends to do this round.
type Move struct {
	Who   *battle.Participant
	Skill *data.SkillInfo // nil when the side has no usable skill
}

func (m Move) priority() int {
	if m.Skill == nil {
		return 0
	}
	return m.Skill.Priority
}

// TurnOrder decides which side acts first in a round.
type TurnOrder interface {
	PlayerFirst(player, enemy Move) bool
}

// TurnOrderFunc adapts a plain function to TurnOrder.
type TurnOrderFunc func(player, enemy Move) bool

func (f TurnOrderFunc) PlayerFirst(player, enemy Move) bool {
	return f(player, enemy)
}

// SpeedOrder is the default order: higher skill priority first, then higher
// effective speed. Ties go to the player.
type SpeedOrder struct{}

func (SpeedOrder) PlayerFirst(player, enemy Move) bool {
	pp, ep := player.priority(), enemy.priority()
	if pp != ep {
		return pp > ep
	}
	return EffectiveSpeed(player.Who) >= EffectiveSpeed(enemy.Who)
}

// LevelMultiplier scales a stat by its battle level:
// (2+lv)/2 for lv >= 0, 2/(2-lv) below.
func LevelMultiplier(v, lv int) int {
	if lv >= 0 {
		return v * (2 + lv) / 2
	}
	return v * 2 / (2 - lv)
}

// EffectiveSpeed is speed after the speed battle level.
func EffectiveSpeed(p *battle.Participant) int {
	return LevelMultiplier(p.Speed, p.Levels[battle.LevelSpeed])
}
