package effect

import (
	"fmt"

	"github.com/seergo/server/internal/battle"
)

// Effect ids (Eid) as referenced by skill game data.
const (
	EidAbsorb      = 1
	EidStatDown    = 2
	EidStatUp      = 3
	EidRecoil      = 4
	EidMultiHit    = 5
	EidPunishment  = 6
	EidHeal        = 7
	EidMercy       = 8
	EidReflect     = 9
	EidParalysis   = 10
	EidPoison      = 11
	EidBurn        = 12
	EidFreeze      = 13
	EidSleep       = 14
	EidFear        = 15
	EidConfusion   = 16
	EidBound       = 20
	EidFatigue     = 21
	EidFlinch      = 22
	EidEncore      = 23
	EidPPDrain     = 24
	EidClearLevels = 25
	EidShield      = 26
)

// catalog is the full list of effect implementations, in registration
// order. Adding an effect means adding one line here.
var catalog = []struct {
	eid int
	new func() Effect
}{
	{EidAbsorb, newAbsorb},
	{EidStatDown, newStatDown},
	{EidStatUp, newStatUp},
	{EidRecoil, newRecoil},
	{EidMultiHit, newMultiHit},
	{EidPunishment, newPunishment},
	{EidHeal, newHeal},
	{EidMercy, newMercy},
	{EidReflect, newReflect},
	{EidParalysis, newStatusEffect(EidParalysis, battle.StatusParalysis, 30, 2)},
	{EidPoison, newStatusEffect(EidPoison, battle.StatusPoison, 30, battle.TurnsUntilEnd)},
	{EidBurn, newStatusEffect(EidBurn, battle.StatusBurn, 10, battle.TurnsUntilEnd)},
	{EidFreeze, newStatusEffect(EidFreeze, battle.StatusFreeze, 10, 2)},
	{EidSleep, newStatusEffect(EidSleep, battle.StatusSleep, 100, 2)},
	{EidFear, newStatusEffect(EidFear, battle.StatusFear, 20, 2)},
	{EidConfusion, newStatusEffect(EidConfusion, battle.StatusConfusion, 20, 3)},
	{EidBound, newBound},
	{EidFatigue, newFatigue},
	{EidFlinch, newFlinch},
	{EidEncore, newEncore},
	{EidPPDrain, newPPDrain},
	{EidClearLevels, newClearLevels},
	{EidShield, newShield},
}

// Catalog instantiates every known effect.
func Catalog() []Effect {
	out := make([]Effect, 0, len(catalog))
	for _, c := range catalog {
		out = append(out, c.new())
	}
	return out
}

// RegisterAll builds the process registry from the catalog. It must run
// before any battle starts; a broken catalog is a startup failure.
func RegisterAll() (*Registry, error) {
	effects := Catalog()
	for i, e := range effects {
		if e.ID() != catalog[i].eid {
			return nil, fmt.Errorf("effect: catalog entry %d declares eid %d but builds %d", i, catalog[i].eid, e.ID())
		}
	}
	return NewRegistry(effects...)
}
