package world

import (
	"context"
	"fmt"

	"github.com/seergo/server/internal/data"
	"github.com/seergo/server/internal/fight"
)

// Loader builds a Player from storage at login.
type Loader struct {
	PetRepo  PetRepo
	ItemRepo ItemRepo
	Pets     *data.PetTable
	Skills   *data.SkillStore
}

// Load reads the pets and items of userID.
func (l *Loader) Load(ctx context.Context, userID uint32, account string) (*Player, error) {
	pets, err := l.PetRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load pets of %d: %w", userID, err)
	}
	items, err := l.ItemRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load items of %d: %w", userID, err)
	}
	roster := newPetRoster(userID, l.PetRepo, l.Pets, l.Skills, pets)
	return &Player{
		UserID:  userID,
		Account: account,
		Pets:    roster,
		Items:   newInventory(userID, l.ItemRepo, items),
		Battles: fight.NewManager(roster),
	}, nil
}
