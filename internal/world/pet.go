package world

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/seergo/server/internal/battle"
	"github.com/seergo/server/internal/data"
	"github.com/seergo/server/internal/persist"
)

// ErrPetNotOwned is returned for a catch time the player does not own.
var ErrPetNotOwned = errors.New("world: pet not owned")

// PetRepo is the storage PetRoster reads and writes.
type PetRepo interface {
	ListByOwner(ctx context.Context, ownerID uint32) ([]persist.PetRow, error)
	Create(ctx context.Context, p *persist.PetRow) error
	SaveState(ctx context.Context, p persist.PetRow) error
}

// PetView is a stored pet together with its level-scaled stats.
type PetView struct {
	persist.PetRow
	Species *data.PetInfo
	Stats   data.Stats
}

// PetRoster holds the pets of one player. It is the player's side of the
// battle persistence collaborator: participants are built from it when a
// battle starts and written back through it when the battle ends.
type PetRoster struct {
	owner  uint32
	repo   PetRepo
	pets   *data.PetTable
	skills *data.SkillStore

	mu    sync.Mutex
	rows  map[uint32]*persist.PetRow
	order []uint32
}

func newPetRoster(owner uint32, repo PetRepo, pets *data.PetTable, skills *data.SkillStore, rows []persist.PetRow) *PetRoster {
	r := &PetRoster{
		owner:  owner,
		repo:   repo,
		pets:   pets,
		skills: skills,
		rows:   make(map[uint32]*persist.PetRow, len(rows)),
	}
	for i := range rows {
		r.put(rows[i])
	}
	return r
}

func (r *PetRoster) put(row persist.PetRow) {
	if _, ok := r.rows[row.CatchTime]; !ok {
		r.order = append(r.order, row.CatchTime)
	}
	c := row
	c.Skills = append([]int32(nil), row.Skills...)
	c.SkillPP = append([]int32(nil), row.SkillPP...)
	r.rows[row.CatchTime] = &c
}

// Count returns how many pets the player owns.
func (r *PetRoster) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Get returns the pet with catchTime.
func (r *PetRoster) Get(catchTime uint32) (PetView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[catchTime]
	if !ok {
		return PetView{}, fmt.Errorf("%w: %d", ErrPetNotOwned, catchTime)
	}
	return r.view(row)
}

// List returns every pet in catch order. Pets whose species is missing from
// game data are skipped.
func (r *PetRoster) List() []PetView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PetView, 0, len(r.order))
	for _, ct := range r.order {
		v, err := r.view(r.rows[ct])
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (r *PetRoster) view(row *persist.PetRow) (PetView, error) {
	species := r.pets.Get(row.PetID)
	if species == nil {
		return PetView{}, fmt.Errorf("pet %d: unknown species %d", row.CatchTime, row.PetID)
	}
	v := PetView{PetRow: *row, Species: species, Stats: species.StatsAt(row.Level)}
	v.Skills = append([]int32(nil), row.Skills...)
	v.SkillPP = append([]int32(nil), row.SkillPP...)
	return v, nil
}

// Grant creates a new pet of petID at level with full HP and its learn set.
func (r *PetRoster) Grant(ctx context.Context, petID int32, level int) (PetView, error) {
	species := r.pets.Get(petID)
	if species == nil {
		return PetView{}, fmt.Errorf("grant pet: unknown species %d", petID)
	}
	row := persist.PetRow{
		OwnerID: r.owner,
		PetID:   petID,
		Level:   level,
		HP:      species.StatsAt(level).MaxHP,
	}
	for _, id := range species.SkillsAt(level) {
		s := r.skills.Get(id)
		if s == nil {
			continue
		}
		row.Skills = append(row.Skills, id)
		row.SkillPP = append(row.SkillPP, int32(s.MaxPP))
	}
	if err := r.repo.Create(ctx, &row); err != nil {
		return PetView{}, fmt.Errorf("grant pet: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(row)
	return r.view(r.rows[row.CatchTime])
}

// LoadParticipant builds a battle participant from a stored pet.
func (r *PetRoster) LoadParticipant(_ context.Context, catchTime uint32) (*battle.Participant, error) {
	v, err := r.Get(catchTime)
	if err != nil {
		return nil, err
	}
	p := &battle.Participant{
		UserID:    r.owner,
		CatchTime: v.CatchTime,
		PetID:     uint32(v.PetID),
		PetType:   uint32(v.Species.Type),
		Level:     v.Level,
		HP:        min(v.HP, v.Stats.MaxHP),
		MaxHP:     v.Stats.MaxHP,
		Atk:       v.Stats.Atk,
		Def:       v.Stats.Def,
		SpAtk:     v.Stats.SpAtk,
		SpDef:     v.Stats.SpDef,
		Speed:     v.Stats.Speed,
	}
	for i, id := range v.Skills {
		pp := 0
		if i < len(v.SkillPP) {
			pp = int(v.SkillPP[i])
		}
		p.Skills = append(p.Skills, int(id))
		p.SkillPP = append(p.SkillPP, pp)
	}
	return p, nil
}

// SaveParticipant writes HP and PP back after a battle.
func (r *PetRoster) SaveParticipant(ctx context.Context, p *battle.Participant) error {
	r.mu.Lock()
	row, ok := r.rows[p.CatchTime]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrPetNotOwned, p.CatchTime)
	}
	row.HP = max(p.HP, 0)
	for i, id := range row.Skills {
		if idx := p.SkillIndex(int(id)); idx >= 0 && i < len(row.SkillPP) {
			row.SkillPP[i] = int32(p.SkillPP[idx])
		}
	}
	saved := *row
	saved.SkillPP = append([]int32(nil), row.SkillPP...)
	r.mu.Unlock()

	if err := r.repo.SaveState(ctx, saved); err != nil {
		return fmt.Errorf("save pet %d: %w", p.CatchTime, err)
	}
	return nil
}
