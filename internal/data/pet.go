package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PetInfo holds the species template of a pet.
type PetInfo struct {
	PetID  int32        `yaml:"pet_id"`
	Name   string       `yaml:"name"`
	Type   int          `yaml:"type"` // element
	HP     int          `yaml:"hp"`
	Atk    int          `yaml:"atk"`
	Def    int          `yaml:"def"`
	SpAtk  int          `yaml:"sp_atk"`
	SpDef  int          `yaml:"sp_def"`
	Speed  int          `yaml:"speed"`
	Learns []SkillLearn `yaml:"learns"`
}

// SkillLearn is a skill a species learns on reaching Level.
type SkillLearn struct {
	Level   int   `yaml:"level"`
	SkillID int32 `yaml:"skill_id"`
}

// Stats are the level-scaled battle stats of a pet.
type Stats struct {
	MaxHP int
	Atk   int
	Def   int
	SpAtk int
	SpDef int
	Speed int
}

// StatsAt scales the species base stats to level.
func (p *PetInfo) StatsAt(level int) Stats {
	if level < 1 {
		level = 1
	}
	scale := func(base int) int { return base*2*level/100 + 5 }
	return Stats{
		MaxHP: p.HP*2*level/100 + level + 10,
		Atk:   scale(p.Atk),
		Def:   scale(p.Def),
		SpAtk: scale(p.SpAtk),
		SpDef: scale(p.SpDef),
		Speed: scale(p.Speed),
	}
}

// SkillsAt returns the last four skills learned at or below level,
// in learn order.
func (p *PetInfo) SkillsAt(level int) []int32 {
	var out []int32
	for _, l := range p.Learns {
		if l.Level <= level {
			out = append(out, l.SkillID)
		}
	}
	if len(out) > 4 {
		out = out[len(out)-4:]
	}
	return out
}

// NpcMonster is a wild monster a player can challenge.
type NpcMonster struct {
	NpcID  int32   `yaml:"npc_id"`
	PetID  int32   `yaml:"pet_id"`
	Level  int     `yaml:"level"`
	Skills []int32 `yaml:"skills"` // empty = species learn set at Level
}

type petListFile struct {
	Pets []PetInfo    `yaml:"pets"`
	Npcs []NpcMonster `yaml:"npcs"`
}

// PetTable holds species and NPC monster templates.
type PetTable struct {
	pets map[int32]*PetInfo
	npcs map[int32]*NpcMonster
}

// LoadPetTable loads species and monsters from YAML.
func LoadPetTable(path string) (*PetTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pet_list: %w", err)
	}
	var f petListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse pet_list: %w", err)
	}
	t := &PetTable{
		pets: make(map[int32]*PetInfo, len(f.Pets)),
		npcs: make(map[int32]*NpcMonster, len(f.Npcs)),
	}
	for i := range f.Pets {
		t.pets[f.Pets[i].PetID] = &f.Pets[i]
	}
	for i := range f.Npcs {
		n := &f.Npcs[i]
		if t.pets[n.PetID] == nil {
			return nil, fmt.Errorf("parse pet_list: npc %d references unknown pet %d", n.NpcID, n.PetID)
		}
		t.npcs[n.NpcID] = n
	}
	return t, nil
}

// Get returns a species by ID, or nil.
func (t *PetTable) Get(petID int32) *PetInfo {
	return t.pets[petID]
}

// Npc returns a monster template by ID, or nil.
func (t *PetTable) Npc(npcID int32) *NpcMonster {
	return t.npcs[npcID]
}

// Count returns the number of species.
func (t *PetTable) Count() int {
	return len(t.pets)
}

// NpcCount returns the number of monsters.
func (t *PetTable) NpcCount() int {
	return len(t.npcs)
}
