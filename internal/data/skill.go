package data

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Skill categories.
const (
	CategoryPhysical = 1
	CategorySpecial  = 2
	CategoryStatus   = 4
)

// EffectSlot is one effect attached to a skill: an Eid plus its raw
// argument string (signed ints separated by spaces or commas).
type EffectSlot struct {
	EffectID int    `yaml:"eid"`
	Args     string `yaml:"args"`
}

// SkillInfo holds a single skill template.
type SkillInfo struct {
	SkillID  int32
	Name     string
	Category int // 1=physical, 2=special, 4=status
	Type     int // element
	Power    int
	MaxPP    int
	Accuracy int // 0 = never misses
	Priority int
	CritRate int // out of 16
	Effects  []EffectSlot
}

// SkillTable holds all skills indexed by SkillID.
type SkillTable struct {
	skills map[int32]*SkillInfo
}

// Get returns a skill by ID, or nil if not found.
func (t *SkillTable) Get(skillID int32) *SkillInfo {
	return t.skills[skillID]
}

// Count returns total loaded skills.
func (t *SkillTable) Count() int {
	return len(t.skills)
}

// EffectArgs returns the effect declared in slot of skillID.
func (t *SkillTable) EffectArgs(skillID int32, slot int) (eid int, args string, ok bool) {
	s := t.skills[skillID]
	if s == nil || slot < 0 || slot >= len(s.Effects) {
		return 0, "", false
	}
	e := s.Effects[slot]
	return e.EffectID, e.Args, true
}

// --- YAML loading ---

type skillEntry struct {
	SkillID  int32        `yaml:"skill_id"`
	Name     string       `yaml:"name"`
	Category int          `yaml:"category"`
	Type     int          `yaml:"type"`
	Power    int          `yaml:"power"`
	MaxPP    int          `yaml:"max_pp"`
	Accuracy int          `yaml:"accuracy"`
	Priority int          `yaml:"priority"`
	CritRate int          `yaml:"crit_rate"`
	Effects  []EffectSlot `yaml:"effects"`
}

type skillListFile struct {
	Skills []skillEntry `yaml:"skills"`
}

// LoadSkillTable loads skill definitions from YAML.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills: %w", err)
	}
	return parseSkillTable(raw)
}

func parseSkillTable(raw []byte) (*SkillTable, error) {
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	t := &SkillTable{skills: make(map[int32]*SkillInfo, len(f.Skills))}
	for i := range f.Skills {
		e := &f.Skills[i]
		if _, dup := t.skills[e.SkillID]; dup {
			return nil, fmt.Errorf("parse skills: duplicate skill_id %d", e.SkillID)
		}
		category := e.Category
		if category == 0 {
			category = CategoryPhysical
			if e.Power == 0 {
				category = CategoryStatus
			}
		}
		critRate := e.CritRate
		if critRate == 0 && category != CategoryStatus {
			critRate = 1
		}
		t.skills[e.SkillID] = &SkillInfo{
			SkillID:  e.SkillID,
			Name:     e.Name,
			Category: category,
			Type:     e.Type,
			Power:    e.Power,
			MaxPP:    e.MaxPP,
			Accuracy: e.Accuracy,
			Priority: e.Priority,
			CritRate: critRate,
			Effects:  e.Effects,
		}
	}
	return t, nil
}

// SkillStore serves the current SkillTable and swaps in a fresh one on
// Reload. Readers never block; a failed reload keeps the old table.
type SkillStore struct {
	path string
	cur  atomic.Pointer[SkillTable]
}

// NewSkillStore loads path and returns a store serving it.
func NewSkillStore(path string) (*SkillStore, error) {
	s := &SkillStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSkillStoreFrom wraps an already loaded table (no reload source).
func NewSkillStoreFrom(t *SkillTable) *SkillStore {
	s := &SkillStore{}
	s.cur.Store(t)
	return s
}

// Reload re-reads the YAML file and atomically replaces the table.
func (s *SkillStore) Reload() error {
	if s.path == "" {
		return fmt.Errorf("reload skills: no source file")
	}
	t, err := LoadSkillTable(s.path)
	if err != nil {
		return err
	}
	s.cur.Store(t)
	return nil
}

// Table returns the table currently in use.
func (s *SkillStore) Table() *SkillTable {
	return s.cur.Load()
}

func (s *SkillStore) Get(skillID int32) *SkillInfo {
	return s.cur.Load().Get(skillID)
}

func (s *SkillStore) Count() int {
	return s.cur.Load().Count()
}

func (s *SkillStore) EffectArgs(skillID int32, slot int) (int, string, bool) {
	return s.cur.Load().EffectArgs(skillID, slot)
}
