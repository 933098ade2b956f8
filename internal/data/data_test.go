package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var yamlDir = filepath.Join("..", "..", "data", "yaml")

func TestShippedSkillList(t *testing.T) {
	tbl, err := LoadSkillTable(filepath.Join(yamlDir, "skill_list.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 22, tbl.Count())

	s := tbl.Get(10003)
	require.NotNil(t, s)
	assert.Equal(t, CategorySpecial, s.Category)
	assert.Equal(t, 20, s.MaxPP)
	assert.Equal(t, 1, s.CritRate, "attacks default to 1/16 crit")

	eid, args, ok := tbl.EffectArgs(10003, 0)
	require.True(t, ok)
	assert.Equal(t, 1, eid)
	assert.Equal(t, "50", args)
	_, _, ok = tbl.EffectArgs(10003, 1)
	assert.False(t, ok)

	assert.Equal(t, 1, tbl.Get(10017).Priority)
	assert.Nil(t, tbl.Get(1))
}

func TestSkillCategoryDefaults(t *testing.T) {
	tbl, err := parseSkillTable([]byte(`
skills:
  - { skill_id: 1, name: a, power: 40, max_pp: 10 }
  - { skill_id: 2, name: b, max_pp: 10 }
`))
	require.NoError(t, err)
	assert.Equal(t, CategoryPhysical, tbl.Get(1).Category)
	assert.Equal(t, CategoryStatus, tbl.Get(2).Category)
	assert.Zero(t, tbl.Get(2).CritRate)

	_, err = parseSkillTable([]byte(`
skills:
  - { skill_id: 1, name: a }
  - { skill_id: 1, name: b }
`))
	assert.Error(t, err)
}

func TestSkillStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skills.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skills:\n  - { skill_id: 1, name: old, power: 10 }\n"), 0o644))

	store, err := NewSkillStore(path)
	require.NoError(t, err)
	old := store.Table()
	assert.Equal(t, "old", store.Get(1).Name)

	require.NoError(t, os.WriteFile(path, []byte("skills:\n  - { skill_id: 1, name: new, power: 10 }\n  - { skill_id: 2, name: two }\n"), 0o644))
	require.NoError(t, store.Reload())
	assert.Equal(t, "new", store.Get(1).Name)
	assert.Equal(t, 2, store.Count())
	assert.Equal(t, "old", old.Get(1).Name, "readers holding the old table are unaffected")

	require.NoError(t, os.WriteFile(path, []byte("skills: [oops"), 0o644))
	assert.Error(t, store.Reload())
	assert.Equal(t, "new", store.Get(1).Name, "failed reload keeps the current table")

	assert.Error(t, NewSkillStoreFrom(old).Reload())
}

func TestPetStatsAndLearnSet(t *testing.T) {
	p := &PetInfo{HP: 55, Atk: 50, Def: 40, SpAtk: 60, SpDef: 45, Speed: 70}
	st := p.StatsAt(10)
	assert.Equal(t, Stats{MaxHP: 31, Atk: 15, Def: 13, SpAtk: 17, SpDef: 14, Speed: 19}, st)
	assert.Equal(t, p.StatsAt(1), p.StatsAt(0), "level clamps to 1")

	p.Learns = []SkillLearn{{1, 1}, {1, 2}, {5, 3}, {9, 4}, {15, 5}}
	assert.Equal(t, []int32{1, 2, 3}, p.SkillsAt(5))
	assert.Equal(t, []int32{2, 3, 4, 5}, p.SkillsAt(20), "only the last four are kept")
	assert.Empty(t, p.SkillsAt(0))
}

func TestShippedPetAndItemLists(t *testing.T) {
	pets, err := LoadPetTable(filepath.Join(yamlDir, "pet_list.yaml"))
	require.NoError(t, err)
	require.NotNil(t, pets.Get(4))
	assert.Equal(t, 2, pets.Get(4).Type)
	npc := pets.Npc(2)
	require.NotNil(t, npc)
	assert.Equal(t, int32(4), npc.PetID)
	assert.Len(t, npc.Skills, 4)
	assert.Equal(t, 3, pets.NpcCount())

	items, err := LoadItemTable(filepath.Join(yamlDir, "item_list.yaml"))
	require.NoError(t, err)
	potion := items.Get(300011)
	require.NotNil(t, potion)
	assert.True(t, potion.InBattle)
	assert.Equal(t, []EffectSlot{{EffectID: 7, Args: "20"}}, potion.Effects)
	assert.Len(t, items.Get(300021).Effects, 2)
}

func TestPetListRejectsUnknownNpcSpecies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pets: []\nnpcs:\n  - { npc_id: 1, pet_id: 9, level: 3 }\n"), 0o644))
	_, err := LoadPetTable(path)
	assert.Error(t, err)
}
