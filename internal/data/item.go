package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemInfo holds a usable item template. Battle items resolve through the
// same effect slots as skills.
type ItemInfo struct {
	ItemID   int32        `yaml:"item_id"`
	Name     string       `yaml:"name"`
	InBattle bool         `yaml:"in_battle"`
	MaxCount int          `yaml:"max_count"`
	Effects  []EffectSlot `yaml:"effects"`
}

type itemListFile struct {
	Items []ItemInfo `yaml:"items"`
}

// ItemTable holds all items indexed by ItemID.
type ItemTable struct {
	items map[int32]*ItemInfo
}

// Get returns an item by ID, or nil if not found.
func (t *ItemTable) Get(itemID int32) *ItemInfo {
	return t.items[itemID]
}

// Count returns total loaded items.
func (t *ItemTable) Count() int {
	return len(t.items)
}

// LoadItemTable loads item templates from YAML.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	t := &ItemTable{items: make(map[int32]*ItemInfo, len(f.Items))}
	for i := range f.Items {
		t.items[f.Items[i].ItemID] = &f.Items[i]
	}
	return t, nil
}
