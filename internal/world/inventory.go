package world

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/seergo/server/internal/persist"
)

// ErrItemNotOwned is returned when the player has none of an item.
var ErrItemNotOwned = errors.New("world: item not owned")

// ItemRepo is the storage Inventory reads and writes.
type ItemRepo interface {
	ListByOwner(ctx context.Context, ownerID uint32) ([]persist.ItemRow, error)
	Add(ctx context.Context, ownerID uint32, itemID int32, n int) error
	Consume(ctx context.Context, ownerID uint32, itemID int32, n int) (int, error)
}

// ItemStack is one entry of the item list.
type ItemStack struct {
	ItemID int32
	Count  int
}

// Inventory holds a player's item counts. The database is the source of
// truth; the in-memory copy is updated after each successful write.
type Inventory struct {
	owner uint32
	repo  ItemRepo

	mu     sync.Mutex
	counts map[int32]int
}

func newInventory(owner uint32, repo ItemRepo, rows []persist.ItemRow) *Inventory {
	inv := &Inventory{owner: owner, repo: repo, counts: make(map[int32]int, len(rows))}
	for _, r := range rows {
		inv.counts[r.ItemID] += r.Count
	}
	return inv
}

// Count returns how many of itemID the player holds.
func (inv *Inventory) Count(itemID int32) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.counts[itemID]
}

// List returns all non-empty stacks ordered by item id.
func (inv *Inventory) List() []ItemStack {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]ItemStack, 0, len(inv.counts))
	for id, n := range inv.counts {
		if n > 0 {
			out = append(out, ItemStack{ItemID: id, Count: n})
		}
	}
	slices.SortFunc(out, func(a, b ItemStack) int { return cmp.Compare(a.ItemID, b.ItemID) })
	return out
}

// Add grants n of itemID.
func (inv *Inventory) Add(ctx context.Context, itemID int32, n int) error {
	if n <= 0 {
		return nil
	}
	if err := inv.repo.Add(ctx, inv.owner, itemID, n); err != nil {
		return fmt.Errorf("add item %d: %w", itemID, err)
	}
	inv.mu.Lock()
	inv.counts[itemID] += n
	inv.mu.Unlock()
	return nil
}

// Consume removes one of itemID and returns what is left.
func (inv *Inventory) Consume(ctx context.Context, itemID int32) (int, error) {
	if inv.Count(itemID) <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrItemNotOwned, itemID)
	}
	remain, err := inv.repo.Consume(ctx, inv.owner, itemID, 1)
	if errors.Is(err, persist.ErrNotEnoughItems) {
		inv.mu.Lock()
		inv.counts[itemID] = 0
		inv.mu.Unlock()
		return 0, fmt.Errorf("%w: %d", ErrItemNotOwned, itemID)
	}
	if err != nil {
		return 0, fmt.Errorf("consume item %d: %w", itemID, err)
	}
	inv.mu.Lock()
	inv.counts[itemID] = remain
	inv.mu.Unlock()
	return remain, nil
}
