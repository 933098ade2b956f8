package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrNotEnoughItems is returned by Consume when the stack is too small.
var ErrNotEnoughItems = errors.New("persist: not enough items")

// ItemRow represents one persisted item stack.
type ItemRow struct {
	OwnerID uint32
	ItemID  int32
	Count   int
}

type ItemRepo struct {
	db *DB
}

func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// ListByOwner returns all non-empty stacks of an owner.
func (r *ItemRepo) ListByOwner(ctx context.Context, ownerID uint32) ([]ItemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT owner_id, item_id, count FROM items
		 WHERE owner_id = $1 AND count > 0 ORDER BY item_id`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ItemRow
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(&it.OwnerID, &it.ItemID, &it.Count); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// Add grants n of itemID to owner, creating the stack if needed.
func (r *ItemRepo) Add(ctx context.Context, ownerID uint32, itemID int32, n int) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO items (owner_id, item_id, count) VALUES ($1, $2, $3)
		 ON CONFLICT (owner_id, item_id) DO UPDATE SET count = items.count + EXCLUDED.count`,
		ownerID, itemID, n,
	)
	return err
}

// Consume removes n of itemID and returns what is left.
func (r *ItemRepo) Consume(ctx context.Context, ownerID uint32, itemID int32, n int) (int, error) {
	var remain int
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE items SET count = count - $3
		 WHERE owner_id = $1 AND item_id = $2 AND count >= $3
		 RETURNING count`,
		ownerID, itemID, n,
	).Scan(&remain)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: item %d", ErrNotEnoughItems, itemID)
	}
	if err != nil {
		return 0, err
	}
	return remain, nil
}
