package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// BattleRecord is one finished battle.
type BattleRecord struct {
	BattleID  uuid.UUID
	UserID    uint32
	CatchTime uint32
	NpcID     int32
	WinnerID  uint32
	Reason    uint32 // 0 normal, 1 escape
	Rounds    int
}

type BattleLogRepo struct {
	db *DB
}

func NewBattleLogRepo(db *DB) *BattleLogRepo {
	return &BattleLogRepo{db: db}
}

// Write stores a batch of records in a single transaction.
func (r *BattleLogRepo) Write(ctx context.Context, records ...BattleRecord) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("battle log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range records {
		if _, err := tx.Exec(ctx,
			`INSERT INTO battle_log (battle_id, user_id, catch_time, npc_id, winner_id, reason, rounds)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			b.BattleID, b.UserID, b.CatchTime, b.NpcID, b.WinnerID, b.Reason, b.Rounds,
		); err != nil {
			return fmt.Errorf("battle log insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
