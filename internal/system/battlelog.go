// Package system holds background jobs that run beside the session
// goroutines.
package system

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/seergo/server/internal/persist"
	"go.uber.org/zap"
)

// ErrBacklogFull is returned by Write when the unflushed backlog is at capacity.
var ErrBacklogFull = errors.New("system: battle log backlog full")

// BattleLogSink stores a batch of records, e.g. *persist.BattleLogRepo.
type BattleLogSink interface {
	Write(ctx context.Context, records ...persist.BattleRecord) error
}

// BattleLogFlusher buffers finished-battle records and writes them to the
// sink in batches, so a slow database never stalls a battle response.
type BattleLogFlusher struct {
	sink       BattleLogSink
	maxPending int
	log        *zap.Logger

	mu      sync.Mutex
	pending []persist.BattleRecord
}

func NewBattleLogFlusher(sink BattleLogSink, maxPending int, log *zap.Logger) *BattleLogFlusher {
	return &BattleLogFlusher{
		sink:       sink,
		maxPending: maxPending,
		log:        log,
	}
}

// Write queues records for the next flush. It never touches the database.
func (f *BattleLogFlusher) Write(_ context.Context, records ...persist.BattleRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending)+len(records) > f.maxPending {
		return ErrBacklogFull
	}
	f.pending = append(f.pending, records...)
	return nil
}

// Pending returns the number of queued records.
func (f *BattleLogFlusher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Flush writes everything queued as one batch. On failure the batch goes
// back to the front of the queue, as far as capacity allows.
func (f *BattleLogFlusher) Flush(ctx context.Context) (int, error) {
	f.mu.Lock()
	batch := f.pending
	f.pending = nil
	f.mu.Unlock()
	if len(batch) == 0 {
		return 0, nil
	}

	if err := f.sink.Write(ctx, batch...); err != nil {
		f.mu.Lock()
		room := max(f.maxPending-len(f.pending), 0)
		if len(batch) > room {
			f.log.Warn("戰鬥紀錄積壓過多，捨棄最舊紀錄", zap.Int("dropped", len(batch)-room))
			batch = batch[len(batch)-room:]
		}
		f.pending = append(batch, f.pending...)
		f.mu.Unlock()
		return 0, err
	}
	return len(batch), nil
}

// Run flushes every interval until ctx is done, then makes a final flush.
func (f *BattleLogFlusher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			f.flushWithTimeout()
		case <-ctx.Done():
			f.flushWithTimeout()
			return
		}
	}
}

func (f *BattleLogFlusher) flushWithTimeout() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n, err := f.Flush(ctx)
	if err != nil {
		f.log.Error("戰鬥紀錄寫入失敗", zap.Int("pending", f.Pending()), zap.Error(err))
		return
	}
	if n > 0 {
		f.log.Debug("戰鬥紀錄已寫入", zap.Int("records", n))
	}
}
