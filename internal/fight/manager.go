package fight

import (
	"context"
	"fmt"
	"sync"

	"github.com/seergo/server/internal/battle"
)

// PetStore loads a stored pet into a battle participant and writes the
// result back when the battle ends.
type PetStore interface {
	LoadParticipant(ctx context.Context, catchTime uint32) (*battle.Participant, error)
	SaveParticipant(ctx context.Context, p *battle.Participant) error
}

// Manager holds the current battle of one session and writes the player's
// participant back through store when the battle ends.
type Manager struct {
	store PetStore

	mu  sync.Mutex
	cur *Battle
}

func NewManager(store PetStore) *Manager {
	return &Manager{store: store}
}

// Start makes b the current battle. A session fights one battle at a time.
func (m *Manager) Start(b *Battle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur != nil {
		return ErrAlreadyInBattle
	}
	m.cur = b
	return nil
}

// Current returns the running battle.
func (m *Manager) Current() (*Battle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return nil, ErrNoBattle
	}
	return m.cur, nil
}

// InBattle reports whether a battle is running.
func (m *Manager) InBattle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur != nil
}

// End clears the current battle and returns it (nil if there was none).
func (m *Manager) End() *Battle {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.cur
	m.cur = nil
	return b
}

// Finish ends the current battle and saves the player's pet. It returns the
// finished battle, or ErrNoBattle.
func (m *Manager) Finish(ctx context.Context) (*Battle, error) {
	b := m.End()
	if b == nil {
		return nil, ErrNoBattle
	}
	if m.store == nil {
		return b, nil
	}
	if err := m.store.SaveParticipant(ctx, b.Player); err != nil {
		return b, fmt.Errorf("finish battle %s: %w", b.ID, err)
	}
	return b, nil
}
