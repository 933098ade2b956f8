package world

import (
	"errors"
	"sync"

	"github.com/seergo/server/internal/fight"
	"github.com/seergo/server/internal/net/packet"
)

var (
	ErrNotLoggedIn   = errors.New("world: not logged in")
	ErrAlreadyOnline = errors.New("world: account already online")
)

// Player holds the in-memory data of a logged-in account. Its managers are
// the values a session hands to handlers as capabilities.
type Player struct {
	UserID  uint32
	Account string

	Pets    *PetRoster
	Items   *Inventory
	Battles *fight.Manager
}

// Resolve maps a capability to the manager that serves it.
func (p *Player) Resolve(c packet.Capability) (any, bool) {
	if p == nil {
		return nil, false
	}
	switch c {
	case packet.CapPets:
		return p.Pets, p.Pets != nil
	case packet.CapBattle:
		return p.Battles, p.Battles != nil
	case packet.CapItems:
		return p.Items, p.Items != nil
	default:
		return nil, false
	}
}

// State tracks the players currently online. Sessions run on their own
// goroutines, so every access is locked.
type State struct {
	mu      sync.RWMutex
	players map[uint32]*Player
}

func NewState() *State {
	return &State{players: make(map[uint32]*Player)}
}

// AddPlayer registers p. A second login of the same account is refused.
func (s *State) AddPlayer(p *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.UserID]; ok {
		return ErrAlreadyOnline
	}
	s.players[p.UserID] = p
	return nil
}

// RemovePlayer drops userID and returns the player that was online.
func (s *State) RemovePlayer(userID uint32) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.players[userID]
	delete(s.players, userID)
	return p
}

func (s *State) GetByUserID(userID uint32) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[userID]
}

func (s *State) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}
