package handler

import (
	"context"
	"time"

	"github.com/seergo/server/internal/config"
	"github.com/seergo/server/internal/data"
	"github.com/seergo/server/internal/fight"
	"github.com/seergo/server/internal/net/packet"
	"github.com/seergo/server/internal/persist"
	"github.com/seergo/server/internal/world"
	"go.uber.org/zap"
)

// AccountStore is the account storage used by login and disconnect.
type AccountStore interface {
	Load(ctx context.Context, name string) (*persist.AccountRow, error)
	Create(ctx context.Context, name, rawPassword string) (*persist.AccountRow, error)
	ValidatePassword(hash, rawPassword string) bool
	SetOnline(ctx context.Context, id uint32, online bool) error
}

// BattleRecorder receives one record per finished battle.
type BattleRecorder interface {
	Write(ctx context.Context, records ...persist.BattleRecord) error
}

// Binder is implemented by connections that can carry a logged-in player.
type Binder interface {
	Bind(p *world.Player)
}

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Accounts AccountStore
	Records  BattleRecorder // may be nil
	Loader   *world.Loader
	World    *world.State
	Pets     *data.PetTable
	Skills   *data.SkillStore
	Items    *data.ItemTable
	Fight    *fight.Env
}

const defaultQueryTimeout = 5 * time.Second

// ctx returns a context bounded by the configured query timeout.
func (d *Deps) ctx() (context.Context, context.CancelFunc) {
	timeout := defaultQueryTimeout
	if d.Config != nil && d.Config.Database.QueryTimeout > 0 {
		timeout = d.Config.Database.QueryTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Pre-login
	reg.Register(packet.Command{
		ID:   packet.CMD_LOGIN,
		Name: "LOGIN",
		New:  func(packet.Injected) packet.Handler { return packet.HandlerFunc(deps.handleLogin) },
	})
	reg.Register(packet.Command{
		ID:   packet.CMD_HEARTBEAT,
		Name: "HEARTBEAT",
		New:  func(packet.Injected) packet.Handler { return packet.HandlerFunc(handleHeartbeat) },
	})

	// Pets
	reg.Register(packet.Command{
		ID:    packet.CMD_GET_PET_INFO,
		Name:  "GET_PET_INFO",
		Needs: []packet.Capability{packet.CapPets},
		New: func(in packet.Injected) packet.Handler {
			return &petInfoHandler{pets: pets(in)}
		},
	})
	reg.Register(packet.Command{
		ID:    packet.CMD_GET_PET_LIST,
		Name:  "GET_PET_LIST",
		Needs: []packet.Capability{packet.CapPets},
		New: func(in packet.Injected) packet.Handler {
			return &petListHandler{pets: pets(in)}
		},
	})

	// Battle
	reg.Register(packet.Command{
		ID:    packet.CMD_FIGHT_NPC_MONSTER,
		Name:  "FIGHT_NPC_MONSTER",
		Needs: []packet.Capability{packet.CapPets, packet.CapBattle},
		New: func(in packet.Injected) packet.Handler {
			return &fightNpcHandler{deps: deps, pets: pets(in), battles: battles(in)}
		},
	})
	reg.Register(packet.Command{
		ID:    packet.CMD_USE_SKILL,
		Name:  "USE_SKILL",
		Needs: []packet.Capability{packet.CapBattle},
		New: func(in packet.Injected) packet.Handler {
			return &useSkillHandler{deps: deps, battles: battles(in)}
		},
	})
	reg.Register(packet.Command{
		ID:    packet.CMD_ESCAPE_FIGHT,
		Name:  "ESCAPE_FIGHT",
		Needs: []packet.Capability{packet.CapBattle},
		New: func(in packet.Injected) packet.Handler {
			return &escapeHandler{deps: deps, battles: battles(in)}
		},
	})

	// Items
	reg.Register(packet.Command{
		ID:    packet.CMD_GET_ITEM_LIST,
		Name:  "GET_ITEM_LIST",
		Needs: []packet.Capability{packet.CapItems},
		New: func(in packet.Injected) packet.Handler {
			return &itemListHandler{items: items(in)}
		},
	})
	reg.Register(packet.Command{
		ID:    packet.CMD_USE_PET_ITEM,
		Name:  "USE_PET_ITEM",
		Needs: []packet.Capability{packet.CapBattle, packet.CapItems},
		New: func(in packet.Injected) packet.Handler {
			return &usePetItemHandler{deps: deps, battles: battles(in), items: items(in)}
		},
	})
}

func pets(in packet.Injected) *world.PetRoster  { return in.Get(packet.CapPets).(*world.PetRoster) }
func battles(in packet.Injected) *fight.Manager { return in.Get(packet.CapBattle).(*fight.Manager) }
func items(in packet.Injected) *world.Inventory { return in.Get(packet.CapItems).(*world.Inventory) }
