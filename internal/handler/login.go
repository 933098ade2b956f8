package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/seergo/server/internal/net/packet"
	"github.com/seergo/server/internal/persist"
	"github.com/seergo/server/internal/world"
	"go.uber.org/zap"
)

const maxAccountLen = 32

// handleLogin processes CMD_LOGIN.
// Body: [account str][password str]. Reply: [userId u32][petCount u32].
func (d *Deps) handleLogin(conn packet.Conn, req packet.Header, r *packet.Reader) error {
	name := strings.ToLower(strings.TrimSpace(r.ReadString()))
	password := r.ReadString()
	if r.Err() != nil || name == "" || len(name) > maxAccountLen {
		return packet.Fail(packet.ResultBadRequest, "malformed login")
	}
	if conn.State() != packet.StateConnected {
		return packet.Fail(packet.ResultLoginFailed, "session already logged in")
	}
	binder, ok := conn.(Binder)
	if !ok {
		return errors.New("connection cannot bind a player")
	}

	ctx, cancel := d.ctx()
	defer cancel()

	acc, created, err := d.authenticate(ctx, name, password)
	if err != nil {
		return err
	}

	player, err := d.Loader.Load(ctx, acc.ID, acc.Name)
	if err != nil {
		return err
	}
	if created {
		d.grantStarter(ctx, player)
	}

	if err := d.World.AddPlayer(player); err != nil {
		if errors.Is(err, world.ErrAlreadyOnline) {
			return packet.Fail(packet.ResultLoginFailed, "account %s already online", name)
		}
		return err
	}
	if err := d.Accounts.SetOnline(ctx, acc.ID, true); err != nil {
		d.Log.Error("更新上線狀態失敗", zap.Uint32("user", acc.ID), zap.Error(err))
	}
	binder.Bind(player)

	d.Log.Info("玩家登入",
		zap.String("account", name),
		zap.Uint32("user", acc.ID),
		zap.Int("pets", player.Pets.Count()),
		zap.Bool("new", created),
	)

	w := packet.NewWriter()
	w.WriteU32(acc.ID)
	w.WriteU32(uint32(player.Pets.Count()))
	packet.Reply(conn, req, w.Bytes())
	return nil
}

// authenticate loads or creates the account and checks its password.
func (d *Deps) authenticate(ctx context.Context, name, password string) (*persist.AccountRow, bool, error) {
	acc, err := d.Accounts.Load(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if acc == nil {
		if d.Config == nil || !d.Config.Server.AutoCreateAccounts {
			return nil, false, packet.Fail(packet.ResultLoginFailed, "account %s not found", name)
		}
		acc, err = d.Accounts.Create(ctx, name, password)
		if err != nil {
			return nil, false, err
		}
		d.Log.Info("自動建立帳號", zap.String("account", name), zap.Uint32("user", acc.ID))
		return acc, true, nil
	}
	if acc.Banned {
		return nil, false, packet.Fail(packet.ResultLoginFailed, "account %s banned", name)
	}
	if !d.Accounts.ValidatePassword(acc.PasswordHash, password) {
		return nil, false, packet.Fail(packet.ResultLoginFailed, "wrong password for %s", name)
	}
	return acc, false, nil
}

// grantStarter gives a new account its first pet and items. Failures are
// logged; the login itself still succeeds.
func (d *Deps) grantStarter(ctx context.Context, p *world.Player) {
	if d.Config == nil {
		return
	}
	bc := d.Config.Battle
	if bc.StarterPetID > 0 {
		if _, err := p.Pets.Grant(ctx, bc.StarterPetID, bc.StarterLevel); err != nil {
			d.Log.Error("發放初始寵物失敗", zap.Uint32("user", p.UserID), zap.Error(err))
		}
	}
	for _, id := range bc.StarterItems {
		if err := p.Items.Add(ctx, id, bc.StarterItemEach); err != nil {
			d.Log.Error("發放初始道具失敗", zap.Uint32("user", p.UserID), zap.Int32("item", id), zap.Error(err))
		}
	}
}

// handleHeartbeat processes CMD_HEARTBEAT. Reply: [serverTime u32].
func handleHeartbeat(conn packet.Conn, req packet.Header, _ *packet.Reader) error {
	w := packet.NewWriter()
	w.WriteU32(uint32(time.Now().Unix()))
	packet.Reply(conn, req, w.Bytes())
	return nil
}

// Disconnect releases everything a closing session held: an open battle is
// ended as an escape and its pet saved, the player leaves the world and the
// account is marked offline. p may be nil for sessions that never logged in.
func (d *Deps) Disconnect(p *world.Player) {
	if p == nil {
		return
	}
	ctx, cancel := d.ctx()
	defer cancel()

	if b, err := p.Battles.Current(); err == nil {
		b.Escape()
		d.finishBattle(ctx, b, p.Battles)
	}
	d.World.RemovePlayer(p.UserID)
	if err := d.Accounts.SetOnline(ctx, p.UserID, false); err != nil {
		d.Log.Error("更新離線狀態失敗", zap.Uint32("user", p.UserID), zap.Error(err))
	}
	d.Log.Info("玩家離線", zap.Uint32("user", p.UserID), zap.Int("online", d.World.PlayerCount()))
}
