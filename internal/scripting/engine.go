package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for battle formula execution.
// LState is not goroutine safe; every call holds mu.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// Load core scripts first, then feature scripts
	corePath := filepath.Join(scriptsDir, "core")
	if err := e.loadDir(corePath); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load core scripts: %w", err)
	}

	combatPath := filepath.Join(scriptsDir, "combat")
	if err := e.loadDir(combatPath); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load combat scripts: %w", err)
	}

	if err := e.loadDir(filepath.Join(scriptsDir, "ai")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load ai scripts: %w", err)
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("已載入 Lua 腳本", zap.String("file", path))
	}
	return nil
}

// SkillDamageContext holds pre-packed data for one skill damage roll.
// Attack/Defense are already picked by skill category (physical uses
// atk/def, special uses sp_atk/sp_def). Rolls are drawn by the battle so
// results stay reproducible under a seeded source.
type SkillDamageContext struct {
	SkillID  int
	Power    int // includes any bonus power from effects
	Accuracy int // 0 = never misses
	CritRate int // out of 16
	SameType bool
	Category int

	AttackerLevel int
	Attack        int
	AttackLevel   int // battle level of the attack stat
	AccuracyLevel int

	Defense      int
	DefenseLevel int

	HitRoll    int // 0..99
	CritRoll   int // 0..15
	RandFactor int // 217..255
}

// SkillDamageResult is returned by the Lua skill damage function.
type SkillDamageResult struct {
	Hit    bool
	Crit   bool
	Damage int // per hit
}

// fallbackDamage is used when the script is missing or broken.
var fallbackDamage = SkillDamageResult{Hit: true, Damage: 1}

// CalcSkillDamage calls the Lua calc_skill_damage function.
func (e *Engine) CalcSkillDamage(ctx SkillDamageContext) SkillDamageResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("calc_skill_damage")
	if fn == lua.LNil {
		e.log.Error("找不到 Lua 函式 calc_skill_damage")
		return fallbackDamage
	}

	t := e.vm.NewTable()

	sk := e.vm.NewTable()
	sk.RawSetString("id", lua.LNumber(ctx.SkillID))
	sk.RawSetString("power", lua.LNumber(ctx.Power))
	sk.RawSetString("accuracy", lua.LNumber(ctx.Accuracy))
	sk.RawSetString("crit_rate", lua.LNumber(ctx.CritRate))
	sk.RawSetString("category", lua.LNumber(ctx.Category))
	sk.RawSetString("same_type", lua.LBool(ctx.SameType))
	t.RawSetString("skill", sk)

	atk := e.vm.NewTable()
	atk.RawSetString("level", lua.LNumber(ctx.AttackerLevel))
	atk.RawSetString("attack", lua.LNumber(ctx.Attack))
	atk.RawSetString("attack_level", lua.LNumber(ctx.AttackLevel))
	atk.RawSetString("accuracy_level", lua.LNumber(ctx.AccuracyLevel))
	t.RawSetString("attacker", atk)

	tgt := e.vm.NewTable()
	tgt.RawSetString("defense", lua.LNumber(ctx.Defense))
	tgt.RawSetString("defense_level", lua.LNumber(ctx.DefenseLevel))
	t.RawSetString("target", tgt)

	roll := e.vm.NewTable()
	roll.RawSetString("hit", lua.LNumber(ctx.HitRoll))
	roll.RawSetString("crit", lua.LNumber(ctx.CritRoll))
	roll.RawSetString("factor", lua.LNumber(ctx.RandFactor))
	t.RawSetString("roll", roll)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("Lua calc_skill_damage 執行錯誤", zap.Error(err))
		return fallbackDamage
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("Lua calc_skill_damage 回傳值不是 table")
		return fallbackDamage
	}

	dmg := lInt(rt, "damage")
	if dmg < 0 {
		dmg = 0
	}
	return SkillDamageResult{
		Hit:    lua.LVAsBool(rt.RawGetString("hit")),
		Crit:   lua.LVAsBool(rt.RawGetString("crit")),
		Damage: dmg,
	}
}

// NpcChoiceContext is what the NPC skill hook sees of the battle.
type NpcChoiceContext struct {
	Skills   []int
	PP       []int
	LastMove int
	HP       int
	MaxHP    int
	FoeHP    int
	FoeMaxHP int
	Round    int
}

// ChooseNpcSkill calls the optional Lua choose_npc_skill hook. ok is false
// when no hook is loaded, it fails, or it returns a non-positive id; the
// caller then falls back to its own choice.
func (e *Engine) ChooseNpcSkill(ctx NpcChoiceContext) (skillID int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("choose_npc_skill")
	if fn == lua.LNil {
		return 0, false
	}

	t := e.vm.NewTable()
	skills := e.vm.NewTable()
	for i, id := range ctx.Skills {
		s := e.vm.NewTable()
		s.RawSetString("id", lua.LNumber(id))
		pp := 0
		if i < len(ctx.PP) {
			pp = ctx.PP[i]
		}
		s.RawSetString("pp", lua.LNumber(pp))
		skills.Append(s)
	}
	t.RawSetString("skills", skills)
	t.RawSetString("last_move", lua.LNumber(ctx.LastMove))
	t.RawSetString("hp", lua.LNumber(ctx.HP))
	t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))
	t.RawSetString("foe_hp", lua.LNumber(ctx.FoeHP))
	t.RawSetString("foe_max_hp", lua.LNumber(ctx.FoeMaxHP))
	t.RawSetString("round", lua.LNumber(ctx.Round))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("Lua choose_npc_skill 執行錯誤", zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	id := int(lua.LVAsNumber(result))
	if id <= 0 {
		return 0, false
	}
	return id, true
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
