package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/seergo/server/internal/config"
	"github.com/seergo/server/internal/data"
	"github.com/seergo/server/internal/effect"
	"github.com/seergo/server/internal/fight"
	"github.com/seergo/server/internal/handler"
	gonet "github.com/seergo/server/internal/net"
	"github.com/seergo/server/internal/net/packet"
	"github.com/seergo/server/internal/persist"
	"github.com/seergo/server/internal/scripting"
	"github.com/seergo/server/internal/system"
	"github.com/seergo/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              SeerGo  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        回合制精靈對戰 · Go 伺服器         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

// displayWidth counts CJK characters as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := max(46-displayWidth(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-displayWidth(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("資料庫")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL 連線成功")

	version, err := persist.RunMigrations(ctx, db.Pool, log)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("資料庫遷移完成 (版本 %d)", version))

	accountRepo := persist.NewAccountRepo(db)
	if n, err := accountRepo.ResetOnline(ctx); err != nil {
		return fmt.Errorf("reset online flags: %w", err)
	} else if n > 0 {
		log.Warn("清除殘留上線狀態", zap.Int64("accounts", n))
	}
	fmt.Println()

	// 4. Load game data
	printSection("資料載入")

	skills, err := data.NewSkillStore(cfg.Data.SkillFile)
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	printStat("技能", skills.Count())

	pets, err := data.LoadPetTable(cfg.Data.PetFile)
	if err != nil {
		return fmt.Errorf("load pets: %w", err)
	}
	printStat("精靈", pets.Count())
	printStat("野怪", pets.NpcCount())

	items, err := data.LoadItemTable(cfg.Data.ItemFile)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	printStat("道具", items.Count())

	effects, err := effect.RegisterAll()
	if err != nil {
		return fmt.Errorf("register effects: %w", err)
	}
	printStat("技能效果", effects.Len())

	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	defer engine.Close()
	printOK("Lua 戰鬥腳本載入完成")
	fmt.Println()

	// 5. Wire handlers
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	battleLog := system.NewBattleLogFlusher(persist.NewBattleLogRepo(db), cfg.Battle.LogBuffer, log)
	flushDone := make(chan struct{})
	go func() {
		battleLog.Run(runCtx, cfg.Battle.LogFlushInterval)
		close(flushDone)
	}()

	petRepo := persist.NewPetRepo(db)
	itemRepo := persist.NewItemRepo(db)
	deps := &handler.Deps{
		Config:   cfg,
		Log:      log,
		Accounts: accountRepo,
		Records:  battleLog,
		Loader:   &world.Loader{PetRepo: petRepo, ItemRepo: itemRepo, Pets: pets, Skills: skills},
		World:    world.NewState(),
		Pets:     pets,
		Skills:   skills,
		Items:    items,
		Fight: &fight.Env{
			Pipeline: effect.NewPipeline(effects, log),
			Skills:   skills,
			Damage:   engine,
			Brain:    engine,
			Log:      log,
		},
	}
	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, deps)

	// 6. Start network
	rl := cfg.RateLimit
	opts := gonet.SessionOptions{
		OutQueueSize: cfg.Network.OutQueueSize,
		MaxFrameSize: cfg.Network.MaxFrameSize,
		WriteTimeout: cfg.Network.WriteTimeout,
	}
	if rl.Enabled {
		opts.PacketsPerSecond = rl.PacketsPerSecond
		opts.Burst = rl.Burst
	}
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, pktReg, opts, log)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	netServer.OnClose(func(s *gonet.Session) { deps.Disconnect(s.Player()) })
	go netServer.AcceptLoop()
	go netServer.RunReaper(runCtx, cfg.Network.ReapInterval, cfg.Network.IdleTimeout)

	printSection("伺服器就緒")
	printStat("指令", pktReg.Count())
	printReady(fmt.Sprintf("監聽位址 %s", netServer.Addr().String()))
	fmt.Println()

	// 7. Wait for signals. SIGHUP reloads the skill table in place.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			if err := skills.Reload(); err != nil {
				log.Error("技能表重新載入失敗，沿用舊表", zap.Error(err))
				continue
			}
			log.Info("技能表已重新載入", zap.Int("skills", skills.Count()))
			continue
		}

		log.Info("收到關閉信號", zap.String("signal", sig.String()))
		netServer.Shutdown()
		waitSessions(netServer, 10*time.Second, log)
		stop()
		<-flushDone
		log.Info("伺服器已停止", zap.Int("online", deps.World.PlayerCount()))
		return nil
	}
	return nil
}

// waitSessions gives disconnect hooks time to save battles in progress.
func waitSessions(s *gonet.Server, timeout time.Duration, log *zap.Logger) {
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		log.Warn("等待連線關閉逾時", zap.Int("sessions", s.SessionCount()))
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
