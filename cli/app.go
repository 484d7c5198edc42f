package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/junaidrashid-git/yar-marketplace/cache"
	"github.com/junaidrashid-git/yar-marketplace/config"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/logging"
	"github.com/junaidrashid-git/yar-marketplace/notify"
	"github.com/junaidrashid-git/yar-marketplace/oversight"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
)

const serviceName = "yarmarket"

// app holds what every command shares: config, store, cache and engine.
type app struct {
	cfg    *config.Config
	store  *ledger.Store
	gen    *cache.Generation
	engine *reconcile.Engine
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(os.Stderr, cfg.LogLevel)
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*ledger.Store, error) {
	db, err := ledger.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	store := ledger.New(db, nil)
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// newCache prefers redis and falls back to an in-process cache when redis
// is not configured or not reachable.
func newCache(ctx context.Context, cfg config.RedisConfig) cache.Cache {
	if cfg.Addr == "" {
		slog.InfoContext(ctx, "redis not configured, using in-memory cache")
		return cache.NewMemory(serviceName)
	}
	c := cache.NewRedisCache(cfg.Addr, cfg.Password, cfg.DB, serviceName)
	if err := cache.Ping(ctx, c); err != nil {
		slog.WarnContext(ctx, "redis unreachable, using in-memory cache", "addr", cfg.Addr, "error", err)
		return cache.NewMemory(serviceName)
	}
	slog.InfoContext(ctx, "redis cache connected", "addr", cfg.Addr)
	return c
}

func newApp(ctx context.Context, n notify.Notifier) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gen := cache.NewGeneration(newCache(ctx, cfg.Redis), "aggregates")
	if n == nil {
		n = notify.Log{}
	}
	engine := reconcile.New(store, n,
		reconcile.WithCache(gen),
		reconcile.WithHoldWindow(cfg.Escrow.HoldWindow),
	)
	return &app{cfg: cfg, store: store, gen: gen, engine: engine}, nil
}

func (a *app) oversight(n notify.Notifier) *oversight.Service {
	return oversight.NewService(a.store, a.engine, n, a.gen, a.cfg.Aggregates, a.cfg.Tickets)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Error("closing store failed", "error", err)
	}
}

func describe(cfg *config.Config) string {
	return fmt.Sprintf("driver=%s currency=%s telr_mode=%s", cfg.Database.Driver, cfg.Currency, cfg.Telr.Mode)
}
