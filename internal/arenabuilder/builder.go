package arenabuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/pokemon-chess-battle/internal/arena"
	"github.com/park285/pokemon-chess-battle/internal/battlestore"
	"github.com/park285/pokemon-chess-battle/internal/config"
	"github.com/park285/pokemon-chess-battle/internal/obslog"
	"github.com/park285/pokemon-chess-battle/internal/roster"
	"github.com/park285/pokemon-chess-battle/internal/viewbridge"
)

type Deps struct {
	Store   battlestore.Store
	Archive battlestore.Archive
	Roster  *roster.Catalog
	Feed    *viewbridge.Feed
	Arena   *arena.Arena
	Server  *viewbridge.Server
}

// New wires the arena from cfg. The caller owns Close.
func New(ctx context.Context, cfg *config.AppConfig) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	log := obslog.L()

	cat, err := roster.New(cfg.RosterDir)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	d := &Deps{Store: store, Roster: cat}

	// Archive (Postgres optional)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pg, err := battlestore.NewPostgresArchive(cfg.DatabaseURL)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		d.Archive = pg
		log.Info("archive_backend", zap.String("backend", "postgres"))
	} else {
		d.Archive = battlestore.NewMemoryArchive()
		log.Info("archive_backend", zap.String("backend", "memory"))
	}

	d.Feed = viewbridge.NewFeed()
	d.Arena, err = arena.Open(ctx, arena.Options{
		Slot:    cfg.SaveSlot,
		MaxAge:  cfg.SaveMaxAge,
		Store:   d.Store,
		Archive: d.Archive,
		Roster:  cat,
		Feed:    d.Feed,
	})
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("open arena: %w", err)
	}
	// 새 구독자가 바로 현재 상태를 받도록
	d.Feed.Publish(ctx, d.Arena.State(ctx))
	d.Server = viewbridge.NewServer(d.Arena)
	return d, nil
}

// OpenStore builds the save-slot backend named by cfg.StoreBackend.
func OpenStore(cfg *config.AppConfig) (battlestore.Store, error) {
	ttl := cfg.SaveMaxAge
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return battlestore.NewMemoryStore(), nil
	case config.BackendRedis:
		s, err := battlestore.NewRedisStore(cfg.RedisURL, cfg.RedisKeyPrefix, ttl)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		return s, nil
	case config.BackendBadger:
		s, err := battlestore.OpenBadgerStore(cfg.BadgerDir, ttl)
		if err != nil {
			return nil, fmt.Errorf("init badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (d *Deps) Close() error {
	var errs []error
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	if d.Archive != nil {
		errs = append(errs, d.Archive.Close())
	}
	return errors.Join(errs...)
}
