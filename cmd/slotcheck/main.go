package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/pokemon-chess-battle/internal/arenabuilder"
	"github.com/park285/pokemon-chess-battle/internal/battle"
	appcfg "github.com/park285/pokemon-chess-battle/internal/config"
	"github.com/park285/pokemon-chess-battle/internal/viewbridge"
	"github.com/park285/pokemon-chess-battle/pkg/battledto"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	store, err := arenabuilder.OpenStore(cfg)
	if err != nil {
		log.Fatalf("store init error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	saved, err := store.Load(ctx, cfg.SaveSlot)
	cancel()
	_ = store.Close()

	switch {
	case err != nil:
		log.Printf("slot %q (%s) is malformed: %v", cfg.SaveSlot, cfg.StoreBackend, err)
		os.Exit(1)
	case saved == nil:
		log.Printf("slot %q (%s) is empty", cfg.SaveSlot, cfg.StoreBackend)
	default:
		eng, rerr := battle.Restore(saved.Snapshot)
		if rerr != nil {
			log.Printf("slot %q does not restore: %v", cfg.SaveSlot, rerr)
			os.Exit(1)
		}
		v := eng.State()
		age := time.Since(saved.Snapshot.Timestamp).Round(time.Second)
		fmt.Printf("battle=%s started=%s saved=%s ago\n", saved.BattleID, saved.StartedAt.Format(time.RFC3339), age)
		fmt.Printf("status=%s to_move=%s turn=%d half_moves=%d captured=%d/%d\n",
			v.Status, v.ToMove, v.TurnCounter, len(saved.Snapshot.History), len(v.Captured.White), len(v.Captured.Black))
		if v.PendingPromotion != nil {
			fmt.Printf("pending promotion on %s\n", v.PendingPromotion)
		}
		if cfg.SaveMaxAge > 0 && age > cfg.SaveMaxAge {
			log.Printf("save is older than %s; the arena will start a fresh battle", cfg.SaveMaxAge)
		}
	}

	bridgeURL := os.Getenv("ARENA_BRIDGE_URL")
	if bridgeURL == "" {
		log.Println("ARENA_BRIDGE_URL not set; skipping bridge check")
		return
	}
	// the bridge may still be starting; reads retry on 5xx
	client := viewbridge.NewClient(bridgeURL, viewbridge.WithTimeout(8*time.Second), viewbridge.WithRetry(4))
	hctx, hcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer hcancel()
	id, err := client.Health(hctx)
	if err != nil {
		log.Printf("/healthz error: %v", err)
		os.Exit(1)
	}
	log.Printf("/healthz ok: battle=%s", id)
	if saved != nil && saved.BattleID != id {
		log.Printf("bridge serves battle %s but slot holds %s", id, saved.BattleID)
	}

	feedURL := os.Getenv("ARENA_FEED_URL")
	if feedURL == "" {
		log.Println("ARENA_FEED_URL not set; skipping feed check")
		return
	}
	w := viewbridge.NewWatcher(feedURL, 5, func(st *battledto.State) {
		fmt.Printf("feed battle=%s status=%s to_move=%s turn=%d headline=%q\n", st.BattleID, st.Status, st.ToMove, st.TurnCounter, st.Headline)
	})
	w.OnConnState(func(s viewbridge.WatchState) {
		log.Printf("feed state: %s", s)
	})
	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := w.Connect(cctx); err != nil {
		log.Printf("feed connect error: %v", err)
		return
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = w.Close(context.Background())
}
