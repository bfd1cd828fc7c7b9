package battlestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/pokemon-chess-battle/internal/battle"
)

func sampleSaved(t *testing.T) SavedBattle {
	t.Helper()
	ts := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	e := battle.New(battle.WithClock(func() time.Time { return ts }))
	for _, mv := range [][2]string{{"e2", "e4"}, {"d7", "d5"}, {"e4", "d5"}} {
		from, _ := battle.ParseSquare(mv[0])
		to, _ := battle.ParseSquare(mv[1])
		if _, err := e.AttemptMove(from, to); err != nil {
			t.Fatalf("AttemptMove %v: %v", mv, err)
		}
	}
	return SavedBattle{BattleID: "battle-1", StartedAt: ts.Add(-time.Minute), Snapshot: e.Snapshot()}
}

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx, "empty")
	if err != nil || got != nil {
		t.Fatalf("Load(empty) = %v, %v; want nil, nil", got, err)
	}

	snap := sampleSaved(t)
	if err := s.Save(ctx, "slot-a", snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx, "slot-a")
	if err != nil || got == nil {
		t.Fatalf("Load: %v, %v", got, err)
	}
	if diff := cmp.Diff(snap, *got); diff != "" {
		t.Fatalf("loaded snapshot mismatch (-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, "slot-a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := s.Load(ctx, "slot-a"); err != nil || got != nil {
		t.Fatalf("Load after delete = %v, %v", got, err)
	}
	if err := s.Save(ctx, "  ", snap); err == nil {
		t.Fatalf("Save with blank slot should fail")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_MalformedPayload(t *testing.T) {
	s := NewMemoryStore()
	cases := map[string]string{
		"short board":   `{"battleId":"x","snapshot":{"board":[],"toMove":"white"}}`,
		"no battle id":  `{"snapshot":{"turnCounter":1}}`,
		"not json":      `{{`,
		"zero snapshot": `{"battleId":"x","snapshot":{}}`,
	}
	for name, raw := range cases {
		s.Put(name, []byte(raw))
		if _, err := s.Load(context.Background(), name); !errors.Is(err, battle.ErrMalformedSnapshot) {
			t.Fatalf("%s: err=%v, want ErrMalformedSnapshot", name, err)
		}
	}
}
