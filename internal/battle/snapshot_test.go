package battle

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fixedClock() func() time.Time {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func encodeSnapshot(t *testing.T, s Snapshot) []byte {
	t.Helper()
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return raw
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	e := New(WithClock(fixedClock()))
	mustMove(t, e, "e2", "e4")
	mustMove(t, e, "d7", "d5")
	mustMove(t, e, "e4", "d5")
	mustMove(t, e, "d8", "d5")

	snap := e.Snapshot()
	decoded, err := DecodeSnapshot(encodeSnapshot(t, snap))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if diff := cmp.Diff(snap, decoded); diff != "" {
		t.Fatalf("snapshot changed across JSON (-want +got):\n%s", diff)
	}

	restored, err := Restore(decoded, WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if diff := cmp.Diff(e.State(), restored.State()); diff != "" {
		t.Fatalf("restored state mismatch (-want +got):\n%s", diff)
	}

	// the restored engine keeps playing and undoing like the original
	mustMove(t, restored, "b1", "c3")
	mustMove(t, e, "b1", "c3")
	if diff := cmp.Diff(e.State(), restored.State()); diff != "" {
		t.Fatalf("diverged after a move (-want +got):\n%s", diff)
	}
	for e.Undo() {
		if !restored.Undo() {
			t.Fatalf("restored engine ran out of history early")
		}
		if diff := cmp.Diff(e.State(), restored.State()); diff != "" {
			t.Fatalf("diverged during undo (-want +got):\n%s", diff)
		}
	}
	if restored.Undo() {
		t.Fatalf("restored engine has extra history")
	}
}

func TestSnapshot_PendingPromotionSurvives(t *testing.T) {
	e, err := NewFromPosition(promotionBoard(), White, WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("NewFromPosition: %v", err)
	}
	mustMove(t, e, "a7", "a8")
	decoded, err := DecodeSnapshot(encodeSnapshot(t, e.Snapshot()))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	restored, err := Restore(decoded)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if sq8, ok := restored.PendingPromotion(); !ok || sq8 != sq("a8") {
		t.Fatalf("pending promotion lost: %v %v", sq8, ok)
	}
	if _, err := restored.CompletePromotion(Rook); err != nil {
		t.Fatalf("CompletePromotion after restore: %v", err)
	}
	if restored.ToMove() != Black {
		t.Fatalf("toMove = %s", restored.ToMove())
	}
}

func TestSnapshot_RejectsMalformed(t *testing.T) {
	base := func() Snapshot {
		e := New(WithClock(fixedClock()))
		mustMove(t, e, "e2", "e4")
		mustMove(t, e, "d7", "d5")
		mustMove(t, e, "e4", "d5")
		return e.Snapshot()
	}
	cases := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"missing king", func(s *Snapshot) { s.Board.Clear(sq("e8")) }},
		{"extra king", func(s *Snapshot) { s.Board.Set(sq("a4"), Piece{Kind: King, Color: White}) }},
		{"stale king cache", func(s *Snapshot) { s.KingSquare.White = sq("d1") }},
		{"turn counter", func(s *Snapshot) { s.TurnCounter = 0 }},
		{"bad side", func(s *Snapshot) { s.ToMove = Color(7) }},
		{"wrong status", func(s *Snapshot) { s.Status = StatusCheckmate }},
		{"captured color", func(s *Snapshot) { s.Captured.White = append(s.Captured.White, Piece{Kind: Pawn, Color: Black}) }},
		{"capture count", func(s *Snapshot) { s.Captured.Black = nil }},
		{"history piece", func(s *Snapshot) { s.History[0].Moved = Piece{} }},
		{"history snapshot", func(s *Snapshot) { s.History[1].Before = Board{} }},
		{"history promotion", func(s *Snapshot) { s.History[0].Promotion = King }},
		{"pending without pawn", func(s *Snapshot) { p := sq("a8"); s.PendingPromotion = &p }},
		{"turn counter ahead of history", func(s *Snapshot) { s.TurnCounter = 3 }},
		{"move list too short", func(s *Snapshot) { s.MoveList = s.MoveList[:1] }},
		{"move list text", func(s *Snapshot) { s.MoveList[0].White = "tackle" }},
		{"side to move", func(s *Snapshot) { s.ToMove = White }},
	}
	for _, tc := range cases {
		s := base()
		tc.mutate(&s)
		if _, err := Restore(s); !errors.Is(err, ErrMalformedSnapshot) {
			t.Fatalf("%s: Restore err=%v, want ErrMalformedSnapshot", tc.name, err)
		}
	}
}

func TestSnapshot_RejectsInconsistentPendingPromotion(t *testing.T) {
	base := func() Snapshot {
		e, err := NewFromPosition(promotionBoard(), White, WithClock(fixedClock()))
		if err != nil {
			t.Fatalf("NewFromPosition: %v", err)
		}
		mustMove(t, e, "a7", "a8")
		return e.Snapshot()
	}
	if _, err := Restore(base()); err != nil {
		t.Fatalf("unmodified snapshot: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"already promoted", func(s *Snapshot) { s.History[0].Promotion = Queen }},
		{"move list notes the pending move", func(s *Snapshot) {
			s.MoveList = []MoveListEntry{{Number: 1, White: "pawn to a8"}}
		}},
		{"turn advanced", func(s *Snapshot) { s.TurnCounter = 2 }},
	}
	for _, tc := range cases {
		s := base()
		tc.mutate(&s)
		if _, err := Restore(s); !errors.Is(err, ErrMalformedSnapshot) {
			t.Fatalf("%s: Restore err=%v, want ErrMalformedSnapshot", tc.name, err)
		}
	}

	// an unpromoted pawn on the last rank is only valid while pending
	s := base()
	s.PendingPromotion = nil
	if _, err := Restore(s); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("finished pawn move without promotion: err=%v", err)
	}
}

func TestDecodeSnapshot_RejectsBadJSON(t *testing.T) {
	good := encodeSnapshot(t, New(WithClock(fixedClock())).Snapshot())
	var generic map[string]any
	if err := json.Unmarshal(good, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cases := map[string]func(m map[string]any){
		"unknown status": func(m map[string]any) { m["status"] = "fainted" },
		"unknown color":  func(m map[string]any) { m["toMove"] = "green" },
		"short board":    func(m map[string]any) { m["board"] = m["board"].([]any)[:7] },
		"bad piece kind": func(m map[string]any) {
			rows := m["board"].([]any)
			rows[0].([]any)[0] = map[string]any{"kind": "dragon", "color": "black"}
		},
	}
	for name, mutate := range cases {
		var m map[string]any
		_ = json.Unmarshal(good, &m)
		mutate(m)
		raw, _ := json.Marshal(m)
		if _, err := DecodeSnapshot(raw); !errors.Is(err, ErrMalformedSnapshot) {
			t.Fatalf("%s: err=%v, want ErrMalformedSnapshot", name, err)
		}
	}
	if _, err := DecodeSnapshot([]byte("{not json")); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("garbage: err=%v", err)
	}
}
