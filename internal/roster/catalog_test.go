package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/park285/pokemon-chess-battle/internal/battle"
)

func mustSquare(t *testing.T, s string) battle.Square {
	t.Helper()
	v, err := battle.ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return v
}

func TestDefaultRoster(t *testing.T) {
	c := Default()
	cases := []struct {
		piece battle.Piece
		want  Pokemon
	}{
		{battle.Piece{Kind: battle.King, Color: battle.White}, Pokemon{"Arceus", "Normal"}},
		{battle.Piece{Kind: battle.Queen, Color: battle.White}, Pokemon{"Mewtwo", "Psychic"}},
		{battle.Piece{Kind: battle.Knight, Color: battle.White}, Pokemon{"Rapidash", "Fire"}},
		{battle.Piece{Kind: battle.Pawn, Color: battle.White}, Pokemon{"Pikachu", "Electric"}},
		{battle.Piece{Kind: battle.King, Color: battle.Black}, Pokemon{"Giratina", "Ghost"}},
		{battle.Piece{Kind: battle.Queen, Color: battle.Black}, Pokemon{"Darkrai", "Dark"}},
		{battle.Piece{Kind: battle.Knight, Color: battle.Black}, Pokemon{"Mudsdale", "Ground"}},
		{battle.Piece{Kind: battle.Pawn, Color: battle.Black}, Pokemon{"Eevee", "Normal"}},
	}
	for _, tc := range cases {
		if got := c.Pokemon(tc.piece); got != tc.want {
			t.Fatalf("Pokemon(%s) = %+v, want %+v", tc.piece, got, tc.want)
		}
	}
	if got := c.Term("check"); got != "Pokemon in Danger!" {
		t.Fatalf("Term(check) = %q", got)
	}
}

func TestNarrate(t *testing.T) {
	c := Default()
	whitePawn := battle.Piece{Kind: battle.Pawn, Color: battle.White}
	blackPawn := battle.Piece{Kind: battle.Pawn, Color: battle.Black}
	knight := battle.Piece{Kind: battle.Knight, Color: battle.White}

	if got := c.Narrate(battle.MoveRecord{Moved: whitePawn, To: mustSquare(t, "e4")}); got != "Pikachu to e4" {
		t.Fatalf("move notation = %q", got)
	}
	if got := c.Narrate(battle.MoveRecord{Moved: knight, To: mustSquare(t, "d5"), Captured: &blackPawn}); got != "Rapidash defeated Eevee" {
		t.Fatalf("capture notation = %q", got)
	}
	got := c.Narrate(battle.MoveRecord{Moved: whitePawn, To: mustSquare(t, "a8"), Promotion: battle.Queen})
	if got != "Pikachu to a8 → evolved into Mewtwo!" {
		t.Fatalf("promotion notation = %q", got)
	}
}

func TestNarrateThroughEngine(t *testing.T) {
	e := battle.New(battle.WithNarrator(Default()))
	if _, err := e.AttemptMove(mustSquare(t, "e2"), mustSquare(t, "e4")); err != nil {
		t.Fatalf("AttemptMove: %v", err)
	}
	if _, err := e.AttemptMove(mustSquare(t, "d7"), mustSquare(t, "d5")); err != nil {
		t.Fatalf("AttemptMove: %v", err)
	}
	if _, err := e.AttemptMove(mustSquare(t, "e4"), mustSquare(t, "d5")); err != nil {
		t.Fatalf("AttemptMove: %v", err)
	}
	list := e.State().MoveList
	if len(list) != 2 || list[0].White != "Pikachu to e4" || list[0].Black != "Eevee to d5" || list[1].White != "Pikachu defeated Eevee" {
		t.Fatalf("move list = %+v", list)
	}
}

func TestHeadline(t *testing.T) {
	c := Default()
	e := battle.New()
	if got := c.Headline(e.State()); got != "White Trainer's turn" {
		t.Fatalf("active headline = %q", got)
	}
	for _, mv := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		if _, err := e.AttemptMove(mustSquare(t, mv[0]), mustSquare(t, mv[1])); err != nil {
			t.Fatalf("AttemptMove %v: %v", mv, err)
		}
	}
	got := c.Headline(e.State())
	if !strings.Contains(got, "Pokemon Fainted!") || !strings.Contains(got, "Black trainer wins") {
		t.Fatalf("checkmate headline = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "pieces:\n  white:\n    pawn: { name: Pichu, type: Electric }\n"
	if err := os.WriteFile(filepath.Join(dir, "10-pawns.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Pokemon(battle.Piece{Kind: battle.Pawn, Color: battle.White}).Name; got != "Pichu" {
		t.Fatalf("override not applied, got %q", got)
	}
	if got := c.Pokemon(battle.Piece{Kind: battle.Pawn, Color: battle.Black}).Name; got != "Eevee" {
		t.Fatalf("untouched entry changed, got %q", got)
	}
}

func TestOverrideDir_DuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	body := []byte("terms:\n  check: \"Watch out!\"\n")
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestOverrideDir_RejectsBlankEntries(t *testing.T) {
	dir := t.TempDir()
	body := []byte("pieces:\n  black:\n    king: { name: \"\", type: Ghost }\n")
	if err := os.WriteFile(filepath.Join(dir, "blank.yaml"), body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "pieces.black.king.name") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestRender_MissingKeyIsError(t *testing.T) {
	c := Default()
	if _, err := c.Render("notation.capture", map[string]any{"Mover": "Pikachu"}); err == nil {
		t.Fatalf("expected error for missing template data")
	}
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
