package battle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("color(%d)", uint8(c))
	}
}

func (c Color) valid() bool { return c == White || c == Black }

// ParseColor accepts "white"/"black" and the one-letter forms.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return 0, fmt.Errorf("unknown color %q", s)
	}
}

func (c Color) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("invalid color %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// forward is the row delta of a pawn step. White advances toward row 0.
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

func (c Color) pawnRow() int {
	if c == White {
		return 6
	}
	return 1
}

// PromotionRow is the opponent's home rank.
func (c Color) PromotionRow() int {
	if c == White {
		return 0
	}
	return 7
}

// PieceKind identifies a piece type. NoKind marks an empty cell.
type PieceKind uint8

const (
	NoKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (k PieceKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Promotable reports whether a pawn may become k.
func (k PieceKind) Promotable() bool {
	return k == Queen || k == Rook || k == Bishop || k == Knight
}

// ParsePieceKind accepts lower-case names and the English piece letters.
func ParsePieceKind(s string) (PieceKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "p":
		return Pawn, nil
	case "n":
		return Knight, nil
	case "b":
		return Bishop, nil
	case "r":
		return Rook, nil
	case "q":
		return Queen, nil
	case "k":
		return King, nil
	}
	for i := 1; i < len(kindNames); i++ {
		if kindNames[i] == v {
			return PieceKind(i), nil
		}
	}
	return NoKind, fmt.Errorf("unknown piece kind %q", s)
}

func (k PieceKind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("invalid piece kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *PieceKind) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*k = NoKind
		return nil
	}
	v, err := ParsePieceKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Piece is a value; the zero Piece is an empty cell.
type Piece struct {
	Kind  PieceKind `json:"kind"`
	Color Color     `json:"color"`
}

func (p Piece) IsZero() bool { return p.Kind == NoKind }

func (p Piece) String() string {
	if p.IsZero() {
		return "empty"
	}
	return p.Color.String() + " " + p.Kind.String()
}

// Square addresses a cell. Row 0 is black's home rank.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) offset(dr, dc int) Square {
	return Square{Row: s.Row + dr, Col: s.Col + dc}
}

// String renders the square in coordinate form, e.g. "e4".
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return string([]byte{byte('a' + s.Col), byte('8' - s.Row)})
}

// ParseSquare parses coordinate form ("e4").
func ParseSquare(s string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	return Square{Row: int('8' - v[1]), Col: int(v[0] - 'a')}, nil
}

// Board is an 8x8 grid indexed [row][col]. Assignment copies it.
type Board [8][8]Piece

var backRank = [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StandardBoard returns the initial position.
func StandardBoard() Board {
	var b Board
	for c := 0; c < 8; c++ {
		b[0][c] = Piece{Kind: backRank[c], Color: Black}
		b[1][c] = Piece{Kind: Pawn, Color: Black}
		b[6][c] = Piece{Kind: Pawn, Color: White}
		b[7][c] = Piece{Kind: backRank[c], Color: White}
	}
	return b
}

// At returns the piece on sq. ok is false for empty or off-board squares.
func (b Board) At(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return Piece{}, false
	}
	p := b[sq.Row][sq.Col]
	return p, !p.IsZero()
}

func (b *Board) Set(sq Square, p Piece) { b[sq.Row][sq.Col] = p }

func (b *Board) Clear(sq Square) { b[sq.Row][sq.Col] = Piece{} }

func (b *Board) isEmpty(sq Square) bool {
	return sq.Valid() && b[sq.Row][sq.Col].IsZero()
}

// KingSquares caches the king location of each side.
type KingSquares struct {
	White Square `json:"white"`
	Black Square `json:"black"`
}

func (k KingSquares) Of(c Color) Square {
	if c == White {
		return k.White
	}
	return k.Black
}

func (k *KingSquares) set(c Color, sq Square) {
	if c == White {
		k.White = sq
	} else {
		k.Black = sq
	}
}

// Kings scans the board and fails unless each side has exactly one king.
func (b Board) Kings() (KingSquares, error) {
	var (
		ks     KingSquares
		counts [2]int
	)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b[r][c]
			if p.Kind != King || !p.Color.valid() {
				continue
			}
			counts[p.Color]++
			ks.set(p.Color, Square{Row: r, Col: c})
		}
	}
	if counts[White] != 1 || counts[Black] != 1 {
		return KingSquares{}, fmt.Errorf("board has %d white and %d black kings", counts[White], counts[Black])
	}
	return ks, nil
}

// MarshalJSON writes 8 rows of 8 cells; empty cells are null.
func (b Board) MarshalJSON() ([]byte, error) {
	rows := make([][]*Piece, 8)
	for r := 0; r < 8; r++ {
		rows[r] = make([]*Piece, 8)
		for c := 0; c < 8; c++ {
			if p := b[r][c]; !p.IsZero() {
				rows[r][c] = &p
			}
		}
	}
	return json.Marshal(rows)
}

func (b *Board) UnmarshalJSON(raw []byte) error {
	var rows [][]*Piece
	if err := json.Unmarshal(raw, &rows); err != nil {
		return err
	}
	if len(rows) != 8 {
		return fmt.Errorf("board has %d rows", len(rows))
	}
	var out Board
	for r, row := range rows {
		if len(row) != 8 {
			return fmt.Errorf("board row %d has %d cells", r, len(row))
		}
		for c, p := range row {
			if p == nil {
				continue
			}
			if p.IsZero() || !p.Color.valid() {
				return fmt.Errorf("board cell %s holds an invalid piece", Square{Row: r, Col: c})
			}
			out[r][c] = *p
		}
	}
	*b = out
	return nil
}
