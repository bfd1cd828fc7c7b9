package battledto

import "time"

// Piece is one occupied cell as the presentation layer draws it.
type Piece struct {
	Kind    string `json:"kind"`
	Color   string `json:"color"`
	Pokemon string `json:"pokemon"`
	Type    string `json:"type"`
}

type CapturedPieces struct {
	White []Piece `json:"white"`
	Black []Piece `json:"black"`
}

type MoveEntry struct {
	Number int    `json:"number"`
	White  string `json:"white"`
	Black  string `json:"black,omitempty"`
}

// LastMove carries the squares to highlight after a half-move.
type LastMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Notation  string `json:"notation"`
	Capture   bool   `json:"capture"`
	Promotion string `json:"promotion,omitempty"`
}

// State is the read model of a battle. Board rows run from rank 8 (index 0)
// down to rank 1; empty cells are null.
type State struct {
	BattleID         string         `json:"battleId"`
	Board            [][]*Piece     `json:"board"`
	ToMove           string         `json:"toMove"`
	Status           string         `json:"status"`
	Headline         string         `json:"headline"`
	TurnCounter      int            `json:"turnCounter"`
	MoveList         []MoveEntry    `json:"moveList"`
	Captured         CapturedPieces `json:"capturedPieces"`
	PendingPromotion string         `json:"pendingPromotion,omitempty"`
	LastMove         *LastMove      `json:"lastMove,omitempty"`
	StartedAt        time.Time      `json:"startedAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Finished reports whether the battle reached checkmate or stalemate.
func (s *State) Finished() bool {
	return s != nil && (s.Status == "checkmate" || s.Status == "stalemate")
}
