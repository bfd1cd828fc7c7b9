package battle

import (
	"slices"
	"time"
)

// MoveRecord is one accepted half-move. Before is the board as it was
// prior to the move and is what Undo restores.
type MoveRecord struct {
	From      Square    `json:"from"`
	To        Square    `json:"to"`
	Moved     Piece     `json:"movedPiece"`
	Captured  *Piece    `json:"capturedPiece"`
	Before    Board     `json:"boardSnapshot"`
	Promotion PieceKind `json:"promotion,omitempty"`
	Notation  string    `json:"notation"`
	At        time.Time `json:"at"`
}

// MoveListEntry pairs the descriptions of one full turn.
type MoveListEntry struct {
	Number int    `json:"number"`
	White  string `json:"white"`
	Black  string `json:"black,omitempty"`
}

// Captured holds removed pieces keyed by the captured piece's own color.
type Captured struct {
	White []Piece `json:"white"`
	Black []Piece `json:"black"`
}

func (c *Captured) add(p Piece) {
	if p.Color == White {
		c.White = append(c.White, p)
	} else {
		c.Black = append(c.Black, p)
	}
}

func (c *Captured) removeLast(color Color) {
	list := &c.Black
	if color == White {
		list = &c.White
	}
	if n := len(*list); n > 0 {
		*list = (*list)[:n-1]
	}
	if len(*list) == 0 {
		*list = nil
	}
}

func (c Captured) clone() Captured {
	return Captured{White: slices.Clone(c.White), Black: slices.Clone(c.Black)}
}

// History is the undo log plus the display move list.
type History struct {
	records  []MoveRecord
	moveList []MoveListEntry
}

func (h *History) Len() int { return len(h.records) }

// Records returns a copy of the undo log, oldest first.
func (h *History) Records() []MoveRecord { return slices.Clone(h.records) }

// MoveList returns a copy of the display move list.
func (h *History) MoveList() []MoveListEntry { return slices.Clone(h.moveList) }

func (h *History) push(rec MoveRecord) { h.records = append(h.records, rec) }

func (h *History) last() *MoveRecord {
	if len(h.records) == 0 {
		return nil
	}
	return &h.records[len(h.records)-1]
}

func (h *History) pop() (MoveRecord, bool) {
	n := len(h.records)
	if n == 0 {
		return MoveRecord{}, false
	}
	rec := h.records[n-1]
	h.records = h.records[:n-1]
	if len(h.records) == 0 {
		h.records = nil
	}
	return rec, true
}

// note records a finished half-move under turn number.
func (h *History) note(mover Color, number int, notation string) {
	if mover == White {
		h.moveList = append(h.moveList, MoveListEntry{Number: number, White: notation})
		return
	}
	if n := len(h.moveList); n > 0 && h.moveList[n-1].Number == number && h.moveList[n-1].Black == "" {
		h.moveList[n-1].Black = notation
		return
	}
	// battle started with black to move
	h.moveList = append(h.moveList, MoveListEntry{Number: number, Black: notation})
}

func (h *History) unnote(mover Color) {
	n := len(h.moveList)
	if n == 0 {
		return
	}
	last := &h.moveList[n-1]
	if mover == Black && last.White != "" {
		last.Black = ""
		return
	}
	h.moveList = h.moveList[:n-1]
	if len(h.moveList) == 0 {
		h.moveList = nil
	}
}
