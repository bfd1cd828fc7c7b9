package battle

import (
	"encoding/json"
	"slices"
	"time"
)

// Snapshot is the persisted form of an Engine.
type Snapshot struct {
	Board            Board           `json:"board"`
	ToMove           Color           `json:"toMove"`
	History          []MoveRecord    `json:"history"`
	MoveList         []MoveListEntry `json:"moveList"`
	Captured         Captured        `json:"capturedPieces"`
	Status           Status          `json:"status"`
	KingSquare       KingSquares     `json:"kingSquare"`
	TurnCounter      int             `json:"turnCounter"`
	PendingPromotion *Square         `json:"pendingPromotion"`
	Timestamp        time.Time       `json:"timestamp"`
}

// Snapshot captures everything Restore needs, stamped with the engine clock.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Board:       e.board,
		ToMove:      e.toMove,
		History:     e.history.Records(),
		MoveList:    e.history.MoveList(),
		Captured:    e.captured.clone(),
		Status:      e.status,
		KingSquare:  e.kings,
		TurnCounter: e.turn,
		Timestamp:   e.now(),
	}
	if e.pending != nil {
		sq := *e.pending
		s.PendingPromotion = &sq
	}
	return s
}

// DecodeSnapshot parses and validates a JSON snapshot.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, malformed("%v", err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Validate checks the snapshot for internal consistency. Any failure
// matches ErrMalformedSnapshot.
func (s Snapshot) Validate() error {
	if !s.ToMove.valid() {
		return malformed("invalid side to move")
	}
	if s.TurnCounter < 1 {
		return malformed("turn counter %d", s.TurnCounter)
	}
	if int(s.Status) >= len(statusNames) {
		return malformed("invalid status")
	}
	kings, err := s.Board.Kings()
	if err != nil {
		return malformed("%v", err)
	}
	if kings != s.KingSquare {
		return malformed("cached king squares %+v do not match board %+v", s.KingSquare, kings)
	}

	captures := 0
	for i, rec := range s.History {
		if !rec.From.Valid() || !rec.To.Valid() || rec.From == rec.To {
			return malformed("history[%d] has invalid squares", i)
		}
		if rec.Moved.IsZero() || !rec.Moved.Color.valid() {
			return malformed("history[%d] has no moved piece", i)
		}
		if rec.Promotion != NoKind && !rec.Promotion.Promotable() {
			return malformed("history[%d] promotes to %s", i, rec.Promotion)
		}
		if _, err := rec.Before.Kings(); err != nil {
			return malformed("history[%d] snapshot: %v", i, err)
		}
		if before, ok := rec.Before.At(rec.From); !ok || before != rec.Moved {
			return malformed("history[%d] snapshot does not hold the moved piece", i)
		}
		if rec.Captured != nil {
			if rec.Captured.IsZero() || rec.Captured.Color == rec.Moved.Color {
				return malformed("history[%d] has an invalid capture", i)
			}
			captures++
		}
	}
	for _, p := range s.Captured.White {
		if p.Color != White || p.IsZero() {
			return malformed("captured white list holds %s", p)
		}
	}
	for _, p := range s.Captured.Black {
		if p.Color != Black || p.IsZero() {
			return malformed("captured black list holds %s", p)
		}
	}
	if captures != len(s.Captured.White)+len(s.Captured.Black) {
		return malformed("history records %d captures, lists hold %d", captures, len(s.Captured.White)+len(s.Captured.Black))
	}

	if err := s.checkSequence(); err != nil {
		return err
	}

	if s.PendingPromotion != nil {
		sq := *s.PendingPromotion
		p, ok := s.Board.At(sq)
		if !ok || p.Kind != Pawn || p.Color != s.ToMove || sq.Row != s.ToMove.PromotionRow() {
			return malformed("pending promotion square %s holds %s", sq, p)
		}
		n := len(s.History)
		if n == 0 || s.History[n-1].To != sq {
			return malformed("pending promotion without matching history")
		}
		if last := s.History[n-1]; last.Moved.Kind != Pawn || last.Promotion != NoKind {
			return malformed("pending promotion but last move is %s promoting to %s", last.Moved, last.Promotion)
		}
		return nil
	}

	scratch := &Engine{board: s.Board, toMove: s.ToMove, kings: s.KingSquare}
	if got := scratch.evaluate(); got != s.Status {
		return malformed("stored status %s, board says %s", s.Status, got)
	}
	return nil
}

// checkSequence replays the finished half-moves of History and requires
// the move list, turn counter and side to move to agree with them.
// Every battle starts at turn 1, whichever side opens.
func (s Snapshot) checkSequence() error {
	done := s.History
	if s.PendingPromotion != nil && len(done) > 0 {
		done = done[:len(done)-1]
	}
	var (
		replay History
		turn   = 1
	)
	for i, rec := range done {
		if i > 0 && rec.Moved.Color == done[i-1].Moved.Color {
			return malformed("history[%d] moves %s twice in a row", i, rec.Moved.Color)
		}
		if rec.Moved.Kind == Pawn && rec.To.Row == rec.Moved.Color.PromotionRow() && rec.Promotion == NoKind {
			return malformed("history[%d] leaves a pawn unpromoted", i)
		}
		replay.note(rec.Moved.Color, turn, rec.Notation)
		if rec.Moved.Color == Black {
			turn++
		}
	}
	if s.TurnCounter != turn {
		return malformed("turn counter %d, history implies %d", s.TurnCounter, turn)
	}
	if !slices.Equal(replay.moveList, s.MoveList) {
		return malformed("move list holds %d entries that do not match history", len(s.MoveList))
	}
	if n := len(s.History); n > 0 {
		last := s.History[n-1].Moved.Color
		if s.PendingPromotion == nil {
			last = last.Opponent()
		}
		if last != s.ToMove {
			return malformed("side to move %s does not follow history", s.ToMove)
		}
	}
	return nil
}

// Restore rebuilds an engine from a snapshot. A snapshot that fails
// Validate is rejected as a whole.
func Restore(s Snapshot, opts ...Option) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	e := newEngine(opts)
	e.board = s.Board
	e.toMove = s.ToMove
	e.kings = s.KingSquare
	e.status = s.Status
	e.turn = s.TurnCounter
	e.captured = s.Captured.clone()
	e.history = History{
		records:  slices.Clone(s.History),
		moveList: slices.Clone(s.MoveList),
	}
	if s.PendingPromotion != nil {
		sq := *s.PendingPromotion
		e.pending = &sq
	}
	return e, nil
}
