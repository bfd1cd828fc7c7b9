package battle

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Status is the battle state seen by the side to move.
type Status uint8

const (
	StatusActive Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

var statusNames = [...]string{"active", "check", "checkmate", "stalemate"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Terminal reports whether the battle is over.
func (s Status) Terminal() bool { return s == StatusCheckmate || s == StatusStalemate }

func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// MoveOutcome classifies an accepted move.
type MoveOutcome uint8

const (
	OutcomeMoved MoveOutcome = iota + 1
	OutcomeCaptured
	OutcomePromotionPending
)

func (o MoveOutcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeCaptured:
		return "captured"
	case OutcomePromotionPending:
		return "promotionPending"
	default:
		return "unknown"
	}
}

func (o MoveOutcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Narrator writes the move-list description of a finished half-move.
type Narrator interface {
	Narrate(rec MoveRecord) string
}

type plainNarrator struct{}

func (plainNarrator) Narrate(rec MoveRecord) string {
	s := fmt.Sprintf("%s to %s", rec.Moved.Kind, rec.To)
	if rec.Captured != nil {
		s = fmt.Sprintf("%s captured %s on %s", rec.Moved.Kind, rec.Captured.Kind, rec.To)
	}
	if rec.Promotion != NoKind {
		s += ", promoted to " + rec.Promotion.String()
	}
	return s
}

// Option configures an Engine.
type Option func(*Engine)

// WithNarrator sets the move-list narrator.
func WithNarrator(n Narrator) Option {
	return func(e *Engine) {
		if n != nil {
			e.narrator = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock overrides the time source used for record and snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine owns one battle. It is not safe for concurrent use.
type Engine struct {
	board    Board
	toMove   Color
	kings    KingSquares
	status   Status
	turn     int
	captured Captured
	history  History
	// pending is the destination of a pawn waiting for CompletePromotion.
	pending *Square

	narrator Narrator
	log      *zap.Logger
	now      func() time.Time
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		narrator: plainNarrator{},
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New returns an engine set up in the standard initial position.
func New(opts ...Option) *Engine {
	e := newEngine(opts)
	e.Reset()
	return e
}

// NewFromPosition starts a battle from an arbitrary board. The board must
// hold exactly one king per side; status is evaluated immediately.
func NewFromPosition(board Board, toMove Color, opts ...Option) (*Engine, error) {
	if !toMove.valid() {
		return nil, fmt.Errorf("invalid side to move %d", uint8(toMove))
	}
	kings, err := board.Kings()
	if err != nil {
		return nil, err
	}
	e := newEngine(opts)
	e.board = board
	e.toMove = toMove
	e.kings = kings
	e.turn = 1
	e.status = e.evaluate()
	return e, nil
}

// Reset replaces the battle with the standard initial position.
func (e *Engine) Reset() {
	e.board = StandardBoard()
	e.toMove = White
	e.kings = KingSquares{White: Square{Row: 7, Col: 4}, Black: Square{Row: 0, Col: 4}}
	e.status = StatusActive
	e.turn = 1
	e.captured = Captured{}
	e.history = History{}
	e.pending = nil
}

// LegalMoves returns the legal destinations of the piece on sq. It is
// empty while a promotion is pending.
func (e *Engine) LegalMoves(sq Square) []Square {
	if e.pending != nil {
		return nil
	}
	return LegalMoves(&e.board, e.kings, e.toMove, sq)
}

func (e *Engine) reject(from, to Square, reason string) error {
	e.log.Debug("battle_move_rejected",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("reason", reason),
	)
	return &MoveError{From: from, To: to, Reason: reason}
}

// AttemptMove applies from-to for the side to move. A rejected move leaves
// the engine untouched and returns a *MoveError.
func (e *Engine) AttemptMove(from, to Square) (MoveOutcome, error) {
	if e.pending != nil {
		return 0, e.reject(from, to, ReasonPromotionPending)
	}
	if e.status.Terminal() {
		return 0, e.reject(from, to, ReasonBattleOver)
	}
	p, ok := e.board.At(from)
	if !ok {
		return 0, e.reject(from, to, ReasonEmptyOrigin)
	}
	if p.Color != e.toMove {
		return 0, e.reject(from, to, ReasonNotYourPiece)
	}
	if !containsSquare(e.LegalMoves(from), to) {
		return 0, e.reject(from, to, ReasonIllegalDestination)
	}

	rec := MoveRecord{From: from, To: to, Moved: p, Before: e.board, At: e.now()}
	outcome := OutcomeMoved
	if target, occupied := e.board.At(to); occupied {
		rec.Captured = &target
		e.captured.add(target)
		outcome = OutcomeCaptured
	}
	e.board.Set(to, p)
	e.board.Clear(from)
	if p.Kind == King {
		e.kings.set(p.Color, to)
	}
	e.history.push(rec)

	if p.Kind == Pawn && to.Row == p.Color.PromotionRow() {
		sq := to
		e.pending = &sq
		e.log.Debug("battle_promotion_pending", zap.Stringer("square", to), zap.Stringer("color", p.Color))
		return OutcomePromotionPending, nil
	}
	e.finishHalfMove()
	return outcome, nil
}

// CompletePromotion turns the waiting pawn into kind and advances the turn.
func (e *Engine) CompletePromotion(kind PieceKind) (MoveOutcome, error) {
	if e.pending == nil {
		return 0, &PromotionError{Kind: kind, Reason: "no promotion pending"}
	}
	if !kind.Promotable() {
		return 0, &PromotionError{Kind: kind, Reason: "pawns promote to queen, rook, bishop or knight"}
	}
	sq := *e.pending
	p, _ := e.board.At(sq)
	p.Kind = kind
	e.board.Set(sq, p)

	rec := e.history.last()
	rec.Promotion = kind
	outcome := OutcomeMoved
	if rec.Captured != nil {
		outcome = OutcomeCaptured
	}
	e.pending = nil
	e.finishHalfMove()
	return outcome, nil
}

func (e *Engine) finishHalfMove() {
	rec := e.history.last()
	rec.Notation = e.narrator.Narrate(*rec)
	mover := e.toMove
	e.history.note(mover, e.turn, rec.Notation)

	e.toMove = mover.Opponent()
	if e.toMove == White {
		e.turn++
	}
	prev := e.status
	e.status = e.evaluate()
	e.log.Debug("battle_move_applied",
		zap.Stringer("mover", mover),
		zap.Stringer("from", rec.From),
		zap.Stringer("to", rec.To),
		zap.String("notation", rec.Notation),
		zap.Int("turn", e.turn),
	)
	if e.status != prev {
		e.log.Debug("battle_status_change", zap.Stringer("from", prev), zap.Stringer("to", e.status))
	}
}

// evaluate derives the status of the side to move from the board.
func (e *Engine) evaluate() Status {
	inCheck := IsAttacked(&e.board, e.kings.Of(e.toMove), e.toMove.Opponent())
	if hasLegalMove(&e.board, e.kings, e.toMove) {
		if inCheck {
			return StatusCheck
		}
		return StatusActive
	}
	if inCheck {
		return StatusCheckmate
	}
	return StatusStalemate
}

// Undo takes back the most recent half-move. It reports false when there
// is nothing to undo. Undoing while a promotion is pending cancels the
// pawn move; the turn was never advanced in that case.
func (e *Engine) Undo() bool {
	rec, ok := e.history.pop()
	if !ok {
		return false
	}
	e.board = rec.Before
	if rec.Captured != nil {
		e.captured.removeLast(rec.Captured.Color)
	}
	if kings, err := e.board.Kings(); err == nil {
		e.kings = kings
	}
	if e.pending != nil {
		e.pending = nil
	} else {
		e.history.unnote(rec.Moved.Color)
		e.toMove = rec.Moved.Color
		if e.toMove == Black && e.turn > 1 {
			e.turn--
		}
	}
	e.status = e.evaluate()
	e.log.Debug("battle_undo",
		zap.Stringer("from", rec.From),
		zap.Stringer("to", rec.To),
		zap.Stringer("status", e.status),
	)
	return true
}

// PendingPromotion returns the square waiting for CompletePromotion.
func (e *Engine) PendingPromotion() (Square, bool) {
	if e.pending == nil {
		return Square{}, false
	}
	return *e.pending, true
}

func (e *Engine) Status() Status { return e.status }

func (e *Engine) ToMove() Color { return e.toMove }

// View is an immutable copy of the state a presentation layer needs.
type View struct {
	Board            Board           `json:"board"`
	ToMove           Color           `json:"toMove"`
	Status           Status          `json:"status"`
	Captured         Captured        `json:"capturedPieces"`
	MoveList         []MoveListEntry `json:"moveList"`
	TurnCounter      int             `json:"turnCounter"`
	PendingPromotion *Square         `json:"pendingPromotion,omitempty"`
	LastMove         *LastMove       `json:"lastMove,omitempty"`
}

// LastMove summarises the most recent half-move for highlighting.
type LastMove struct {
	From      Square    `json:"from"`
	To        Square    `json:"to"`
	Moved     Piece     `json:"movedPiece"`
	Captured  *Piece    `json:"capturedPiece,omitempty"`
	Promotion PieceKind `json:"promotion,omitempty"`
	Notation  string    `json:"notation,omitempty"`
}

// State returns a copy of the current state. Two calls with no mutation in
// between return equal values.
func (e *Engine) State() View {
	v := View{
		Board:       e.board,
		ToMove:      e.toMove,
		Status:      e.status,
		Captured:    e.captured.clone(),
		MoveList:    e.history.MoveList(),
		TurnCounter: e.turn,
	}
	if e.pending != nil {
		sq := *e.pending
		v.PendingPromotion = &sq
	}
	if rec := e.history.last(); rec != nil {
		lm := &LastMove{
			From:      rec.From,
			To:        rec.To,
			Moved:     rec.Moved,
			Promotion: rec.Promotion,
			Notation:  rec.Notation,
		}
		if rec.Captured != nil {
			c := *rec.Captured
			lm.Captured = &c
		}
		v.LastMove = lm
	}
	return v
}
