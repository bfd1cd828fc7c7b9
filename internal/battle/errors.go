package battle

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMove            = errors.New("invalid move")
	ErrInvalidPromotionChoice = errors.New("invalid promotion choice")
	ErrEmptyHistory           = errors.New("no move to undo")
	ErrMalformedSnapshot      = errors.New("malformed battle snapshot")
)

// Rejection reasons carried by MoveError.
const (
	ReasonEmptyOrigin        = "empty origin"
	ReasonNotYourPiece       = "not your piece"
	ReasonIllegalDestination = "illegal destination"
	ReasonBattleOver         = "battle over"
	ReasonPromotionPending   = "promotion pending"
)

// MoveError is a rejected AttemptMove. It matches ErrInvalidMove.
type MoveError struct {
	From   Square
	To     Square
	Reason string
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("invalid move %s-%s: %s", e.From, e.To, e.Reason)
}

func (e *MoveError) Unwrap() error { return ErrInvalidMove }

// PromotionError is a rejected CompletePromotion. It matches ErrInvalidPromotionChoice.
type PromotionError struct {
	Kind   PieceKind
	Reason string
}

func (e *PromotionError) Error() string {
	return fmt.Sprintf("invalid promotion to %q: %s", e.Kind.String(), e.Reason)
}

func (e *PromotionError) Unwrap() error { return ErrInvalidPromotionChoice }

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedSnapshot, fmt.Sprintf(format, args...))
}
