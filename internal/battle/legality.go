package battle

// LegalMoves returns the destinations from which the piece on from can move
// without leaving its own king attacked. The side to move is toMove; a
// piece of the other side yields nothing. Each candidate is tried on its
// own copy of b.
func LegalMoves(b *Board, kings KingSquares, toMove Color, from Square) []Square {
	p, ok := b.At(from)
	if !ok || p.Color != toMove {
		return nil
	}
	pseudo := PseudoMoves(b, from, toMove)
	if len(pseudo) == 0 {
		return nil
	}
	legal := make([]Square, 0, len(pseudo))
	for _, to := range pseudo {
		scratch := *b
		scratch.Set(to, p)
		scratch.Clear(from)
		king := kings.Of(toMove)
		if p.Kind == King {
			king = to
		}
		if !IsAttacked(&scratch, king, toMove.Opponent()) {
			legal = append(legal, to)
		}
	}
	if len(legal) == 0 {
		return nil
	}
	return legal
}

func hasLegalMove(b *Board, kings KingSquares, color Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if p := b[r][c]; p.IsZero() || p.Color != color {
				continue
			}
			if len(LegalMoves(b, kings, color, Square{Row: r, Col: c})) > 0 {
				return true
			}
		}
	}
	return false
}

func containsSquare(list []Square, sq Square) bool {
	for _, s := range list {
		if s == sq {
			return true
		}
	}
	return false
}
