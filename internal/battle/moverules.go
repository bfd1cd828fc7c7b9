package battle

var (
	rookDirs    = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirs  = [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	queenDirs   = append(append([][2]int{}, rookDirs...), bishopDirs...)
	knightJumps = [][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingSteps   = queenDirs
)

// PseudoMoves lists the destinations of the piece on from, ignoring king
// safety. It returns nil when from does not hold a piece of color.
// Ordering is stable for a given board.
func PseudoMoves(b *Board, from Square, color Color) []Square {
	p, ok := b.At(from)
	if !ok || p.Color != color {
		return nil
	}
	switch p.Kind {
	case Pawn:
		return pawnMoves(b, from, color)
	case Knight:
		return stepMoves(b, from, color, knightJumps)
	case Bishop:
		return slideMoves(b, from, color, bishopDirs)
	case Rook:
		return slideMoves(b, from, color, rookDirs)
	case Queen:
		return slideMoves(b, from, color, queenDirs)
	case King:
		return stepMoves(b, from, color, kingSteps)
	default:
		return nil
	}
}

// No en passant.
func pawnMoves(b *Board, from Square, color Color) []Square {
	var out []Square
	dir := color.forward()
	one := from.offset(dir, 0)
	if b.isEmpty(one) {
		out = append(out, one)
		two := from.offset(2*dir, 0)
		if from.Row == color.pawnRow() && b.isEmpty(two) {
			out = append(out, two)
		}
	}
	for _, dc := range [2]int{-1, 1} {
		diag := from.offset(dir, dc)
		if target, ok := b.At(diag); ok && target.Color != color {
			out = append(out, diag)
		}
	}
	return out
}

func slideMoves(b *Board, from Square, color Color, dirs [][2]int) []Square {
	var out []Square
	for _, d := range dirs {
		for sq := from.offset(d[0], d[1]); sq.Valid(); sq = sq.offset(d[0], d[1]) {
			target, occupied := b.At(sq)
			if !occupied {
				out = append(out, sq)
				continue
			}
			if target.Color != color {
				out = append(out, sq)
			}
			break
		}
	}
	return out
}

// No castling for kings.
func stepMoves(b *Board, from Square, color Color, offsets [][2]int) []Square {
	var out []Square
	for _, d := range offsets {
		sq := from.offset(d[0], d[1])
		if !sq.Valid() {
			continue
		}
		if target, occupied := b.At(sq); occupied && target.Color == color {
			continue
		}
		out = append(out, sq)
	}
	return out
}
