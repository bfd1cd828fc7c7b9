package battle

// IsAttacked reports whether any piece of color by has sq among its
// pseudo moves.
func IsAttacked(b *Board, sq Square, by Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if p := b[r][c]; p.IsZero() || p.Color != by {
				continue
			}
			for _, dst := range PseudoMoves(b, Square{Row: r, Col: c}, by) {
				if dst == sq {
					return true
				}
			}
		}
	}
	return false
}
