package battlepresenter

import (
	"time"

	"github.com/park285/pokemon-chess-battle/internal/battle"
	"github.com/park285/pokemon-chess-battle/internal/battlestore"
	"github.com/park285/pokemon-chess-battle/internal/roster"
	"github.com/park285/pokemon-chess-battle/pkg/battledto"
)

// Presenter maps engine views to transport DTOs using a roster.
type Presenter struct {
	cat *roster.Catalog
}

func New(cat *roster.Catalog) *Presenter {
	if cat == nil {
		cat = roster.Default()
	}
	return &Presenter{cat: cat}
}

func (p *Presenter) ToDTOState(battleID string, v battle.View, startedAt, updatedAt time.Time) *battledto.State {
	st := &battledto.State{
		BattleID:    battleID,
		Board:       p.toDTOBoard(v.Board),
		ToMove:      v.ToMove.String(),
		Status:      v.Status.String(),
		Headline:    p.cat.Headline(v),
		TurnCounter: v.TurnCounter,
		MoveList:    ToDTOMoveList(v.MoveList),
		Captured: battledto.CapturedPieces{
			White: p.toDTOPieces(v.Captured.White),
			Black: p.toDTOPieces(v.Captured.Black),
		},
		StartedAt: startedAt,
		UpdatedAt: updatedAt,
	}
	if v.PendingPromotion != nil {
		st.PendingPromotion = v.PendingPromotion.String()
	}
	if lm := v.LastMove; lm != nil {
		st.LastMove = &battledto.LastMove{
			From:     lm.From.String(),
			To:       lm.To.String(),
			Notation: lm.Notation,
			Capture:  lm.Captured != nil,
		}
		if lm.Promotion != battle.NoKind {
			st.LastMove.Promotion = lm.Promotion.String()
		}
	}
	return st
}

func (p *Presenter) ToDTOPiece(pc battle.Piece) battledto.Piece {
	mon := p.cat.Pokemon(pc)
	return battledto.Piece{
		Kind:    pc.Kind.String(),
		Color:   pc.Color.String(),
		Pokemon: mon.Name,
		Type:    mon.Type,
	}
}

func (p *Presenter) toDTOBoard(b battle.Board) [][]*battledto.Piece {
	rows := make([][]*battledto.Piece, 8)
	for r := 0; r < 8; r++ {
		rows[r] = make([]*battledto.Piece, 8)
		for c := 0; c < 8; c++ {
			if pc := b[r][c]; !pc.IsZero() {
				d := p.ToDTOPiece(pc)
				rows[r][c] = &d
			}
		}
	}
	return rows
}

func (p *Presenter) toDTOPieces(list []battle.Piece) []battledto.Piece {
	out := make([]battledto.Piece, 0, len(list))
	for _, pc := range list {
		out = append(out, p.ToDTOPiece(pc))
	}
	return out
}

func ToDTOMoveList(list []battle.MoveListEntry) []battledto.MoveEntry {
	out := make([]battledto.MoveEntry, 0, len(list))
	for _, m := range list {
		out = append(out, battledto.MoveEntry{Number: m.Number, White: m.White, Black: m.Black})
	}
	return out
}

func ToDTOSquares(list []battle.Square) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.String())
	}
	return out
}

func ToDTOResult(r battlestore.Result) battledto.BattleResult {
	return battledto.BattleResult{
		BattleID:   r.BattleID,
		Outcome:    r.Outcome,
		Winner:     r.Winner,
		TurnCount:  r.TurnCount,
		HalfMoves:  r.HalfMoves,
		MoveList:   ToDTOMoveList(r.MoveList),
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
		DurationMS: r.Duration().Milliseconds(),
	}
}

func ToDTOResults(list []battlestore.Result) []battledto.BattleResult {
	out := make([]battledto.BattleResult, 0, len(list))
	for _, r := range list {
		out = append(out, ToDTOResult(r))
	}
	return out
}
