package roster

import (
	"strings"

	"github.com/park285/pokemon-chess-battle/internal/battle"
)

var _ battle.Narrator = (*Catalog)(nil)

// Narrate describes a finished half-move the Pokémon way:
// "Pikachu to e4", "Rapidash defeated Eevee", with " → evolved into
// Mewtwo!" appended on promotion.
func (c *Catalog) Narrate(rec battle.MoveRecord) string {
	data := map[string]any{
		"Mover": c.Pokemon(rec.Moved).Name,
		"To":    rec.To.String(),
	}
	key := "notation.move"
	if rec.Captured != nil {
		key = "notation.capture"
		data["Captured"] = c.Pokemon(*rec.Captured).Name
	}
	text, err := c.Render(key, data)
	if err != nil {
		text = c.Pokemon(rec.Moved).Name + " to " + rec.To.String()
	}
	if rec.Promotion != battle.NoKind {
		evolved := c.Pokemon(battle.Piece{Kind: rec.Promotion, Color: rec.Moved.Color}).Name
		suffix, err := c.Render("notation.evolution", map[string]any{"Evolved": evolved})
		if err != nil {
			suffix = " → " + evolved
		}
		text += suffix
	}
	return text
}

func trainer(c battle.Color) string {
	s := c.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// Headline is the one-line battle banner for a state.
func (c *Catalog) Headline(v battle.View) string {
	data := map[string]any{
		"Terms":   c.terms(),
		"Trainer": trainer(v.ToMove),
		"Winner":  trainer(v.ToMove.Opponent()),
	}
	var key string
	switch {
	case v.PendingPromotion != nil:
		key = "headline.promotion"
		data["Pokemon"] = c.Pokemon(battle.Piece{Kind: battle.Pawn, Color: v.ToMove}).Name
	case v.Status == battle.StatusCheckmate:
		key = "headline.checkmate"
	case v.Status == battle.StatusStalemate:
		key = "headline.stalemate"
	case v.Status == battle.StatusCheck:
		key = "headline.check"
	case v.LastMove != nil && v.LastMove.Captured != nil:
		key = "headline.capture"
	default:
		key = "headline.active"
	}
	text, err := c.Render(key, data)
	if err != nil {
		return v.Status.String()
	}
	return text
}
